package stage

import (
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type is one lifecycle phase of a governance proposal. The declared order
// is canonical: it drives sorting, resource de-duplication and status
// precedence.
type Type string

const (
	TypeDraft               Type = "draft"
	TypeTransparencyReport  Type = "transparency_report"
	TypeCouncilApproval     Type = "council_approval"
	TypeCommunityVoting     Type = "community_voting"
	TypeCouncilConfirmation Type = "council_confirmation"
)

var canonicalOrder = map[Type]int{
	TypeDraft:               0,
	TypeTransparencyReport:  1,
	TypeCouncilApproval:     2,
	TypeCommunityVoting:     3,
	TypeCouncilConfirmation: 4,
}

func (t Type) Order() int {
	return canonicalOrder[t]
}

// Status is the status of a single stage.
type Status string

const (
	StatusUnknown  Status = ""
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusApproved Status = "approved"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ProposalStatus is the proposal-level status a stage implies when it is the
// governing stage.
type ProposalStatus string

const (
	ProposalUnknown  ProposalStatus = ""
	ProposalPending  ProposalStatus = "pending"
	ProposalActive   ProposalStatus = "active"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
	ProposalExpired  ProposalStatus = "expired"
	ProposalExecuted ProposalStatus = "executed"
)

type Creator struct {
	Name string `json:"name,omitempty"`
	Link string `json:"link,omitempty"`
}

type Resource struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Binding is a cross-reference from one stage to a sibling of another type,
// keyed by the sibling's external key.
type Binding struct {
	TargetType  Type   `json:"target_type"`
	ExternalKey string `json:"external_key"`
}

type Score struct {
	Choice string          `json:"choice"`
	Weight decimal.Decimal `json:"weight"`
}

// Voting holds the measurable-vote attributes of a stage.
type Voting struct {
	ProviderID    string          `json:"provider_id"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Quorum        decimal.Decimal `json:"quorum"`
	MinApprovals  uint64          `json:"min_approvals"`
	Approvals     uint64          `json:"approvals"`
	Scores        []Score         `json:"scores,omitempty"`
	TotalVotes    int             `json:"total_votes"`
	SnapshotBlock string          `json:"snapshot_block,omitempty"`
}

type Action struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// Stage is one lifecycle step of a proposal as produced by a single
// provider. Stages are immutable once parsed; matching only groups them.
type Stage struct {
	Type        Type
	ExternalKey string
	Link        string

	Title       string
	Description string
	Body        string

	Status        Status
	OverallStatus ProposalStatus

	Creators  []Creator
	Resources []Resource
	Bindings  []Binding
	Actions   []Action

	Voting *Voting

	IsEmergency bool
	IsSignaling bool
	Executed    bool

	CreatedAt time.Time
}

func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}

	return time.Unix(ts, 0).UTC()
}

// ExternalKeyFromLink derives a stage's external key from its canonical
// link: the last path segment with any extension stripped.
func ExternalKeyFromLink(link string) string {
	link = strings.TrimRight(link, "/")

	key := path.Base(link)
	if key == "." || key == "/" {
		return ""
	}

	if idx := strings.LastIndex(key, "."); idx > 0 {
		key = key[:idx]
	}

	return key
}
