package proposal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/govhub-labs/govstate-storage/internal/stage"
)

type Publisher struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Link    string `json:"link,omitempty"`
}

// UnknownPublisher is the synthetic entry used when no stage carries a
// creator: consumers never receive an empty publisher list.
var UnknownPublisher = Publisher{Address: "", Name: "Unknown"}

type Publishers []Publisher

func (p Publishers) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Publishers) Scan(src any) error {
	return scanJSON(src, p)
}

type Resources []stage.Resource

func (r Resources) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *Resources) Scan(src any) error {
	return scanJSON(src, r)
}

type Actions []stage.Action

func (a Actions) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Actions) Scan(src any) error {
	return scanJSON(src, a)
}

type Creators []stage.Creator

func (c Creators) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *Creators) Scan(src any) error {
	return scanJSON(src, c)
}

type Voting stage.Voting

func (v Voting) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Voting) Scan(src any) error {
	return scanJSON(src, v)
}

func scanJSON(src, dst any) error {
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}

// Proposal is the assembled aggregate. Stored rows are eventually-consistent
// snapshots; reads of live proposals re-derive the voting stages first.
type Proposal struct {
	ID string `gorm:"primary_key" json:"id"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Status       stage.ProposalStatus `json:"status"`
	CurrentStage stage.Type           `json:"current_stage"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`

	IsEmergency bool `json:"is_emergency"`

	// AuthoredAt is the earliest known stage date, not the row timestamp.
	AuthoredAt time.Time `json:"created_at"`

	Publisher Publishers `gorm:"type:jsonb" json:"publisher"`
	Resources Resources  `gorm:"type:jsonb" json:"resources"`
	Actions   Actions    `gorm:"type:jsonb" json:"actions"`

	Stages []Stage `gorm:"foreignKey:ProposalID;references:ID" json:"stages"`
}

func (Proposal) TableName() string {
	return "proposals"
}

// Stage is one stored lifecycle step, kept as a nested collection under its
// proposal.
type Stage struct {
	ID         uuid.UUID `gorm:"primary_key" json:"-"`
	ProposalID string    `gorm:"index" json:"-"`
	Position   int       `json:"-"`

	Type        stage.Type `json:"type"`
	ExternalKey string     `json:"external_key"`
	Link        string     `json:"link,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Body        string `json:"body,omitempty"`

	Status        stage.Status         `json:"status"`
	OverallStatus stage.ProposalStatus `json:"overall_status"`

	Creators  Creators  `gorm:"type:jsonb" json:"creators"`
	Resources Resources `gorm:"type:jsonb" json:"resources"`
	Actions   Actions   `gorm:"type:jsonb" json:"actions,omitempty"`
	Voting    *Voting   `gorm:"type:jsonb" json:"voting,omitempty"`

	IsEmergency bool `json:"is_emergency"`
	IsSignaling bool `json:"is_signaling"`
	Executed    bool `json:"executed"`

	AuthoredAt time.Time `json:"created_at"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Stage) TableName() string {
	return "proposal_stages"
}

// AISummary stores the generated digest of a proposal body.
type AISummary struct {
	ProposalID string `gorm:"primary_key"`
	CreatedAt  time.Time
	Summary    string
}

func (AISummary) TableName() string {
	return "proposal_ai_summary"
}

func toStageRow(proposalID string, position int, s stage.Stage) Stage {
	var voting *Voting
	if s.Voting != nil {
		v := Voting(*s.Voting)
		voting = &v
	}

	return Stage{
		ID:            uuid.New(),
		ProposalID:    proposalID,
		Position:      position,
		Type:          s.Type,
		ExternalKey:   s.ExternalKey,
		Link:          s.Link,
		Title:         s.Title,
		Description:   s.Description,
		Body:          s.Body,
		Status:        s.Status,
		OverallStatus: s.OverallStatus,
		Creators:      Creators(s.Creators),
		Resources:     Resources(s.Resources),
		Actions:       Actions(s.Actions),
		Voting:        voting,
		IsEmergency:   s.IsEmergency,
		IsSignaling:   s.IsSignaling,
		Executed:      s.Executed,
		AuthoredAt:    s.CreatedAt,
	}
}

func toDomainStage(row Stage) stage.Stage {
	var voting *stage.Voting
	if row.Voting != nil {
		v := stage.Voting(*row.Voting)
		voting = &v
	}

	return stage.Stage{
		Type:          row.Type,
		ExternalKey:   row.ExternalKey,
		Link:          row.Link,
		Title:         row.Title,
		Description:   row.Description,
		Body:          row.Body,
		Status:        row.Status,
		OverallStatus: row.OverallStatus,
		Creators:      []stage.Creator(row.Creators),
		Resources:     []stage.Resource(row.Resources),
		Actions:       []stage.Action(row.Actions),
		Voting:        voting,
		IsEmergency:   row.IsEmergency,
		IsSignaling:   row.IsSignaling,
		Executed:      row.Executed,
		CreatedAt:     row.AuthoredAt,
	}
}
