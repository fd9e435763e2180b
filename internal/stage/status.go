package stage

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// WindowInput is the shared input of the three time-windowed state machines.
type WindowInput struct {
	Now          time.Time
	StartDate    time.Time
	EndDate      time.Time
	Executed     bool
	CountReached bool
	IsSignaling  bool
}

func (in WindowInput) beforeWindow() bool {
	return in.Now.Before(in.StartDate)
}

func (in WindowInput) afterWindow() bool {
	return in.Now.After(in.EndDate)
}

// ApprovalStatus classifies a standard (non-emergency) council approval
// stage. The window is boundary inclusive on both ends.
func ApprovalStatus(in WindowInput) (Status, ProposalStatus) {
	switch {
	case in.Executed:
		return StatusApproved, ProposalExecuted
	case in.beforeWindow():
		return StatusPending, ProposalPending
	case in.afterWindow():
		if !in.CountReached {
			return StatusRejected, ProposalRejected
		}
		return StatusApproved, ProposalExpired
	case in.CountReached:
		return StatusApproved, ProposalActive
	default:
		return StatusActive, ProposalActive
	}
}

// EmergencyApprovalStatus classifies an emergency approval stage. Signaling
// proposals (no attached on-chain actions) terminate in Accepted instead of
// Expired/Active once the threshold is reached.
func EmergencyApprovalStatus(in WindowInput) (Status, ProposalStatus) {
	switch {
	case in.Executed:
		return StatusApproved, ProposalExecuted
	case in.beforeWindow():
		return StatusPending, ProposalPending
	case in.afterWindow():
		if !in.CountReached {
			return StatusRejected, ProposalRejected
		}
		if in.IsSignaling {
			return StatusApproved, ProposalAccepted
		}
		return StatusApproved, ProposalExpired
	case in.CountReached:
		if in.IsSignaling {
			return StatusApproved, ProposalAccepted
		}
		return StatusApproved, ProposalActive
	default:
		return StatusActive, ProposalActive
	}
}

// ConfirmationStatus classifies a council confirmation stage. A zero start
// date means the confirmation window has not opened: the stage is omitted,
// not marked pending, so ok is false. Before the window opens the overall
// status reads Active so a pending confirmation does not mask an active
// approval.
func ConfirmationStatus(in WindowInput) (st Status, overall ProposalStatus, ok bool) {
	if in.StartDate.IsZero() {
		return StatusUnknown, ProposalUnknown, false
	}

	switch {
	case in.Executed:
		return StatusApproved, ProposalExecuted, true
	case in.beforeWindow():
		return StatusPending, ProposalActive, true
	case in.afterWindow():
		if !in.CountReached {
			return StatusRejected, ProposalRejected, true
		}
		if in.IsSignaling {
			return StatusApproved, ProposalAccepted, true
		}
		return StatusApproved, ProposalExpired, true
	case in.CountReached:
		if in.IsSignaling {
			return StatusApproved, ProposalAccepted, true
		}
		return StatusApproved, ProposalActive, true
	default:
		return StatusActive, ProposalActive, true
	}
}

// CommunityVotingStatus classifies an off-chain voting stage from the
// provider state and the summed weighted yes/no votes. Acceptance requires a
// strict yes > no: ties and empty votes reject.
func CommunityVotingStatus(state string, yes, no decimal.Decimal) (Status, ProposalStatus) {
	switch state {
	case "active":
		return StatusActive, ProposalActive
	case "pending":
		return StatusPending, ProposalPending
	default:
		if yes.GreaterThan(no) {
			return StatusAccepted, ProposalAccepted
		}
		return StatusRejected, ProposalRejected
	}
}

// overallPrecedence is the stage precedence of the proposal-level status
// fold, strongest first.
var overallPrecedence = []Type{
	TypeCouncilConfirmation,
	TypeCommunityVoting,
	TypeCouncilApproval,
	TypeDraft,
	TypeTransparencyReport,
}

// Overall resolves the proposal status of a bound stage group: the overall
// status of the highest-precedence stage that has one assigned.
func Overall(stages []Stage) ProposalStatus {
	for _, t := range overallPrecedence {
		st, found := lo.Find(stages, func(s Stage) bool {
			return s.Type == t && s.OverallStatus != ProposalUnknown
		})
		if found {
			return st.OverallStatus
		}
	}

	return ProposalPending
}

// CurrentType selects the stage type that governs "what is happening now":
// the last canonically-ordered stage whose status is Active, else the last
// stage. forceDraft enables the historical-data shim that pins the current
// stage to Draft when the group holds only Draft and CommunityVoting, since
// community voting cannot legitimately start without a council approval.
func CurrentType(stages []Stage, forceDraft bool) Type {
	if len(stages) == 0 {
		return TypeDraft
	}

	sorted := Sort(stages)

	if forceDraft && draftVotingOnly(sorted) {
		return TypeDraft
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Status == StatusActive {
			return sorted[i].Type
		}
	}

	return sorted[len(sorted)-1].Type
}

func draftVotingOnly(stages []Stage) bool {
	types := lo.Uniq(lo.Map(stages, func(s Stage, _ int) Type { return s.Type }))
	if len(types) != 2 {
		return false
	}

	return lo.Contains(types, TypeDraft) && lo.Contains(types, TypeCommunityVoting)
}

// Sort returns a copy of the group in canonical stage order.
func Sort(stages []Stage) []Stage {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Type.Order() < sorted[j].Type.Order()
	})

	return sorted
}
