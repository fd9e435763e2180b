package proposal

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/govhub-labs/govstate-storage/internal/stage"
)

// idPrecedence resolves the canonical proposal id from stage external keys.
var idPrecedence = []stage.Type{
	stage.TypeDraft,
	stage.TypeTransparencyReport,
	stage.TypeCouncilApproval,
	stage.TypeCommunityVoting,
}

// contentPrecedence resolves title/description/body from the first present
// stage.
var contentPrecedence = []stage.Type{
	stage.TypeCouncilApproval,
	stage.TypeDraft,
	stage.TypeTransparencyReport,
	stage.TypeCommunityVoting,
}

// Assembler folds a bound stage group into one Proposal aggregate.
type Assembler struct {
	forceDraftShim bool
}

func NewAssembler(forceDraftShim bool) *Assembler {
	return &Assembler{
		forceDraftShim: forceDraftShim,
	}
}

func (a *Assembler) Assemble(group []stage.Stage) Proposal {
	sorted := dedupeResources(stage.Sort(group))

	p := Proposal{
		ID:           resolveID(sorted),
		Status:       stage.Overall(sorted),
		CurrentStage: stage.CurrentType(sorted, a.forceDraftShim),
		Publisher:    resolvePublisher(sorted),
		Resources:    unionResources(sorted),
		AuthoredAt:   earliestAuthored(sorted),
	}

	if content, ok := firstOfTypes(sorted, contentPrecedence); ok {
		p.Title = content.Title
		p.Description = content.Description
		p.Body = content.Body
	}

	if approval, ok := firstOfTypes(sorted, []stage.Type{stage.TypeCouncilApproval}); ok {
		p.IsEmergency = approval.IsEmergency
		p.Actions = Actions(approval.Actions)
	}

	p.Stages = make([]Stage, 0, len(sorted))
	for i, s := range sorted {
		p.Stages = append(p.Stages, toStageRow(p.ID, i, s))
	}

	return p
}

func firstOfTypes(stages []stage.Stage, precedence []stage.Type) (stage.Stage, bool) {
	for _, t := range precedence {
		if s, ok := lo.Find(stages, func(s stage.Stage) bool { return s.Type == t }); ok {
			return s, true
		}
	}

	return stage.Stage{}, false
}

func resolveID(stages []stage.Stage) string {
	for _, t := range idPrecedence {
		if s, ok := lo.Find(stages, func(s stage.Stage) bool { return s.Type == t && s.ExternalKey != "" }); ok {
			return s.ExternalKey
		}
	}

	// No stage carries an external key. Keep the stored primary key unique
	// while presenting "unknown" semantics.
	h := sha1.New()
	for _, s := range stages {
		h.Write([]byte(s.Title))
		h.Write([]byte(s.Link))
	}

	return "unknown-" + hex.EncodeToString(h.Sum(nil))[:8]
}

// resolvePublisher applies the publisher precedence: the council creator
// for emergency proposals, otherwise the draft author with the council
// creator as fallback. The result is never empty.
func resolvePublisher(stages []stage.Stage) Publishers {
	approval, hasApproval := firstOfTypes(stages, []stage.Type{stage.TypeCouncilApproval})
	draft, hasDraft := firstOfTypes(stages, []stage.Type{stage.TypeDraft})

	var creators []stage.Creator
	switch {
	case hasApproval && approval.IsEmergency:
		creators = approval.Creators
	case hasDraft && len(draft.Creators) > 0:
		creators = draft.Creators
	case hasApproval:
		creators = approval.Creators
	}

	if len(creators) == 0 {
		return Publishers{UnknownPublisher}
	}

	return lo.Map(creators, func(c stage.Creator, _ int) Publisher {
		return Publisher{Name: c.Name, Link: c.Link}
	})
}

// unionResources merges stage resources keyed by case-insensitive name;
// later stages in canonical order overwrite earlier ones.
func unionResources(stages []stage.Stage) Resources {
	byName := make(map[string]int)

	var union []stage.Resource
	for _, s := range stages {
		for _, res := range s.Resources {
			key := strings.ToLower(res.Name)
			if idx, seen := byName[key]; seen {
				union[idx] = res

				continue
			}

			byName[key] = len(union)
			union = append(union, res)
		}
	}

	return Resources(union)
}

// dedupeResources strips from earlier stages the resources whose names are
// claimed again by later stages.
func dedupeResources(sorted []stage.Stage) []stage.Stage {
	claimed := make(map[string]struct{})

	out := make([]stage.Stage, len(sorted))
	copy(out, sorted)

	for i := len(out) - 1; i >= 0; i-- {
		kept := make([]stage.Resource, 0, len(out[i].Resources))
		for _, res := range out[i].Resources {
			key := strings.ToLower(res.Name)
			if _, taken := claimed[key]; taken {
				continue
			}

			claimed[key] = struct{}{}
			kept = append(kept, res)
		}

		out[i].Resources = kept
	}

	return out
}

func earliestAuthored(stages []stage.Stage) time.Time {
	var earliest time.Time
	for _, s := range stages {
		if s.CreatedAt.IsZero() {
			continue
		}

		if earliest.IsZero() || s.CreatedAt.Before(earliest) {
			earliest = s.CreatedAt
		}
	}

	return earliest
}
