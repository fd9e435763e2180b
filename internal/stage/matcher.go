package stage

// Match partitions a pool of parsed stages into bound groups, one group per
// logical proposal. It is a pure function over the input: consumption is
// tracked in an explicit set and every candidate is attached to at most one
// group.
//
// Binding precedence per council approval stage:
//  1. Draft via the approval's draft binding, matched against the key the
//     Draft parser extracted from the draft's own canonical link. The
//     transparency report joins through the shared external key.
//  2. CommunityVoting via the off-chain voting resource link recorded on
//     the approval's resources.
//  3. CouncilConfirmation by construction: it is synthesized from the same
//     on-chain record and carries the approval's external key.
//
// Stages that never bind to an approval still surface as their own groups,
// since a governance action can exist in only the document-review phase.
func Match(stages []Stage) [][]Stage {
	pool := newPool(stages)

	var groups [][]Stage

	for _, ca := range pool.ofType(TypeCouncilApproval) {
		group := []Stage{pool.take(ca)}

		if conf, ok := pool.findByKey(TypeCouncilConfirmation, pool.get(ca).ExternalKey); ok {
			group = append(group, pool.take(conf))
		}

		if key, ok := draftBindingKey(pool.get(ca)); ok {
			if draft, found := pool.findByKey(TypeDraft, key); found {
				group = append(group, pool.take(draft))

				if report, reported := pool.findByKey(TypeTransparencyReport, key); reported {
					group = append(group, pool.take(report))
				}
			}
		}

		for _, res := range pool.get(ca).Resources {
			voting, found := pool.findByKey(TypeCommunityVoting, ExternalKeyFromLink(res.Link))
			if !found {
				continue
			}

			group = append(group, pool.take(voting))
			break
		}

		groups = append(groups, Sort(group))
	}

	// Orphan drafts keep their transparency report siblings through the
	// shared external key.
	for _, draft := range pool.ofType(TypeDraft) {
		group := []Stage{pool.take(draft)}

		if report, ok := pool.findByKey(TypeTransparencyReport, pool.get(draft).ExternalKey); ok {
			group = append(group, pool.take(report))
		}

		groups = append(groups, Sort(group))
	}

	for _, idx := range pool.remaining() {
		groups = append(groups, []Stage{pool.take(idx)})
	}

	return groups
}

func draftBindingKey(s Stage) (string, bool) {
	for _, b := range s.Bindings {
		if b.TargetType == TypeDraft && b.ExternalKey != "" {
			return b.ExternalKey, true
		}
	}

	return "", false
}

// pool indexes the input stages and tracks consumption.
type pool struct {
	stages   []Stage
	consumed map[int]struct{}
}

func newPool(stages []Stage) *pool {
	return &pool{
		stages:   stages,
		consumed: make(map[int]struct{}, len(stages)),
	}
}

func (p *pool) get(idx int) Stage {
	return p.stages[idx]
}

func (p *pool) take(idx int) Stage {
	p.consumed[idx] = struct{}{}
	return p.stages[idx]
}

func (p *pool) free(idx int) bool {
	_, taken := p.consumed[idx]
	return !taken
}

func (p *pool) ofType(t Type) []int {
	var idxs []int
	for i, s := range p.stages {
		if s.Type == t && p.free(i) {
			idxs = append(idxs, i)
		}
	}

	return idxs
}

func (p *pool) findByKey(t Type, key string) (int, bool) {
	if key == "" {
		return 0, false
	}

	for i, s := range p.stages {
		if s.Type == t && s.ExternalKey == key && p.free(i) {
			return i, true
		}
	}

	return 0, false
}

func (p *pool) remaining() []int {
	var idxs []int
	for i := range p.stages {
		if p.free(i) {
			idxs = append(idxs, i)
		}
	}

	return idxs
}
