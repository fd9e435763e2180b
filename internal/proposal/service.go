package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/govhub-labs/govstate-storage/internal/stage"
)

var ErrSummaryUnavailable = errors.New("summary provider is not configured")

// StageSource is one stage provider: a document archive path, the off-chain
// voting service or the council multisig.
type StageSource interface {
	FetchStages(ctx context.Context) ([]stage.Stage, error)
}

// VotingSource re-fetches a single community voting stage for live reads.
type VotingSource interface {
	FetchStage(ctx context.Context, id string) (*stage.Stage, error)
}

type Service struct {
	repo      *Repo
	sources   []StageSource
	voting    VotingSource
	assembler *Assembler
	events    *Events
	ai        *AIClient

	now func() time.Time
}

func NewService(repo *Repo, sources []StageSource, voting VotingSource, assembler *Assembler, events *Events, ai *AIClient) *Service {
	return &Service{
		repo:      repo,
		sources:   sources,
		voting:    voting,
		assembler: assembler,
		events:    events,
		ai:        ai,
		now:       time.Now,
	}
}

func (s *Service) GetList(filters ...Filter) ([]Proposal, error) {
	return s.repo.GetList(filters...)
}

// GetByID serves the stored snapshot unless the governing stage is still
// inside its time window, in which case the off-chain voting stages are
// re-fetched and statuses re-derived. A failed refresh falls back to the
// snapshot rather than failing the read.
func (s *Service) GetByID(ctx context.Context, id string) (*Proposal, error) {
	stored, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !s.isLive(stored) {
		return stored, nil
	}

	refreshed, err := s.refresh(ctx, stored)
	if err != nil {
		log.Warn().Err(err).Str("proposal", stored.ID).Msg("live refresh failed, serving stored snapshot")

		return stored, nil
	}

	return refreshed, nil
}

// RebuildAll reconstructs every proposal from the three providers and
// replaces the stored snapshots.
func (s *Service) RebuildAll(ctx context.Context) error {
	var mu sync.Mutex
	var collected []stage.Stage

	eg, groupCtx := errgroup.WithContext(ctx)
	for _, src := range s.sources {
		src := src
		eg.Go(func() error {
			stages, err := src.FetchStages(groupCtx)
			if err != nil {
				return err
			}

			mu.Lock()
			collected = append(collected, stages...)
			mu.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("fetch stages: %w", err)
	}

	for _, group := range stage.Match(collected) {
		p := s.assembler.Assemble(group)

		stored, err := s.repo.GetByID(p.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Str("proposal", p.ID).Msg("load stored snapshot")

			continue
		}

		if err := s.repo.Upsert(&p); err != nil {
			log.Error().Err(err).Str("proposal", p.ID).Msg("store proposal snapshot")

			continue
		}

		if snapshotChanged(stored, &p) {
			s.events.PublishUpdated(&p)
		}
	}

	return nil
}

// snapshotChanged compares the serialized form of two snapshots. Row-level
// bookkeeping (stage uuids, positions, timestamps) is excluded from JSON,
// so only provider-derived state counts as a change.
func snapshotChanged(old, current *Proposal) bool {
	if old == nil {
		return true
	}

	before, err := json.Marshal(old)
	if err != nil {
		return true
	}

	after, err := json.Marshal(current)
	if err != nil {
		return true
	}

	return !bytes.Equal(before, after)
}

// GetAISummary returns the stored digest of a proposal body, generating and
// persisting it on first request.
func (s *Service) GetAISummary(ctx context.Context, id string) (string, error) {
	if s.ai == nil {
		return "", ErrSummaryUnavailable
	}

	sum, err := s.repo.GetSummary(id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("get summary from DB: %w", err)
	}

	if err == nil {
		return sum, nil
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("get proposal: %w", err)
	}

	body := p.Body
	if body == "" {
		body = p.Description
	}

	summary, err := s.ai.GetSummaryByDescription(ctx, body)
	if err != nil {
		return "", fmt.Errorf("get summary from OpenAI: %w", err)
	}

	if err := s.repo.CreateSummary(&AISummary{
		ProposalID: id,
		CreatedAt:  time.Now(),
		Summary:    summary,
	}); err != nil {
		return "", fmt.Errorf("create summary: %w", err)
	}

	return summary, nil
}

// isLive reports whether the governing stage is still inside its voting
// window, which is the only case where a read re-derives state.
func (s *Service) isLive(p *Proposal) bool {
	for _, row := range p.Stages {
		if row.Type != p.CurrentStage || row.Voting == nil {
			continue
		}

		return s.timeActive((*stage.Voting)(row.Voting))
	}

	return false
}

func (s *Service) timeActive(v *stage.Voting) bool {
	if v == nil || v.EndDate.IsZero() {
		return false
	}

	now := s.now()

	return !now.Before(v.StartDate) && !now.After(v.EndDate)
}

// refresh re-fetches the off-chain voting stages that are still time-active
// and re-derives time-dependent statuses of the on-chain stages. Stages
// outside their window keep the stored snapshot, bounding the cost of a
// live read to the active stages.
func (s *Service) refresh(ctx context.Context, stored *Proposal) (*Proposal, error) {
	domain := make([]stage.Stage, 0, len(stored.Stages))
	for _, row := range stored.Stages {
		domain = append(domain, toDomainStage(row))
	}

	for i, st := range domain {
		if st.Voting == nil || !s.timeActive(st.Voting) {
			continue
		}

		switch st.Type {
		case stage.TypeCommunityVoting:
			fresh, err := s.voting.FetchStage(ctx, st.Voting.ProviderID)
			if err != nil {
				return nil, fmt.Errorf("refresh voting stage %s: %w", st.Voting.ProviderID, err)
			}

			domain[i] = *fresh
		case stage.TypeCouncilApproval, stage.TypeCouncilConfirmation:
			domain[i] = s.rederiveStatus(st)
		}
	}

	refreshed := s.assembler.Assemble(domain)
	// Keep the stored identity: re-assembly must not fork the snapshot key.
	refreshed.ID = stored.ID
	for i := range refreshed.Stages {
		refreshed.Stages[i].ProposalID = stored.ID
	}

	if err := s.repo.Upsert(&refreshed); err != nil {
		log.Error().Err(err).Str("proposal", refreshed.ID).Msg("store refreshed snapshot")
	} else if snapshotChanged(stored, &refreshed) {
		s.events.PublishUpdated(&refreshed)
	}

	return &refreshed, nil
}

func (s *Service) rederiveStatus(st stage.Stage) stage.Stage {
	in := stage.WindowInput{
		Now:          s.now(),
		StartDate:    st.Voting.StartDate,
		EndDate:      st.Voting.EndDate,
		Executed:     st.Executed,
		CountReached: st.Voting.Approvals >= st.Voting.MinApprovals,
		IsSignaling:  st.IsSignaling,
	}

	switch {
	case st.Type == stage.TypeCouncilConfirmation:
		status, overall, ok := stage.ConfirmationStatus(in)
		if ok {
			st.Status, st.OverallStatus = status, overall
		}
	case st.IsEmergency:
		st.Status, st.OverallStatus = stage.EmergencyApprovalStatus(in)
	default:
		st.Status, st.OverallStatus = stage.ApprovalStatus(in)
	}

	return st
}
