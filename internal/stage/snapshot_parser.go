package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/govhub-labs/govstate-storage/pkg/sdk/snapshot"
)

const (
	ChoiceYes = "yes"
	ChoiceNo  = "no"
)

// choiceSynonyms maps provider free-text choice labels onto the normalized
// yes/no domain. Unknown labels pass through unchanged.
var choiceSynonyms = map[string]string{
	"accept":  ChoiceYes,
	"yes":     ChoiceYes,
	"approve": ChoiceYes,
	"for":     ChoiceYes,
	"yay":     ChoiceYes,
	"reject":  ChoiceNo,
	"no":      ChoiceNo,
	"deny":    ChoiceNo,
	"against": ChoiceNo,
	"nay":     ChoiceNo,
	"veto":    ChoiceNo,
}

func NormalizeChoice(label string) string {
	if normalized, ok := choiceSynonyms[strings.ToLower(strings.TrimSpace(label))]; ok {
		return normalized
	}

	return label
}

type VotingClient interface {
	GetProposals(ctx context.Context, space string) ([]snapshot.Proposal, error)
	GetProposal(ctx context.Context, id string) (*snapshot.Proposal, error)
}

// SnapshotParser turns off-chain voting records into CommunityVoting stages.
type SnapshotParser struct {
	client VotingClient
	space  string
}

func NewSnapshotParser(client VotingClient, space string) *SnapshotParser {
	return &SnapshotParser{
		client: client,
		space:  space,
	}
}

func (p *SnapshotParser) FetchStages(ctx context.Context) ([]Stage, error) {
	records, err := p.client.GetProposals(ctx, p.space)
	if err != nil {
		return nil, fmt.Errorf("get proposals for %s: %w", p.space, err)
	}

	stages := make([]Stage, 0, len(records))
	for _, rec := range records {
		st, ok := p.toStage(rec)
		if !ok {
			log.Warn().Str("id", rec.ID).Msg("skip malformed voting record")

			continue
		}

		stages = append(stages, st)
	}

	return stages, nil
}

// FetchStage returns a single CommunityVoting stage by its provider id.
func (p *SnapshotParser) FetchStage(ctx context.Context, id string) (*Stage, error) {
	rec, err := p.client.GetProposal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get proposal %s: %w", id, err)
	}

	st, ok := p.toStage(*rec)
	if !ok {
		return nil, fmt.Errorf("malformed voting record %s", id)
	}

	return &st, nil
}

func (p *SnapshotParser) toStage(rec snapshot.Proposal) (Stage, bool) {
	if rec.ID == "" || len(rec.Choices) == 0 {
		return Stage{}, false
	}

	scores := make([]Score, 0, len(rec.Choices))
	var yes, no decimal.Decimal
	for i, choice := range rec.Choices {
		weight := decimal.Zero
		if i < len(rec.Scores) {
			weight = decimal.NewFromFloat(rec.Scores[i])
		}

		normalized := NormalizeChoice(choice)
		switch normalized {
		case ChoiceYes:
			yes = yes.Add(weight)
		case ChoiceNo:
			no = no.Add(weight)
		}

		scores = append(scores, Score{Choice: normalized, Weight: weight})
	}

	status, overall := CommunityVotingStatus(rec.State, yes, no)

	var creators []Creator
	if rec.Author != "" {
		creators = append(creators, Creator{Name: rec.Author})
	}

	st := Stage{
		Type:          TypeCommunityVoting,
		ExternalKey:   rec.ID,
		Link:          rec.Link,
		Title:         rec.Title,
		Body:          rec.Body,
		Status:        status,
		OverallStatus: overall,
		Creators:      creators,
		Resources: []Resource{
			{Name: "Community voting", Link: rec.Link},
		},
		Voting: &Voting{
			ProviderID:    rec.ID,
			StartDate:     unixTime(rec.Start),
			EndDate:       unixTime(rec.End),
			Quorum:        decimal.NewFromFloat(rec.Quorum),
			Scores:        scores,
			TotalVotes:    rec.Votes,
			SnapshotBlock: rec.Snapshot,
		},
		CreatedAt: unixTime(rec.Start),
	}

	return st, true
}
