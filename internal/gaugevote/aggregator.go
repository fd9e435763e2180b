package gaugevote

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxMetadataFanOut bounds concurrent gauge metadata lookups.
const maxMetadataFanOut = 8

type MetadataProvider interface {
	GaugeTitle(ctx context.Context, gauge common.Address) (string, error)
}

// Aggregate is a pure fold of a reconciled event set into per-gauge
// summaries. A voter may hold multiple tokens voting the same gauge: the
// first occurrence creates the voter entry, later ones add to it. All vote
// math stays in fixed-precision decimals.
func Aggregate(events []Event, epoch *uint64) []Summary {
	byGauge := make(map[common.Address]*Summary)
	voterIdx := make(map[common.Address]map[common.Address]int)

	var order []common.Address
	for _, e := range events {
		sum, ok := byGauge[e.Gauge]
		if !ok {
			sum = &Summary{
				Gauge:      e.Gauge,
				Title:      PlaceholderTitle,
				Epoch:      epoch,
				TotalVotes: decimal.Zero,
			}
			byGauge[e.Gauge] = sum
			voterIdx[e.Gauge] = make(map[common.Address]int)
			order = append(order, e.Gauge)
		}

		sum.TotalVotes = sum.TotalVotes.Add(e.Votes)

		if idx, seen := voterIdx[e.Gauge][e.Voter]; seen {
			sum.Votes[idx].Votes = sum.Votes[idx].Votes.Add(e.Votes)
		} else {
			voterIdx[e.Gauge][e.Voter] = len(sum.Votes)
			sum.Votes = append(sum.Votes, VoterVotes{Voter: e.Voter, Votes: e.Votes})
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return order[i].Hex() < order[j].Hex()
	})

	out := make([]Summary, 0, len(order))
	for _, gauge := range order {
		out = append(out, *byGauge[gauge])
	}

	return out
}

// EnrichTitles resolves gauge titles with bounded concurrent fan-out. One
// failed lookup leaves that gauge's placeholder in place and never blocks
// or fails the siblings.
func EnrichTitles(ctx context.Context, provider MetadataProvider, summaries []Summary) {
	sem := make(chan struct{}, maxMetadataFanOut)

	var wg sync.WaitGroup
	for i := range summaries {
		wg.Add(1)

		go func(sum *Summary) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			title, err := provider.GaugeTitle(ctx, sum.Gauge)
			if err != nil {
				log.Warn().Err(err).Str("gauge", sum.Gauge.Hex()).Msg("resolve gauge title")

				return
			}

			sum.Title = title
		}(&summaries[i])
	}

	wg.Wait()
}
