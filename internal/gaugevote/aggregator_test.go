package gaugevote

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeMetadata struct {
	titles map[common.Address]string
}

func (f *fakeMetadata) GaugeTitle(_ context.Context, gauge common.Address) (string, error) {
	title, ok := f.titles[gauge]
	if !ok {
		return "", errors.New("metadata lookup failed")
	}

	return title, nil
}

func TestUnitAggregateVoterHoldsMultipleTokens(t *testing.T) {
	events := []Event{
		event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
		event(EventVoted, alice, gaugeA, "8", 11, 0, 110, 25),
		event(EventVoted, bob, gaugeA, "9", 12, 0, 120, 30),
		event(EventVoted, bob, gaugeB, "10", 13, 0, 130, 40),
	}

	summaries := Aggregate(events, nil)
	require.Len(t, summaries, 2)

	var forA Summary
	for _, s := range summaries {
		if s.Gauge == gaugeA {
			forA = s
		}
	}

	require.Equal(t, decimal.NewFromInt(105), forA.TotalVotes)
	require.Len(t, forA.Votes, 2)
	require.Equal(t, alice, forA.Votes[0].Voter)
	require.Equal(t, decimal.NewFromInt(75), forA.Votes[0].Votes)
	require.Equal(t, decimal.NewFromInt(30), forA.Votes[1].Votes)
}

func TestUnitAggregateOrderInsensitive(t *testing.T) {
	forward := []Event{
		event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
		event(EventVoted, bob, gaugeA, "9", 12, 0, 120, 30),
		event(EventVoted, bob, gaugeB, "10", 13, 0, 130, 40),
	}
	// The reconciler sorts by (block, logIndex) before the fold, so totals
	// must not depend on arrival order.
	reversed := []Event{forward[2], forward[1], forward[0]}

	a := Aggregate(dedupe(forward), nil)
	b := Aggregate(dedupe(reversed), nil)

	require.Equal(t, a, b)
}

func TestUnitEnrichTitlesIsolatesFailures(t *testing.T) {
	summaries := Aggregate([]Event{
		event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
		event(EventVoted, bob, gaugeB, "10", 13, 0, 130, 40),
	}, nil)

	provider := &fakeMetadata{titles: map[common.Address]string{
		gaugeB: "Stable pool",
	}}

	EnrichTitles(context.Background(), provider, summaries)

	byGauge := make(map[common.Address]string)
	for _, s := range summaries {
		byGauge[s.Gauge] = s.Title
	}

	require.Equal(t, PlaceholderTitle, byGauge[gaugeA])
	require.Equal(t, "Stable pool", byGauge[gaugeB])
}
