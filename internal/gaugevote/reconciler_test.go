package gaugevote

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	votingContract = common.HexToAddress("0x1000000000000000000000000000000000000001")
	gaugeA         = common.HexToAddress("0x2000000000000000000000000000000000000002")
	gaugeB         = common.HexToAddress("0x3000000000000000000000000000000000000003")
	alice          = common.HexToAddress("0x4000000000000000000000000000000000000004")
	bob            = common.HexToAddress("0x5000000000000000000000000000000000000005")
	stakingProxy   = common.HexToAddress("0x6000000000000000000000000000000000000006")
)

// pagedProvider serves a fixed event set with real pagination semantics:
// each page starts at FromBlock, so continuing from the last returned block
// repeats that block's entries at page boundaries.
type pagedProvider struct {
	events map[EventName][]Event
	calls  int
}

func (p *pagedProvider) FetchPage(_ context.Context, q EventQuery) ([]Event, error) {
	p.calls++

	var page []Event
	for _, e := range p.events[q.Name] {
		if e.BlockNumber < q.FromBlock || e.BlockNumber > q.ToBlock {
			continue
		}

		page = append(page, e)
		if len(page) == q.PageSize {
			break
		}
	}

	return page, nil
}

func event(name EventName, voter common.Address, gauge common.Address, token string, block uint64, logIdx uint, ts uint64, votes int64) Event {
	return Event{
		Name:            name,
		TokenID:         token,
		Voter:           voter,
		Gauge:           gauge,
		Epoch:           1,
		VotingContract:  votingContract,
		Timestamp:       ts,
		LogIndex:        logIdx,
		BlockNumber:     block,
		TransactionHash: common.HexToHash(fmt.Sprintf("0x%x", uint64(block)*1000+uint64(logIdx))),
		Votes:           decimal.NewFromInt(votes),
	}
}

func reconcile(t *testing.T, provider EventProvider, pageSize int) []Event {
	t.Helper()

	r := NewReconciler(provider, pageSize)
	events, err := r.Reconcile(context.Background(), votingContract, nil, nil, 0, 1000)
	require.NoError(t, err)

	return events
}

func TestUnitReconcileLatestResetDropsKey(t *testing.T) {
	provider := &pagedProvider{events: map[EventName][]Event{
		EventVoted: {
			event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
			event(EventVoted, alice, gaugeA, "7", 20, 0, 200, 60),
		},
		EventReset: {
			event(EventReset, alice, gaugeA, "7", 30, 0, 300, 0),
		},
	}}

	events := reconcile(t, provider, 100)
	require.Empty(t, events)
}

func TestUnitReconcileRevoteAfterResetSurvives(t *testing.T) {
	provider := &pagedProvider{events: map[EventName][]Event{
		EventVoted: {
			event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
			event(EventVoted, alice, gaugeA, "7", 30, 0, 300, 75),
		},
		EventReset: {
			event(EventReset, alice, gaugeA, "7", 20, 0, 200, 0),
		},
	}}

	events := reconcile(t, provider, 100)
	require.Len(t, events, 1)
	require.Equal(t, EventVoted, events[0].Name)
	require.Equal(t, decimal.NewFromInt(75), events[0].Votes)
}

func TestUnitReconcileTimestampTieBreaksOnLogIndex(t *testing.T) {
	provider := &pagedProvider{events: map[EventName][]Event{
		EventVoted: {
			event(EventVoted, alice, gaugeA, "7", 10, 1, 100, 40),
		},
		EventReset: {
			event(EventReset, alice, gaugeA, "7", 10, 3, 100, 0),
		},
	}}

	events := reconcile(t, provider, 100)
	require.Empty(t, events)
}

func TestUnitReconcileInfersResetVoter(t *testing.T) {
	// The reset was triggered through the staking contract, but the token
	// owner was learned from the earlier Voted event.
	provider := &pagedProvider{events: map[EventName][]Event{
		EventVoted: {
			event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50),
			event(EventVoted, bob, gaugeB, "9", 15, 0, 150, 30),
		},
		EventReset: {
			event(EventReset, stakingProxy, gaugeA, "7", 20, 0, 200, 0),
		},
	}}

	events := reconcile(t, provider, 100)
	require.Len(t, events, 1)
	require.Equal(t, bob, events[0].Voter)
	require.Equal(t, gaugeB, events[0].Gauge)
}

func TestUnitReconcileIdempotentUnderPagination(t *testing.T) {
	var all []Event
	for block := uint64(1); block <= 30; block++ {
		all = append(all, event(EventVoted, alice, gaugeA, fmt.Sprintf("%d", block), block, 0, block*10, 5))
	}

	provider := &pagedProvider{events: map[EventName][]Event{EventVoted: all}}

	// Small pages force boundary re-reads; the reconciled set must match a
	// single-page run exactly.
	paged := reconcile(t, provider, 7)
	single := reconcile(t, &pagedProvider{events: map[EventName][]Event{EventVoted: all}}, 1000)

	require.Equal(t, len(single), len(paged))
	require.Equal(t, single, paged)

	again := reconcile(t, provider, 7)
	require.Equal(t, paged, again)
}

func TestUnitReconcileEpochFilter(t *testing.T) {
	early := event(EventVoted, alice, gaugeA, "7", 10, 0, 100, 50)
	early.Epoch = 1
	late := event(EventVoted, bob, gaugeA, "9", 20, 0, 200, 30)
	late.Epoch = 2

	provider := &pagedProvider{events: map[EventName][]Event{EventVoted: {early, late}}}

	r := NewReconciler(provider, 100)
	epoch := uint64(2)
	events, err := r.Reconcile(context.Background(), votingContract, nil, &epoch, 0, 1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "9", events[0].TokenID)
}

func TestUnitReconcileSweepsPastFullBlock(t *testing.T) {
	// Block 10 fills a whole page by itself; the sweep must continue into
	// the later blocks of the range instead of stopping there.
	var all []Event
	for i := uint(0); i < 5; i++ {
		all = append(all, event(EventVoted, alice, gaugeA, fmt.Sprintf("%d", i), 10, i, 100+uint64(i), 5))
	}
	all = append(all, event(EventVoted, bob, gaugeB, "9", 50, 0, 500, 30))

	provider := &pagedProvider{events: map[EventName][]Event{EventVoted: all}}

	events := reconcile(t, provider, 5)
	require.Len(t, events, 6)
	require.Equal(t, uint64(50), events[5].BlockNumber)
	require.Equal(t, bob, events[5].Voter)
}
