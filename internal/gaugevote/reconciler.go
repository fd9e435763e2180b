package gaugevote

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// EventQuery describes one page request for one event kind.
type EventQuery struct {
	VotingContract common.Address
	Gauges         []common.Address
	Name           EventName
	FromBlock      uint64
	ToBlock        uint64
	PageSize       int
}

// EventProvider returns one page of events ordered by (blockNumber,
// logIndex): at most PageSize entries starting at FromBlock.
type EventProvider interface {
	FetchPage(ctx context.Context, q EventQuery) ([]Event, error)
}

// Reconciler reconstructs the canonical event set of a voting contract from
// paginated, possibly-duplicated log queries.
type Reconciler struct {
	provider EventProvider
	pageSize int
}

func NewReconciler(provider EventProvider, pageSize int) *Reconciler {
	return &Reconciler{
		provider: provider,
		pageSize: pageSize,
	}
}

// Reconcile fetches Voted and Reset events concurrently, removes page
// boundary duplicates, substitutes inferred voters and resolves each
// (token, contract, gauge) key to its latest standing vote. epoch of nil
// means all epochs.
func (r *Reconciler) Reconcile(ctx context.Context, contract common.Address, gauges []common.Address, epoch *uint64, fromBlock, toBlock uint64) ([]Event, error) {
	kinds := []EventName{EventVoted, EventReset}
	pages := make([][]Event, len(kinds))

	eg, groupCtx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		i, kind := i, kind
		eg.Go(func() error {
			events, err := r.fetchAll(groupCtx, EventQuery{
				VotingContract: contract,
				Gauges:         gauges,
				Name:           kind,
				FromBlock:      fromBlock,
				ToBlock:        toBlock,
				PageSize:       r.pageSize,
			})
			if err != nil {
				return fmt.Errorf("fetch %s events: %w", kind, err)
			}

			pages[i] = events

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := dedupe(append(pages[0], pages[1]...))

	if epoch != nil {
		filtered := merged[:0]
		for _, e := range merged {
			if e.Epoch == *epoch {
				filtered = append(filtered, e)
			}
		}
		merged = filtered
	}

	return latestWins(inferVoters(merged)), nil
}

// fetchAll pages through one event kind. The cursor continues from the
// block of the last returned entry, so page boundaries can repeat entries;
// dedupe removes them afterwards.
func (r *Reconciler) fetchAll(ctx context.Context, q EventQuery) ([]Event, error) {
	var all []Event

	cursor := q.FromBlock
	for {
		q.FromBlock = cursor

		page, err := r.provider.FetchPage(ctx, q)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < q.PageSize {
			break
		}

		next := page[len(page)-1].BlockNumber
		if next == cursor {
			// A full page inside a single block cannot advance by
			// re-reading it: the provider returns the same entries
			// again. Step past the exhausted block and keep sweeping
			// the rest of the range.
			cursor = next + 1

			continue
		}

		cursor = next
	}

	return all, nil
}

// dedupe removes exact duplicates by (transactionHash, logIndex) and
// returns the set in deterministic (block, logIndex) order.
func dedupe(events []Event) []Event {
	type logKey struct {
		tx  common.Hash
		idx uint
	}

	seen := make(map[logKey]struct{}, len(events))
	out := make([]Event, 0, len(events))

	for _, e := range events {
		k := logKey{tx: e.TransactionHash, idx: e.LogIndex}
		if _, dup := seen[k]; dup {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})

	return out
}

// inferVoters rebuilds the true owner of every event. The voter field of a
// Reset can be a delegate or staking contract when the reset was triggered
// indirectly, but a Voted event always carries the real owner for its
// token, so tokenId -> voter learned from Voted events is substituted onto
// every event before folding.
func inferVoters(events []Event) []Event {
	owners := make(map[string]common.Address)
	for _, e := range events {
		if e.Name == EventVoted {
			owners[e.TokenID] = e.Voter
		}
	}

	out := make([]Event, len(events))
	for i, e := range events {
		if owner, ok := owners[e.TokenID]; ok {
			e.Voter = owner
		}
		out[i] = e
	}

	return out
}

type voteKey struct {
	tokenID  string
	contract common.Address
	gauge    common.Address
}

// latestWins resolves each (tokenId, votingContract, gauge) key to the
// event with the greatest timestamp, ties broken by greatest logIndex, and
// then drops every key whose winner is a Reset: a reset means the token has
// no standing vote for the gauge, not a vote of zero. The drop must happen
// after resolution, otherwise a token that reset and re-voted later would
// be lost.
func latestWins(events []Event) []Event {
	best := make(map[voteKey]Event, len(events))

	for _, e := range events {
		k := voteKey{tokenID: e.TokenID, contract: e.VotingContract, gauge: e.Gauge}

		cur, ok := best[k]
		if !ok || newer(e, cur) {
			best[k] = e
		}
	}

	out := make([]Event, 0, len(best))
	for _, e := range best {
		if e.Name == EventReset {
			continue
		}

		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].LogIndex < out[j].LogIndex
	})

	return out
}

func newer(a, b Event) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}

	return a.LogIndex > b.LogIndex
}
