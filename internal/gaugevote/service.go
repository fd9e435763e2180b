package gaugevote

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type HeadProvider interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

type Service struct {
	reconciler *Reconciler
	metadata   MetadataProvider
	head       HeadProvider
	cache      *SummaryCache

	startBlock uint64
}

func NewService(reconciler *Reconciler, metadata MetadataProvider, head HeadProvider, cache *SummaryCache, startBlock uint64) *Service {
	return &Service{
		reconciler: reconciler,
		metadata:   metadata,
		head:       head,
		cache:      cache,
		startBlock: startBlock,
	}
}

// GetGaugeVotes returns per-gauge summaries for a voting contract scoped to
// one epoch or all of them.
func (s *Service) GetGaugeVotes(ctx context.Context, contract common.Address, gauges []common.Address, epoch *uint64) ([]Summary, error) {
	key := CacheKey(contract, gauges, epoch)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	head, err := s.head.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve chain head: %w", err)
	}

	events, err := s.reconciler.Reconcile(ctx, contract, gauges, epoch, s.startBlock, head)
	if err != nil {
		return nil, fmt.Errorf("reconcile events: %w", err)
	}

	summaries := Aggregate(events, epoch)
	EnrichTitles(ctx, s.metadata, summaries)

	if s.cache != nil {
		s.cache.Set(ctx, key, summaries)
	}

	return summaries, nil
}
