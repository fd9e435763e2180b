package gaugevote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *SummaryCache {
	t.Helper()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})

	return NewSummaryCache(rdb, time.Minute)
}

func TestUnitSummaryCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	summaries := []Summary{
		{
			Gauge:      gaugeA,
			Title:      "Volatile pool",
			TotalVotes: decimal.NewFromInt(105),
			Votes: []VoterVotes{
				{Voter: alice, Votes: decimal.NewFromInt(75)},
				{Voter: bob, Votes: decimal.NewFromInt(30)},
			},
		},
	}

	key := CacheKey(votingContract, []common.Address{gaugeA}, nil)

	_, ok := cache.Get(ctx, key)
	require.False(t, ok)

	cache.Set(ctx, key, summaries)

	cached, ok := cache.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, cached, 1)
	require.Equal(t, summaries[0].Gauge, cached[0].Gauge)
	require.True(t, summaries[0].TotalVotes.Equal(cached[0].TotalVotes))
}

func TestUnitCacheKeyIgnoresGaugeOrder(t *testing.T) {
	epoch := uint64(3)

	a := CacheKey(votingContract, []common.Address{gaugeA, gaugeB}, &epoch)
	b := CacheKey(votingContract, []common.Address{gaugeB, gaugeA}, &epoch)
	all := CacheKey(votingContract, []common.Address{gaugeA, gaugeB}, nil)

	require.Equal(t, a, b)
	require.NotEqual(t, a, all)
	require.Contains(t, all, ":all:")
}
