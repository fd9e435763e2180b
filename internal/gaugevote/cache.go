package gaugevote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SummaryCache keeps derived summaries in redis for a short TTL. Summaries
// are a cache of the chain, never the source of truth, so any redis failure
// degrades to a recompute instead of an error.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *SummaryCache) Get(ctx context.Context, key string) ([]Summary, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("summary cache get")
		}

		return nil, false
	}

	var summaries []Summary
	if err := json.Unmarshal(raw, &summaries); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("summary cache decode")

		return nil, false
	}

	return summaries, true
}

func (c *SummaryCache) Set(ctx context.Context, key string, summaries []Summary) {
	raw, err := json.Marshal(summaries)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("summary cache encode")

		return
	}

	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("summary cache set")
	}
}

// CacheKey is deterministic in the gauge set: order of requested gauges
// does not change the key.
func CacheKey(contract common.Address, gauges []common.Address, epoch *uint64) string {
	hexes := make([]string, 0, len(gauges))
	for _, gauge := range gauges {
		hexes = append(hexes, strings.ToLower(gauge.Hex()))
	}
	sort.Strings(hexes)

	scope := "all"
	if epoch != nil {
		scope = fmt.Sprintf("%d", *epoch)
	}

	return fmt.Sprintf("gauge-votes:%s:%s:%s", strings.ToLower(contract.Hex()), scope, strings.Join(hexes, ","))
}
