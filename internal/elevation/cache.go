package elevation

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
)

// Cached is a read-through redis cache in front of another provider.
// Missing readings are never stored.
type Cached struct {
	next Provider
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCached(next Provider, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(p orb.Point) string {
	return fmt.Sprintf("elev:%.5f:%.5f", p.Lon(), p.Lat())
}

func (c *Cached) Lookup(ctx context.Context, points []orb.Point) ([]Reading, error) {
	if len(points) == 0 {
		return nil, nil
	}
	keys := make([]string, len(points))
	for i, p := range points {
		keys[i] = cacheKey(p)
	}

	out := make([]Reading, len(points))
	var missIdx []int
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("elevation cache: mget failed: %v", err)
		vals = make([]interface{}, len(points))
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			missIdx = append(missIdx, i)
			continue
		}
		e, err := strconv.ParseFloat(s, 64)
		if err != nil {
			missIdx = append(missIdx, i)
			continue
		}
		out[i] = Reading{Point: points[i], Elevation: e}
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	missPts := make([]orb.Point, len(missIdx))
	for j, i := range missIdx {
		missPts[j] = points[i]
	}
	fetched, err := c.next.Lookup(ctx, missPts)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for j, i := range missIdx {
		if j >= len(fetched) {
			out[i] = Reading{Point: points[i], Missing: true}
			continue
		}
		out[i] = fetched[j]
		if !fetched[j].Missing {
			pipe.Set(ctx, keys[i], strconv.FormatFloat(fetched[j].Elevation, 'f', -1, 64), c.ttl)
		}
	}
	if pipe.Len() > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("elevation cache: store failed: %v", err)
		}
	}
	return out, nil
}
