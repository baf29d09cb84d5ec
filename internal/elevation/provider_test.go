package elevation

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTiles struct {
	mu    sync.Mutex
	fetch map[maptile.Tile]int
	fail  map[maptile.Tile]bool
	px    color.RGBA
}

func (s *stubTiles) TerrainTile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	s.mu.Lock()
	s.fetch[t]++
	s.mu.Unlock()
	if s.fail[t] {
		return nil, errors.New("tile unavailable")
	}
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: s.px}, image.Point{}, draw.Src)
	return img, nil
}

func TestDecodeRGB(t *testing.T) {
	assert.Equal(t, 0.0, DecodeRGB(1, 134, 160))
	assert.Equal(t, 120.0, DecodeRGB(1, 139, 80))
}

func TestTerrainRGBFetchesEachTileOnce(t *testing.T) {
	a := orb.Point{144.90, -37.80}
	b := orb.Point{144.9001, -37.8001}
	far := orb.Point{145.50, -37.50}
	tiles := &stubTiles{fetch: map[maptile.Tile]int{}, px: color.RGBA{R: 1, G: 139, B: 80, A: 255}}

	readings, err := NewTerrainRGB(tiles, 2).Lookup(context.Background(), []orb.Point{a, b, far})
	require.NoError(t, err)
	require.Len(t, tiles.fetch, 2)
	for tile, n := range tiles.fetch {
		assert.Equal(t, 1, n, "tile %v", tile)
	}
	for i, r := range readings {
		assert.False(t, r.Missing, "reading %d", i)
		assert.Equal(t, 120.0, r.Elevation, "reading %d", i)
	}
}

func TestTerrainRGBTileFailureMarksMissing(t *testing.T) {
	a := orb.Point{144.90, -37.80}
	far := orb.Point{145.50, -37.50}
	tiles := &stubTiles{
		fetch: map[maptile.Tile]int{},
		fail:  map[maptile.Tile]bool{maptile.At(far, TerrainZoom): true},
		px:    color.RGBA{R: 1, G: 139, B: 80, A: 255},
	}

	readings, err := NewTerrainRGB(tiles, 0).Lookup(context.Background(), []orb.Point{a, far})
	require.NoError(t, err)
	assert.False(t, readings[0].Missing)
	assert.True(t, readings[1].Missing)
	assert.Equal(t, 0.0, readings[1].Elevation)
}

func TestTerrainRGBCancelled(t *testing.T) {
	tiles := &stubTiles{fetch: map[maptile.Tile]int{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTerrainRGB(tiles, 1).Lookup(ctx, []orb.Point{{1, 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

type stubSRTM map[float64]float64

func (s stubSRTM) GetElevation(_ *http.Client, lat, _ float64) (float64, error) {
	e, ok := s[lat]
	if !ok {
		return 0, errors.New("no tile")
	}
	return e, nil
}

func TestSRTMLookup(t *testing.T) {
	p := &SRTM{src: stubSRTM{-37.8: 42.4, -37.9: math.NaN()}}
	readings, err := p.Lookup(context.Background(), []orb.Point{{144.9, -37.8}, {144.9, -37.9}, {144.9, -38}})
	require.NoError(t, err)
	assert.False(t, readings[0].Missing)
	assert.Equal(t, 42.0, readings[0].Elevation)
	// NaN and lookup errors both count as missing
	assert.True(t, readings[1].Missing)
	assert.True(t, readings[2].Missing)
}

type countingProvider struct {
	calls  int
	points int
	miss   bool
}

func (c *countingProvider) Lookup(_ context.Context, pts []orb.Point) ([]Reading, error) {
	c.calls++
	c.points += len(pts)
	out := make([]Reading, len(pts))
	for i, p := range pts {
		out[i] = Reading{Point: p, Elevation: 100 + float64(i), Missing: c.miss}
	}
	return out, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedReadThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)

	next := &countingProvider{}
	c := NewCached(next, rdb, time.Hour)
	pts := []orb.Point{{144.9, -37.8}, {144.91, -37.81}}

	first, err := c.Lookup(context.Background(), pts)
	require.NoError(t, err)
	second, err := c.Lookup(context.Background(), pts)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 101.0, first[1].Elevation)
	assert.Equal(t, 101.0, second[1].Elevation)
	assert.Equal(t, time.Hour, mr.TTL(cacheKey(pts[0])))
}

func TestCachedSkipsMissing(t *testing.T) {
	mr, rdb := newTestRedis(t)

	next := &countingProvider{miss: true}
	c := NewCached(next, rdb, time.Hour)
	pts := []orb.Point{{144.9, -37.8}}

	for i := 0; i < 2; i++ {
		_, err := c.Lookup(context.Background(), pts)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.calls, "missing readings must not be cached")
	assert.False(t, mr.Exists(cacheKey(pts[0])))
}
