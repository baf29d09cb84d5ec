package elevation

import (
	"context"
	"image"
	"log"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"golang.org/x/sync/errgroup"
)

const (
	TerrainZoom        = maptile.Zoom(14)
	defaultTileWorkers = 4
)

// TileSource serves terrain-RGB tiles.
type TileSource interface {
	TerrainTile(ctx context.Context, t maptile.Tile) (image.Image, error)
}

// TerrainRGB reads elevations from terrain-RGB raster tiles, fetching each
// distinct tile once per batch.
type TerrainRGB struct {
	tiles   TileSource
	zoom    maptile.Zoom
	workers int
}

func NewTerrainRGB(tiles TileSource, workers int) *TerrainRGB {
	if workers <= 0 {
		workers = defaultTileWorkers
	}
	return &TerrainRGB{tiles: tiles, zoom: TerrainZoom, workers: workers}
}

func (p *TerrainRGB) Lookup(ctx context.Context, points []orb.Point) ([]Reading, error) {
	out := missingReadings(points)

	byTile := map[maptile.Tile][]int{}
	for i, pt := range points {
		t := maptile.At(pt, p.zoom)
		byTile[t] = append(byTile[t], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for tile, idx := range byTile {
		tile, idx := tile, idx
		g.Go(func() error {
			img, err := p.tiles.TerrainTile(gctx, tile)
			if err != nil {
				if gctx.Err() == nil {
					log.Printf("elevation: tile %d/%d/%d failed: %v", tile.Z, tile.X, tile.Y, err)
				}
				return nil
			}
			// each goroutine owns a disjoint set of indices
			for _, i := range idx {
				out[i].Elevation = pixelElevation(img, tile, points[i])
				out[i].Missing = false
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func pixelElevation(img image.Image, t maptile.Tile, p orb.Point) float64 {
	b := img.Bounds()
	frac := maptile.Fraction(p, t.Z)
	x := b.Min.X + clamp(int((frac[0]-float64(t.X))*float64(b.Dx())), b.Dx())
	y := b.Min.Y + clamp(int((frac[1]-float64(t.Y))*float64(b.Dy())), b.Dy())
	r, g, bl, _ := img.At(x, y).RGBA()
	return DecodeRGB(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// DecodeRGB converts a terrain-RGB pixel to whole meters.
func DecodeRGB(r, g, b uint8) float64 {
	return math.Round(-10000 + (float64(r)*65536+float64(g)*256+float64(b))*0.1)
}
