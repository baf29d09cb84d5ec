package mapbox

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/paulmach/orb/maptile"
)

const terrainTileset = "mapbox.terrain-rgb"

// TerrainTile fetches and decodes one terrain-RGB tile.
func (c *Client) TerrainTile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	path := fmt.Sprintf("/v4/%s/%d/%d/%d.pngraw", terrainTileset, t.Z, t.X, t.Y)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode terrain tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
	}
	return img, nil
}
