package tiles

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
)

// accessible mirrors the gravel layer's render filter: private and no-access
// ways are not drawn.
func accessible(props map[string]any) bool {
	access, _ := props["access"].(string)
	return access != "private" && access != "no"
}

// LoadGeoJSON adds every LineString or MultiLineString feature of a
// FeatureCollection to layer.
func (ix *Index) LoadGeoJSON(layer string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("decode %s layer: %w", layer, err)
	}

	n := 0
	for _, f := range fc.Features {
		props := map[string]any(f.Properties)
		if layer == LayerGravel && !accessible(props) {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.LineString:
			ix.Add(layer, g, props)
			n++
		case orb.MultiLineString:
			for _, ls := range g {
				ix.Add(layer, ls, props)
				n++
			}
		}
	}
	return n, nil
}

// LoadOSM reads an OSM XML extract. Every highway way lands on the road
// layer with its highway value as class; unpaved, accessible ways are also
// drawn on the gravel layer.
func (ix *Index) LoadOSM(ctx context.Context, r io.Reader) (int, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	nodes := map[osm.NodeID]orb.Point{}
	var ways []*osm.Way
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = o.Point()
		case *osm.Way:
			if o.Tags.Find("highway") != "" {
				ways = append(ways, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan osm: %w", err)
	}

	n := 0
	for _, w := range ways {
		line := make(orb.LineString, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			if p, ok := nodes[wn.ID]; ok {
				line = append(line, p)
			}
		}
		if len(line) < 2 {
			continue
		}

		props := map[string]any{}
		for k, v := range w.Tags.Map() {
			props[k] = v
		}
		props["class"] = w.Tags.Find("highway")

		ix.Add(LayerRoad, line, props)
		n++
		if surface.Classify(w.Tags.Find("surface")) == surface.Unpaved && accessible(props) {
			ix.Add(LayerGravel, line, props)
		}
	}
	return n, nil
}

// LoadFile picks the loader from the file extension.
func (ix *Index) LoadFile(ctx context.Context, layer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".osm", ".xml":
		return ix.LoadOSM(ctx, f)
	case ".geojson", ".json":
		return ix.LoadGeoJSON(layer, f)
	default:
		return 0, fmt.Errorf("unsupported layer file %q", ext)
	}
}
