package elevation

import (
	"context"
	"math"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/tkrajina/go-elevations/geoelevations"
)

type srtmSource interface {
	GetElevation(client *http.Client, lat, lon float64) (float64, error)
}

// SRTM reads elevations from SRTM tiles, downloading and caching them on
// demand through go-elevations.
type SRTM struct {
	src    srtmSource
	client *http.Client
}

func NewSRTM(client *http.Client) (*SRTM, error) {
	if client == nil {
		client = http.DefaultClient
	}
	src, err := geoelevations.NewSrtm(client)
	if err != nil {
		return nil, err
	}
	return &SRTM{src: src, client: client}, nil
}

func (p *SRTM) Lookup(ctx context.Context, points []orb.Point) ([]Reading, error) {
	out := missingReadings(points)
	for i, pt := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := p.src.GetElevation(p.client, pt.Lat(), pt.Lon())
		if err != nil || math.IsNaN(e) {
			continue
		}
		out[i].Elevation = math.Round(e)
		out[i].Missing = false
	}
	return out, nil
}
