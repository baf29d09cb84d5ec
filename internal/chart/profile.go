// Package chart renders elevation profiles as standalone HTML pages.
package chart

import (
	"fmt"
	"io"
	"strconv"

	"backend-gravelatlas/internal/elevation"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ElevationProfile writes a line chart of elevation against distance.
func ElevationProfile(w io.Writer, title string, points []elevation.Point) error {
	x := make([]string, len(points))
	y := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = strconv.FormatFloat(p.DistanceKm, 'f', 2, 64)
		y[i] = opts.LineData{Value: p.Elevation}
	}

	summary := elevation.Summarize(points)
	gain, loss := elevation.GainLoss(points)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("+%.0fm / -%.0fm, grade %.1f%% to %.1f%%", gain, loss, summary.MinGrade, summary.MaxGrade),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "km", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(x).
		AddSeries("elevation", y,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)

	return line.Render(w)
}
