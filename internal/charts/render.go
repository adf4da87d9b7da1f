package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"justapengu.in/pitwall/pkg/timing"
)

const (
	Width  = 1024
	Height = 512

	bandAlpha    = 26  // 0.1
	lapTimeAlpha = 179 // 0.7
)

var ErrNoData = errors.New("charts: no data to plot")

var compoundColors = map[timing.Compound]string{
	timing.CompoundHard:   "#FFD700",
	timing.CompoundMedium: "#C0C0C0",
	timing.CompoundSoft:   "#CD7F32",
}

const unknownCompoundColor = "#808080"

// CompoundColor is the dot colour of a tyre compound on the tyre strategy chart.
func CompoundColor(compound timing.Compound) string {
	if c, ok := compoundColors[compound]; ok {
		return c
	}

	return unknownCompoundColor
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// SpeedTrace draws the speed of each driver against distance over the shaded bands.
func SpeedTrace(w io.Writer, title string, series []DriverSeries, bands []Band) error {
	xr, yr := newExtent(), newExtent()
	xr.add(0)

	for _, band := range bands {
		xr.add(band.Start)
		xr.add(band.End)
	}

	var lines []chart.Series

	for _, s := range series {
		xs, ys := s.Valid()

		if len(xs) == 0 {
			continue
		}

		xr.add(xs...)
		yr.add(ys...)

		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Driver.Legend(),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: hexColor(s.Driver.Color),
				StrokeWidth: 2,
			},
		})
	}

	if len(lines) == 0 {
		return ErrNoData
	}

	yMin, yMax := yr.padded(10)

	// bands are drawn first so the speed lines sit on top of them
	all := make([]chart.Series, 0, len(bands)+len(lines))

	for _, band := range bands {
		c := hexColor(band.Color).WithAlpha(bandAlpha)

		all = append(all, chart.ContinuousSeries{
			Name:    band.Name,
			XValues: []float64{band.Start, band.End},
			YValues: []float64{yMax, yMax},
			Style: chart.Style{
				StrokeColor: c,
				StrokeWidth: 1,
				FillColor:   c,
			},
		})
	}

	all = append(all, lines...)

	xMin, xMax := xr.bounds()

	ch := chart.Chart{
		Title:  title,
		Width:  Width,
		Height: Height,
		XAxis: chart.XAxis{
			Name:  "Distance (m)",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Speed (km/h)",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: all,
	}

	return render(&ch, w)
}

// Positions draws each driver's position per lap with P1 at the top.
func Positions(w io.Writer, series []DriverSeries) error {
	xr, yr := newExtent(), newExtent()

	var lines []chart.Series

	for _, s := range series {
		xs, ys := s.Valid()

		if len(xs) == 0 {
			continue
		}

		xr.add(xs...)
		yr.add(ys...)

		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Driver.Legend(),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: hexColor(s.Driver.Color),
				StrokeWidth: 2,
				DotColor:    hexColor(s.Driver.Color),
				DotWidth:    2,
			},
		})
	}

	if len(lines) == 0 {
		return ErrNoData
	}

	xMin, xMax := xr.bounds()
	_, worst := yr.bounds()

	var ticks []chart.Tick

	for p := 1; p <= int(worst); p++ {
		ticks = append(ticks, chart.Tick{Value: float64(p), Label: fmt.Sprintf("P%d", p)})
	}

	ch := chart.Chart{
		Title:  "Race Position Evolution",
		Width:  Width,
		Height: Height,
		XAxis: chart.XAxis{
			Name:  "Lap Number",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Position",
			Range: &chart.ContinuousRange{Min: 0.5, Max: worst + 0.5, Descending: true},
			Ticks: ticks,
		},
		Series: lines,
	}

	return render(&ch, w)
}

// LapTimes draws each driver's lap time per lap. Laps without a time are not drawn.
func LapTimes(w io.Writer, series []DriverSeries) error {
	xr, yr := newExtent(), newExtent()

	var lines []chart.Series

	for _, s := range series {
		xs, ys := s.Valid()

		if len(xs) == 0 {
			continue
		}

		xr.add(xs...)
		yr.add(ys...)

		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Driver.Legend(),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: hexColor(s.Driver.Color).WithAlpha(lapTimeAlpha),
				StrokeWidth: 2,
			},
		})
	}

	if len(lines) == 0 {
		return ErrNoData
	}

	xMin, xMax := xr.bounds()
	yMin, yMax := yr.padded(1)

	ch := chart.Chart{
		Title:  "Lap Time Progression",
		Width:  Width,
		Height: Height,
		XAxis: chart.XAxis{
			Name:  "Lap Number",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "Lap Time (s)",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}

				return ""
			},
		},
		Series: lines,
	}

	return render(&ch, w)
}

// Tyres draws one row of dots per driver, one dot per lap, coloured by compound.
func Tyres(w io.Writer, series []TyreSeries) error {
	xr := newExtent()

	var (
		all       []chart.Series
		ticks     []chart.Tick
		compounds []timing.Compound
		seen      = make(map[timing.Compound]bool)
	)

	caser := cases.Title(language.English)

	for i, s := range series {
		if len(s.Laps) == 0 {
			continue
		}

		row := float64(i + 1)
		xr.add(s.Laps...)

		ys := make([]float64, len(s.Laps))

		for j := range ys {
			ys[j] = row
		}

		for _, compound := range s.Compounds {
			if !seen[compound] {
				seen[compound] = true
				compounds = append(compounds, compound)
			}
		}

		driverCompounds := s.Compounds

		all = append(all, chart.ContinuousSeries{
			Name:    s.Driver.Legend(),
			XValues: s.Laps,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    6,
				DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
					return hexColor(CompoundColor(driverCompounds[index]))
				},
			},
		})

		ticks = append(ticks, chart.Tick{Value: row, Label: s.Driver.Label()})
	}

	if len(all) == 0 {
		return ErrNoData
	}

	xMin, xMax := xr.bounds()

	// single point series, so that each compound gets a legend entry without drawing anything
	for _, compound := range compounds {
		all = append(all, chart.ContinuousSeries{
			Name:    caser.String(string(compound)),
			XValues: []float64{xMin},
			YValues: []float64{1},
			Style: chart.Style{
				StrokeColor: hexColor(CompoundColor(compound)),
				StrokeWidth: 6,
			},
		})
	}

	ch := chart.Chart{
		Title:  "Tire Compound Usage",
		Width:  Width,
		Height: Height,
		XAxis: chart.XAxis{
			Name:  "Lap Number",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0.5, Max: float64(len(series)) + 0.5},
			Ticks: ticks,
		},
		Series: all,
	}

	return render(&ch, w)
}

func render(ch *chart.Chart, w io.Writer) error {
	ch.Background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}

	return ch.Render(chart.SVG, w)
}

// extent tracks the minimum and maximum of the values added to it.
type extent struct {
	min, max float64
}

func newExtent() *extent {
	return &extent{min: math.Inf(1), max: math.Inf(-1)}
}

func (e *extent) add(values ...float64) {
	for _, v := range values {
		e.min = math.Min(e.min, v)
		e.max = math.Max(e.max, v)
	}
}

// bounds never returns an empty range, which go-chart refuses to draw.
func (e *extent) bounds() (float64, float64) {
	if math.IsInf(e.min, 0) || math.IsInf(e.max, 0) {
		return 0, 1
	}

	if e.min == e.max {
		return e.min - 1, e.max + 1
	}

	return e.min, e.max
}

func (e *extent) padded(by float64) (float64, float64) {
	min, max := e.bounds()

	return min - by, max + by
}
