// Package chart renders bar and scatter charts to PNG or SVG.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chart has no data points")

// ParseFormat maps a query value to a Format, defaulting to PNG.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Bar is one labelled bar.
type Bar struct {
	Label string
	Value float64
	Color string
}

// Point is one scatter dot; Group selects its colour and legend entry.
type Point struct {
	X, Y  float64
	Group string
}

// Axis bounds a continuous axis.
type Axis struct {
	Name     string
	Min, Max float64
}

// Renderer draws charts on a fixed canvas.
type Renderer struct {
	width  int
	height int
}

// NewRenderer builds a renderer. Non-positive sizes fall back to 900x480.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 480
	}
	return &Renderer{width: width, height: height}
}

// Bars renders a vertical bar chart.
func (r *Renderer) Bars(title, yName string, bars []Bar, format Format) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	maxValue := 1.0
	values := make([]gochart.Value, len(bars))
	for i, b := range bars {
		maxValue = math.Max(maxValue, b.Value)
		color := ColorFor(b.Color)
		values[i] = gochart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: gochart.Style{FillColor: color, StrokeColor: color},
		}
	}

	slot := (r.width - 120) / (len(bars) * 2)
	if slot < 4 {
		slot = 4
	}
	if slot > 60 {
		slot = 60
	}

	bc := gochart.BarChart{
		Title:      title,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Width:      r.width,
		Height:     r.height,
		BarWidth:   slot,
		BarSpacing: slot,
		YAxis: gochart.YAxis{
			Name:  yName,
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Ceil(maxValue * 1.1)},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := bc.Render(format.provider(), &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Scatter renders points grouped into one coloured series per group, groups sorted by name.
func (r *Renderer) Scatter(title string, x, y Axis, points []Point, format Format) ([]byte, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}
	grouped := make(map[string][]Point)
	for _, p := range points {
		grouped[p.Group] = append(grouped[p.Group], p)
	}
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]gochart.Series, 0, len(names))
	for i, name := range names {
		pts := grouped[name]
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, p := range pts {
			xs[j], ys[j] = p.X, p.Y
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotWidth:    5,
				DotColor:    gochart.GetDefaultColor(i),
			},
		})
	}

	ch := gochart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 64}},
		XAxis:      gochart.XAxis{Name: x.Name, Range: &gochart.ContinuousRange{Min: x.Min, Max: x.Max}},
		YAxis:      gochart.YAxis{Name: y.Name, Range: &gochart.ContinuousRange{Min: y.Min, Max: y.Max}},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(format.provider(), &buf); err != nil {
		return nil, fmt.Errorf("render scatter chart: %w", err)
	}
	return buf.Bytes(), nil
}

var namedColors = map[string]string{
	"green":     "008000",
	"limegreen": "32cd32",
	"yellow":    "ffff00",
	"orange":    "ffa500",
	"orangered": "ff4500",
	"red":       "ff0000",
	"blue":      "0000ff",
	"gray":      "808080",
	"steelblue": "4682b4",
}

// ColorFor resolves a CSS colour name or hex string, falling back to steel blue.
func ColorFor(name string) drawing.Color {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	if hex, ok := namedColors[key]; ok {
		return drawing.ColorFromHex(hex)
	}
	if len(key) == 6 {
		return drawing.ColorFromHex(key)
	}
	return drawing.ColorFromHex(namedColors["steelblue"])
}
