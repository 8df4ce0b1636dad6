package radar

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

type RenderOptions struct {
	Title    string
	Width    int
	Height   int
	FontPath string // optional TTF for PNG labels
	FontSize float64
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Title == "" {
		o.Title = "EDGES Evaluation"
	}
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	return o
}

// RenderHTML writes an interactive radar chart page.
func RenderHTML(w io.Writer, concepts []*evaluation.Concept, o RenderOptions) error {
	o = o.withDefaults()

	indicators := make([]*opts.Indicator, 0, len(evaluation.Criteria))
	for _, cr := range evaluation.Criteria {
		indicators = append(indicators, &opts.Indicator{Name: cr.Label(), Min: 0, Max: evaluation.MaxScore})
	}

	radar := charts.NewRadar()
	radar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", o.Width),
			Height: fmt.Sprintf("%dpx", o.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithRadarComponentOpts(opts.RadarComponent{
			Indicator:   indicators,
			Shape:       "polygon",
			SplitNumber: 5,
		}),
	)

	cfg := Config(concepts)
	for _, c := range concepts {
		if c == nil {
			continue
		}
		values := make([]float32, 0, len(evaluation.Criteria))
		for _, cr := range evaluation.Criteria {
			values = append(values, float32(c.Score(cr)))
		}
		radar.AddSeries(c.Name,
			[]opts.RadarData{{Name: c.Name, Value: values}},
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cfg[c.Name].Color}),
		)
	}
	return radar.Render(w)
}

// RenderPNG draws a static radar snapshot.
func RenderPNG(w io.Writer, concepts []*evaluation.Concept, o RenderOptions) error {
	o = o.withDefaults()
	face, err := loadFace(o.FontPath, o.FontSize)
	if err != nil {
		return err
	}

	width, height := float64(o.Width), float64(o.Height)
	dc := gg.NewContext(o.Width, o.Height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face)

	legendHeight := 24.0 * float64((len(concepts)+2)/3)
	cx := width / 2
	cy := (height - legendHeight) / 2
	radius := math.Min(width, height-legendHeight) * 0.35

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(o.Title, cx, 20, 0.5, 0.5)

	axes := len(evaluation.Criteria)
	point := func(i int, r float64) (float64, float64) {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(axes)
		return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
	}

	// grid rings at 2, 4, 6, 8, 10
	dc.SetRGB255(210, 210, 210)
	dc.SetLineWidth(1)
	for ring := 2; ring <= evaluation.MaxScore; ring += 2 {
		r := radius * float64(ring) / evaluation.MaxScore
		for i := 0; i < axes; i++ {
			x, y := point(i, r)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.Stroke()
	}
	for i, cr := range evaluation.Criteria {
		x, y := point(i, radius)
		dc.SetRGB255(210, 210, 210)
		dc.DrawLine(cx, cy, x, y)
		dc.Stroke()

		lx, ly := point(i, radius+22)
		dc.SetRGB255(60, 60, 60)
		dc.DrawStringAnchored(cr.Label(), lx, ly, 0.5, 0.5)
	}

	cfg := Config(concepts)
	for _, c := range concepts {
		if c == nil {
			continue
		}
		r, g, b := parseHexRGB(cfg[c.Name].Color)
		for i, cr := range evaluation.Criteria {
			x, y := point(i, radius*float64(c.Score(cr))/evaluation.MaxScore)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.ClosePath()
		dc.SetRGBA255(int(r), int(g), int(b), 40)
		dc.FillPreserve()
		dc.SetRGBA255(int(r), int(g), int(b), 255)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	// legend, three entries per line
	for i, c := range concepts {
		if c == nil {
			continue
		}
		col, line := i%3, i/3
		x := 40 + float64(col)*(width-80)/3
		y := height - legendHeight + 12 + float64(line)*24
		r, g, b := parseHexRGB(cfg[c.Name].Color)
		dc.SetRGB255(int(r), int(g), int(b))
		dc.DrawRectangle(x, y-6, 12, 12)
		dc.Fill()
		dc.SetRGB255(30, 30, 30)
		dc.DrawStringAnchored(c.Name, x+18, y, 0, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode radar png: %w", err)
	}
	return nil
}

func loadFace(path string, size float64) (font.Face, error) {
	if strings.TrimSpace(path) == "" {
		return basicfont.Face7x13, nil
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart font: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse chart font: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// parseHexRGB reads "#RRGGBB"; anything else renders black.
func parseHexRGB(s string) (r, g, b uint8) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0
	}
	return raw[0], raw[1], raw[2]
}
