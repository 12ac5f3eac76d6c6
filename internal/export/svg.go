package export

import (
	"fmt"
	"hash/fnv"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/services"
)

// SVGOptions control the drawing size and vertical exaggeration
type SVGOptions struct {
	Width                int
	Height               int
	VerticalExaggeration float64
}

const (
	svgMargin     = 60
	structureTick = 24 // pixels
)

var unitPalette = []string{
	"#e6a157", "#8fb8de", "#9bc79b", "#d98c8c", "#c3a6d8",
	"#d8cf7a", "#7fc8c1", "#c9a27e", "#a8a8a8", "#e0a6c8",
}

// frame maps section coordinates to pixels
type frame struct {
	minDist, maxElev float64
	sx, sy           float64
	top, left        int
}

func (f frame) x(distance float64) int {
	return f.left + int(math.Round((distance-f.minDist)*f.sx))
}

func (f frame) y(elevation float64) int {
	return f.top + int(math.Round((f.maxElev-elevation)*f.sy))
}

func (f frame) polyline(pts []geo.SectionPoint) ([]int, []int) {
	xs := make([]int, len(pts))
	ys := make([]int, len(pts))
	for i, p := range pts {
		xs[i] = f.x(p.Distance)
		ys[i] = f.y(p.Elevation)
	}
	return xs, ys
}

// WriteSVG draws the profile: topography, hole traces, intervals coloured by
// label and structures as ticks at their apparent dip
func WriteSVG(w io.Writer, p *services.Profile, opts SVGOptions) error {
	if opts.Width <= 2*svgMargin || opts.Height <= 2*svgMargin {
		return fmt.Errorf("SVG size %dx%d leaves no room to draw", opts.Width, opts.Height)
	}
	if opts.VerticalExaggeration <= 0 {
		opts.VerticalExaggeration = 1
	}

	f := newFrame(p, opts)
	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Title(p.Name)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:white")

	drawAxes(canvas, f, p, opts)

	if len(p.Topography) > 1 {
		xs, ys := f.polyline(p.Topography)
		canvas.Polyline(xs, ys, "fill:none;stroke:#5b3a1a;stroke-width:2")
	}

	for _, h := range p.Holes {
		if len(h.Trace) > 1 {
			xs, ys := f.polyline(h.Trace)
			canvas.Polyline(xs, ys, "fill:none;stroke:black;stroke-width:1")
		}
		for _, iv := range h.Intervals {
			if len(iv.Points) < 2 {
				continue
			}
			xs, ys := f.polyline(iv.Points)
			canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:6;stroke-opacity:0.8", unitColor(iv.Label)))
		}
		if len(h.Trace) > 0 {
			top := h.Trace[0]
			canvas.Text(f.x(top.Distance), f.y(top.Elevation)-8, h.HoleID,
				"font-family:sans-serif;font-size:11px;text-anchor:middle")
		}
	}

	for _, s := range p.Structures {
		drawStructure(canvas, f, s.Distance, s.Elevation, s.ApparentDip, opts.VerticalExaggeration)
	}

	canvas.End()
	return nil
}

// newFrame fits the profile into the drawing area keeping the requested
// vertical exaggeration
func newFrame(p *services.Profile, opts SVGOptions) frame {
	minDist, maxDist := 0.0, p.Length
	for _, h := range p.Holes {
		for _, pt := range h.Trace {
			minDist = math.Min(minDist, pt.Distance)
			maxDist = math.Max(maxDist, pt.Distance)
		}
	}
	for _, s := range p.Structures {
		minDist = math.Min(minDist, s.Distance)
		maxDist = math.Max(maxDist, s.Distance)
	}

	low, high, ok := p.ElevationRange()
	if !ok {
		low, high = 0, 1
	}
	if high-low < 1 {
		high = low + 1
	}
	if maxDist-minDist < 1 {
		maxDist = minDist + 1
	}

	availW := float64(opts.Width - 2*svgMargin)
	availH := float64(opts.Height - 2*svgMargin)
	scale := math.Min(availW/(maxDist-minDist), availH/((high-low)*opts.VerticalExaggeration))

	return frame{
		minDist: minDist,
		maxElev: high,
		sx:      scale,
		sy:      scale * opts.VerticalExaggeration,
		top:     svgMargin,
		left:    svgMargin,
	}
}

func drawAxes(canvas *svg.SVG, f frame, p *services.Profile, opts SVGOptions) {
	bottom := opts.Height - svgMargin
	right := opts.Width - svgMargin
	axis := "stroke:#444;stroke-width:1"
	label := "font-family:sans-serif;font-size:10px;fill:#444"

	canvas.Line(svgMargin, bottom, right, bottom, axis)
	canvas.Line(svgMargin, svgMargin, svgMargin, bottom, axis)

	step := niceStep(float64(right-svgMargin) / f.sx / 8)
	for d := math.Ceil(f.minDist/step) * step; f.x(d) <= right; d += step {
		x := f.x(d)
		canvas.Line(x, bottom, x, bottom+5, axis)
		canvas.Text(x, bottom+17, formatFloat(d), label+";text-anchor:middle")
	}

	minElev := f.maxElev - float64(bottom-svgMargin)/f.sy
	step = niceStep(float64(bottom-svgMargin) / f.sy / 6)
	for e := math.Ceil(minElev/step) * step; f.y(e) >= svgMargin; e += step {
		y := f.y(e)
		canvas.Line(svgMargin-5, y, svgMargin, y, axis)
		canvas.Text(svgMargin-8, y+3, formatFloat(e), label+";text-anchor:end")
	}

	canvas.Text(svgMargin, svgMargin-20,
		fmt.Sprintf("%s  azimuth %.1f°  VE %gx", p.Name, p.Azimuth, opts.VerticalExaggeration),
		"font-family:sans-serif;font-size:13px;fill:black")
}

// drawStructure draws a tick through the point; positive dips fall toward
// increasing distance
func drawStructure(canvas *svg.SVG, f frame, distance, elevation, apparentDip, ve float64) {
	angle := math.Atan(math.Tan(apparentDip*math.Pi/180) * ve)
	dx := math.Cos(angle) * structureTick / 2
	dy := math.Sin(angle) * structureTick / 2

	x, y := float64(f.x(distance)), float64(f.y(elevation))
	canvas.Line(int(math.Round(x-dx)), int(math.Round(y-dy)), int(math.Round(x+dx)), int(math.Round(y+dy)),
		"stroke:#b00020;stroke-width:2")
	canvas.Circle(int(x), int(y), 2, "fill:#b00020")
}

// niceStep rounds a raw tick spacing to 1, 2 or 5 times a power of ten
func niceStep(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 1
	}
	pow := math.Pow(10, math.Floor(math.Log10(raw)))
	switch n := raw / pow; {
	case n <= 1:
		return pow
	case n <= 2:
		return 2 * pow
	case n <= 5:
		return 5 * pow
	}
	return 10 * pow
}

// unitColor picks a stable colour for a unit label
func unitColor(label string) string {
	h := fnv.New32a()
	h.Write([]byte(label))
	return unitPalette[h.Sum32()%uint32(len(unitPalette))]
}
