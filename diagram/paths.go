package diagram

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Label curve tuning
const (
	DefaultLabelInset      = 20.0
	SliceLabelHalfSpan     = 0.2
	GroupLabelMinHalfSpan  = 0.2
	GroupLabelMaxHalfSpan  = 0.8
	GroupLabelSpanPerGlyph = 0.04
)

// DefaultRadiusConfig returns the ring geometry of the stock 700px diagram
func DefaultRadiusConfig() RadiusConfig {
	return RadiusConfig{
		CenterRadius:       150,
		MiddleRadius:       180,
		OuterRadius:        300,
		ProgressStep:       24,
		StrokeWidth:        4,
		RankingStrokeWidth: 24,
		LabelInset:         DefaultLabelInset,
	}
}

// Center returns the circle center on the drawing surface
func (c RadiusConfig) Center() orb.Point {
	return orb.Point{c.OuterRadius, c.OuterRadius}
}

// Size returns the edge length of the square drawing surface
func (c RadiusConfig) Size() float64 {
	return 2 * c.OuterRadius
}

// ProgressRadius returns the radius of progress ring k (1-indexed)
func (c RadiusConfig) ProgressRadius(k int) float64 {
	return c.MiddleRadius + float64(k-1)*c.ProgressStep
}

// PathGenerator turns a layout into vector path descriptions. It holds no state
// beyond its inputs.
type PathGenerator struct {
	Config RadiusConfig
	Layout Layout
}

// NewPathGenerator partitions the groups and returns a generator for them
func NewPathGenerator(cfg RadiusConfig, groups []Group) *PathGenerator {
	return &PathGenerator{Config: cfg, Layout: Partition(groups)}
}

// SlicePath returns the annular sector of a slice between the middle and outer
// radius. Empty when the slice does not exist.
func (pg *PathGenerator) SlicePath(g, s int) PathData {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok {
		return PathData{}
	}
	return annularSector(pg.Config.Center(), pg.Config.MiddleRadius, pg.Config.OuterRadius, sp.Start, sp.End)
}

// SimpleSlicePath returns the single-ring variant of a slice reaching in to the
// center radius
func (pg *PathGenerator) SimpleSlicePath(g, s int) PathData {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok {
		return PathData{}
	}
	return annularSector(pg.Config.Center(), pg.Config.CenterRadius, pg.Config.OuterRadius, sp.Start, sp.End)
}

// GroupPath returns the pie slice from the circle center out to the middle
// radius spanning the whole group
func (pg *PathGenerator) GroupPath(g int) PathData {
	gs, ok := pg.Layout.Group(g)
	if !ok || gs.Count == 0 {
		return PathData{}
	}
	c := pg.Config.Center()
	r := pg.Config.MiddleRadius

	var p PathData
	p.MoveTo(c)
	p.LineTo(polarToCartesian(c, r, gs.Start))
	p.Arc(c, r, gs.Start, gs.End)
	p.Close()
	return p
}

// ClipPath returns the clip region for a slice's progress rings
func (pg *PathGenerator) ClipPath(g, s int) PathData {
	return pg.SlicePath(g, s)
}

// ProgressArc returns the open arc for progress level k (1-indexed) of a slice
func (pg *PathGenerator) ProgressArc(g, s, k int) PathData {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok || k < 1 {
		return PathData{}
	}
	c := pg.Config.Center()
	r := pg.Config.ProgressRadius(k)

	var p PathData
	p.MoveTo(polarToCartesian(c, r, sp.Start))
	p.Arc(c, r, sp.Start, sp.End)
	return p
}

// ProgressArcs returns one arc per level from 1 to progress
func (pg *PathGenerator) ProgressArcs(g, s, progress int) []PathData {
	progress = clampProgress(progress)
	arcs := make([]PathData, 0, progress)
	for k := 1; k <= progress; k++ {
		arc := pg.ProgressArc(g, s, k)
		if arc.IsEmpty() {
			break
		}
		arcs = append(arcs, arc)
	}
	return arcs
}

// ProgressBand returns the filled region painted by progress arc k when stroked
// with RankingStrokeWidth and clipped to the slice wedge.
func (pg *PathGenerator) ProgressBand(g, s, k int) PathData {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok || k < 1 {
		return PathData{}
	}
	r := pg.Config.ProgressRadius(k)
	half := pg.Config.RankingStrokeWidth / 2
	inner := math.Max(r-half, pg.Config.MiddleRadius)
	outer := math.Min(r+half, pg.Config.OuterRadius)
	if outer <= inner {
		return PathData{}
	}
	return annularSector(pg.Config.Center(), inner, outer, sp.Start, sp.End)
}

// SliceCentroid returns the overlay anchor of a slice: its mid angle at the
// radius halfway between the middle and outer ring
func (pg *PathGenerator) SliceCentroid(g, s int) (orb.Point, bool) {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok {
		return orb.Point{}, false
	}
	r := (pg.Config.MiddleRadius + pg.Config.OuterRadius) / 2
	return polarToCartesian(pg.Config.Center(), r, sp.Mid()), true
}

// GroupLabelHalfSpan returns the half-span in radians of a group label curve
func GroupLabelHalfSpan(label string) float64 {
	span := float64(labelLength(label)) * GroupLabelSpanPerGlyph
	return math.Max(GroupLabelMinHalfSpan, math.Min(GroupLabelMaxHalfSpan, span))
}

// GroupLabelCurve returns the arc a group label follows, centred on the group's
// mid angle just inside the middle ring
func (pg *PathGenerator) GroupLabelCurve(g int, label string) PathData {
	gs, ok := pg.Layout.Group(g)
	if !ok || gs.Count == 0 {
		return PathData{}
	}
	r := pg.Config.MiddleRadius - pg.labelInset()
	return labelArc(pg.Config.Center(), r, gs.Mid(), GroupLabelHalfSpan(label))
}

// SliceLabelCurve returns the arc a slice label follows just inside the outer ring
func (pg *PathGenerator) SliceLabelCurve(g, s int) PathData {
	sp, ok := pg.Layout.Slice(g, s)
	if !ok {
		return PathData{}
	}
	r := pg.Config.OuterRadius - pg.labelInset()
	return labelArc(pg.Config.Center(), r, sp.Mid(), SliceLabelHalfSpan)
}

// HitTest returns the slice whose sector contains p
func (pg *PathGenerator) HitTest(p orb.Point) (g, s int, ok bool) {
	if !pg.Bounds().Contains(p) {
		return 0, 0, false
	}
	for gi, spans := range pg.Layout.Slices {
		for si := range spans {
			ring := pg.SlicePath(gi, si).Ring(defaultFlattenStep)
			if planar.RingContains(ring, p) {
				return gi, si, true
			}
		}
	}
	return 0, 0, false
}

// Bounds returns the drawing surface
func (pg *PathGenerator) Bounds() orb.Bound {
	size := pg.Config.Size()
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{size, size}}
}

func (pg *PathGenerator) labelInset() float64 {
	if pg.Config.LabelInset > 0 {
		return pg.Config.LabelInset
	}
	return DefaultLabelInset
}

// annularSector builds the outline: outer arc start->end, line inward at the
// end angle, inner arc back to the start angle, close.
func annularSector(c orb.Point, inner, outer, start, end float64) PathData {
	var p PathData
	p.MoveTo(polarToCartesian(c, outer, start))
	p.Arc(c, outer, start, end)
	p.LineTo(polarToCartesian(c, inner, end))
	p.Arc(c, inner, end, start)
	p.Close()
	return p
}

func labelArc(c orb.Point, r, mid, halfSpan float64) PathData {
	var p PathData
	p.MoveTo(polarToCartesian(c, r, mid-halfSpan))
	p.Arc(c, r, mid-halfSpan, mid+halfSpan)
	return p
}

// polarToCartesian converts an angle (0 on +X, clockwise on a Y-down screen)
// and radius around c to a point
func polarToCartesian(c orb.Point, r, angle float64) orb.Point {
	return orb.Point{c.X() + math.Cos(angle)*r, c.Y() + math.Sin(angle)*r}
}
