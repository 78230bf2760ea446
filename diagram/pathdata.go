package diagram

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
)

// PathOp is a single path drawing command
type PathOp string

const (
	OpMoveTo PathOp = "M"
	OpLineTo PathOp = "L"
	OpArcTo  PathOp = "A"
	OpClose  PathOp = "Z"
)

// PathCommand is one structured path step. Arc commands also carry their
// circle center and start/end angles so they can be flattened without solving
// the SVG endpoint parameterisation.
type PathCommand struct {
	Op       PathOp  `json:"op"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Radius   float64 `json:"r,omitempty"`
	LargeArc bool    `json:"largeArc,omitempty"`
	Sweep    bool    `json:"sweep,omitempty"`

	CX   float64 `json:"-"`
	CY   float64 `json:"-"`
	From float64 `json:"-"`
	To   float64 `json:"-"`
}

// PathData is an ordered list of path commands in screen coordinates (Y down)
type PathData struct {
	Commands []PathCommand
}

// MoveTo starts a new subpath
func (p *PathData) MoveTo(pt orb.Point) {
	p.Commands = append(p.Commands, PathCommand{Op: OpMoveTo, X: pt.X(), Y: pt.Y()})
}

// LineTo appends a straight segment
func (p *PathData) LineTo(pt orb.Point) {
	p.Commands = append(p.Commands, PathCommand{Op: OpLineTo, X: pt.X(), Y: pt.Y()})
}

// Arc appends a circular arc around center from angle `from` to angle `to`.
// The pen is expected to be at the point for `from` already. Arcs covering a
// full turn are emitted as two halves since a single SVG arc with coincident
// endpoints draws nothing.
func (p *PathData) Arc(center orb.Point, radius, from, to float64) {
	delta := to - from
	if math.Abs(delta) >= FullTurn-angleEpsilon {
		mid := from + delta/2
		p.Arc(center, radius, from, mid)
		p.Arc(center, radius, mid, to)
		return
	}
	end := polarToCartesian(center, radius, to)
	p.Commands = append(p.Commands, PathCommand{
		Op:       OpArcTo,
		X:        end.X(),
		Y:        end.Y(),
		Radius:   radius,
		LargeArc: largeArc(math.Abs(delta)),
		Sweep:    delta >= 0,
		CX:       center.X(),
		CY:       center.Y(),
		From:     from,
		To:       to,
	})
}

// Close closes the current subpath
func (p *PathData) Close() {
	p.Commands = append(p.Commands, PathCommand{Op: OpClose})
}

// IsEmpty reports whether the path has no commands
func (p PathData) IsEmpty() bool {
	return len(p.Commands) == 0
}

// String renders the path as an SVG path data attribute
func (p PathData) String() string {
	var sb strings.Builder
	for i, c := range p.Commands {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(c.Op))
		switch c.Op {
		case OpMoveTo, OpLineTo:
			sb.WriteByte(' ')
			writeNums(&sb, c.X, c.Y)
		case OpArcTo:
			sb.WriteByte(' ')
			writeNums(&sb, c.Radius, c.Radius)
			sb.WriteString(" 0 ")
			sb.WriteString(flag(c.LargeArc))
			sb.WriteByte(' ')
			sb.WriteString(flag(c.Sweep))
			sb.WriteByte(' ')
			writeNums(&sb, c.X, c.Y)
		}
	}
	return sb.String()
}

// MarshalJSON encodes the path as its SVG path data string
func (p PathData) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Canvas converts the path to a tdewolff/canvas path using the same coordinates
func (p PathData) Canvas() *canvas.Path {
	cp := &canvas.Path{}
	for _, c := range p.Commands {
		switch c.Op {
		case OpMoveTo:
			cp.MoveTo(c.X, c.Y)
		case OpLineTo:
			cp.LineTo(c.X, c.Y)
		case OpArcTo:
			cp.ArcTo(c.Radius, c.Radius, 0, c.LargeArc, c.Sweep, c.X, c.Y)
		case OpClose:
			cp.Close()
		}
	}
	return cp
}

// Ring flattens the path into a closed polygon ring. Arcs are subdivided so no
// chord spans more than maxStep radians.
func (p PathData) Ring(maxStep float64) orb.Ring {
	if maxStep <= 0 {
		maxStep = defaultFlattenStep
	}
	var ring orb.Ring
	for _, c := range p.Commands {
		switch c.Op {
		case OpMoveTo, OpLineTo:
			ring = append(ring, orb.Point{c.X, c.Y})
		case OpArcTo:
			center := orb.Point{c.CX, c.CY}
			steps := int(math.Ceil(math.Abs(c.To-c.From) / maxStep))
			if steps < 1 {
				steps = 1
			}
			for i := 1; i <= steps; i++ {
				a := c.From + (c.To-c.From)*float64(i)/float64(steps)
				ring = append(ring, polarToCartesian(center, c.Radius, a))
			}
		}
	}
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

const (
	angleEpsilon       = 1e-9
	defaultFlattenStep = math.Pi / 90
)

// largeArc reports the SVG large-arc flag for an arc of the given angular extent
func largeArc(extent float64) bool {
	return extent > math.Pi
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeNums(sb *strings.Builder, vals ...float64) {
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatNum(v))
	}
}

// formatNum prints v with at most 4 decimals and without a negative zero
func formatNum(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
