package diagram

import "math"

// FullTurn is the angular extent shared by all slices
const FullTurn = 2 * math.Pi

// SliceSpan is the angular range [Start, End) of one slice
type SliceSpan struct {
	Group    int     `json:"group"`
	Slice    int     `json:"slice"`
	Absolute int     `json:"absolute"` // index in traversal order across all groups
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// GroupSpan is the union of a group's slice spans
type GroupSpan struct {
	Index  int     `json:"index"`
	Offset int     `json:"offset"` // slices in all preceding groups
	Count  int     `json:"count"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
}

// Layout is the angular partition of a group list. It is a pure function of the
// slice counts and is rebuilt on every call to Partition.
type Layout struct {
	TotalSlices  int           `json:"totalSlices"`
	SliceAngle   float64       `json:"sliceAngle"`
	SlicesBefore []int         `json:"slicesBefore"`
	Groups       []GroupSpan   `json:"groups"`
	Slices       [][]SliceSpan `json:"slices"`
}

// Partition maps groups and slices to angle ranges. Every slice gets the same
// width 2π/total; there are no gaps. An empty group list (or one whose groups
// hold no slices) yields an empty layout.
func Partition(groups []Group) Layout {
	total := totalSlices(groups)
	if total == 0 {
		return Layout{}
	}

	l := Layout{
		TotalSlices:  total,
		SliceAngle:   FullTurn / float64(total),
		SlicesBefore: make([]int, len(groups)),
		Groups:       make([]GroupSpan, len(groups)),
		Slices:       make([][]SliceSpan, len(groups)),
	}

	offset := 0
	for gi, g := range groups {
		n := len(g.Slices)
		l.SlicesBefore[gi] = offset
		l.Groups[gi] = GroupSpan{
			Index:  gi,
			Offset: offset,
			Count:  n,
			Start:  float64(offset) * l.SliceAngle,
			End:    float64(offset+n) * l.SliceAngle,
		}

		spans := make([]SliceSpan, n)
		for si := 0; si < n; si++ {
			abs := offset + si
			// neighbouring slices must share bit-identical boundaries
			spans[si] = SliceSpan{
				Group:    gi,
				Slice:    si,
				Absolute: abs,
				Start:    float64(abs) * l.SliceAngle,
				End:      float64(abs+1) * l.SliceAngle,
			}
		}
		l.Slices[gi] = spans
		offset += n
	}
	return l
}

// Empty reports whether the layout defines no angles at all
func (l Layout) Empty() bool {
	return l.TotalSlices == 0
}

// Group returns the span of group g
func (l Layout) Group(g int) (GroupSpan, bool) {
	if g < 0 || g >= len(l.Groups) {
		return GroupSpan{}, false
	}
	return l.Groups[g], true
}

// Slice returns the span of slice s in group g
func (l Layout) Slice(g, s int) (SliceSpan, bool) {
	if g < 0 || g >= len(l.Slices) || s < 0 || s >= len(l.Slices[g]) {
		return SliceSpan{}, false
	}
	return l.Slices[g][s], true
}

// Each visits every slice in angular order
func (l Layout) Each(fn func(SliceSpan)) {
	for _, spans := range l.Slices {
		for _, sp := range spans {
			fn(sp)
		}
	}
}

// Mid returns the angle halfway through the slice
func (s SliceSpan) Mid() float64 {
	return (s.Start + s.End) / 2
}

// Width returns the angular width of the slice
func (s SliceSpan) Width() float64 {
	return s.End - s.Start
}

// Mid returns the angle halfway through the group
func (g GroupSpan) Mid() float64 {
	return (g.Start + g.End) / 2
}
