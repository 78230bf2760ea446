package diagram

import (
	"fmt"
	"unicode/utf8"
)

// Domain limits
const (
	MinGroups   = 1
	MaxGroups   = 10
	MinSlices   = 1
	MaxSlices   = 20
	MinProgress = 0
	MaxProgress = 5
)

// Defaults for new groups and slices
const (
	DefaultColor        = "#E2E2E2"
	DefaultRankingColor = "#8B5CF6"
	DefaultSliceCount   = 7
	DefaultThemeCount   = 3
)

// DefaultGroupDefaults returns the stock group colors and slice count
func DefaultGroupDefaults() GroupDefaults {
	return GroupDefaults{
		SliceCount:   DefaultSliceCount,
		Color:        DefaultColor,
		RankingColor: DefaultRankingColor,
	}
}

// NewSlice creates a slice with the positional default label and no progress
func NewSlice(color, rankingColor string, index int) Slice {
	return Slice{
		Color:        color,
		RankingColor: rankingColor,
		Label:        defaultSliceLabel(index),
		Progress:     0,
	}
}

// NewGroup creates a group with sliceCount fresh slices
func NewGroup(sliceCount int, color, rankingColor string, index int) Group {
	g := Group{
		Label:        defaultGroupLabel(index),
		Color:        color,
		RankingColor: rankingColor,
		SliceCount:   sliceCount,
		Slices:       make([]Slice, 0, max(sliceCount, 0)),
	}
	for i := 0; i < sliceCount; i++ {
		g.Slices = append(g.Slices, NewSlice(color, rankingColor, i))
	}
	return g
}

// DefaultGroups creates n groups using the given defaults, labelled from index 0
func DefaultGroups(n int, d GroupDefaults) []Group {
	groups := make([]Group, 0, max(n, 0))
	for i := 0; i < n; i++ {
		groups = append(groups, NewGroup(d.SliceCount, d.Color, d.RankingColor, i))
	}
	return groups
}

// NewGlobalConfig builds a template with themeCount default groups
func NewGlobalConfig(themeCount int, d GroupDefaults) GlobalConfig {
	return GlobalConfig{
		ThemeCount: themeCount,
		SliceCount: d.SliceCount,
		Groups:     DefaultGroups(themeCount, d),
	}
}

// NewIndicatorFromTemplate creates an indicator whose shape is copied from the
// template. Progress always starts at zero.
func NewIndicatorFromTemplate(id int, centerImage string, template GlobalConfig) Indicator {
	groups := cloneGroups(template.Groups)
	for gi := range groups {
		for si := range groups[gi].Slices {
			groups[gi].Slices[si].Progress = 0
		}
	}
	return Indicator{
		ID:          id,
		Name:        defaultIndicatorName(id),
		CenterImage: centerImage,
		Groups:      groups,
	}
}

// DisplayName returns the indicator name or its positional default
func (ind *Indicator) DisplayName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return defaultIndicatorName(ind.ID)
}

// DisplayLabel returns the group label or "Theme {index+1}" when empty
func (g *Group) DisplayLabel(index int) string {
	if g.Label != "" {
		return g.Label
	}
	return defaultGroupLabel(index)
}

// DisplayLabel returns the slice label or "Slice {index+1}" when empty
func (s *Slice) DisplayLabel(index int) string {
	if s.Label != "" {
		return s.Label
	}
	return defaultSliceLabel(index)
}

// TotalSlices returns the number of slices across all groups
func (ind *Indicator) TotalSlices() int {
	return totalSlices(ind.Groups)
}

// Clone returns a deep copy of the indicator
func (ind *Indicator) Clone() Indicator {
	c := *ind
	c.Groups = cloneGroups(ind.Groups)
	return c
}

// Clone returns a deep copy of the template
func (gc *GlobalConfig) Clone() GlobalConfig {
	c := *gc
	c.Groups = cloneGroups(gc.Groups)
	return c
}

// Clone returns a deep copy of the workspace
func (ws *Workspace) Clone() Workspace {
	c := *ws
	c.Template = ws.Template.Clone()
	c.Indicators = make([]Indicator, len(ws.Indicators))
	for i := range ws.Indicators {
		c.Indicators[i] = ws.Indicators[i].Clone()
	}
	return c
}

// Validate checks the structural invariants of a group
func (g *Group) Validate() error {
	if g.SliceCount != len(g.Slices) {
		return fmt.Errorf("sliceCount %d does not match %d slices", g.SliceCount, len(g.Slices))
	}
	for i, s := range g.Slices {
		if s.Progress < MinProgress || s.Progress > MaxProgress {
			return fmt.Errorf("slice[%d].progress %d out of range", i, s.Progress)
		}
	}
	return nil
}

// Validate checks the structural invariants of an indicator
func (ind *Indicator) Validate() error {
	for i := range ind.Groups {
		if err := ind.Groups[i].Validate(); err != nil {
			return fmt.Errorf("indicator %d group[%d]: %w", ind.ID, i, err)
		}
	}
	return nil
}

// Validate checks every indicator, the template, id uniqueness and that every
// indicator has the template's shape
func (ws *Workspace) Validate() error {
	for i := range ws.Template.Groups {
		if err := ws.Template.Groups[i].Validate(); err != nil {
			return fmt.Errorf("%w: template group[%d]: %v", ErrInvalidWorkspace, i, err)
		}
	}
	seen := make(map[int]bool, len(ws.Indicators))
	for i := range ws.Indicators {
		ind := &ws.Indicators[i]
		if seen[ind.ID] {
			return fmt.Errorf("%w: duplicate indicator id %d", ErrInvalidWorkspace, ind.ID)
		}
		seen[ind.ID] = true
		if ind.ID >= ws.NextID {
			return fmt.Errorf("%w: indicator id %d not below nextId %d", ErrInvalidWorkspace, ind.ID, ws.NextID)
		}
		if err := ind.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
		}
		if err := ws.Template.matches(ind); err != nil {
			return fmt.Errorf("%w: indicator %d: %v", ErrInvalidWorkspace, ind.ID, err)
		}
	}
	return nil
}

// matches checks that ind has the group and slice counts of the template
func (gc *GlobalConfig) matches(ind *Indicator) error {
	if len(ind.Groups) != len(gc.Groups) {
		return fmt.Errorf("%d groups, template has %d", len(ind.Groups), len(gc.Groups))
	}
	for i := range ind.Groups {
		if got, want := len(ind.Groups[i].Slices), len(gc.Groups[i].Slices); got != want {
			return fmt.Errorf("group[%d] has %d slices, template has %d", i, got, want)
		}
	}
	return nil
}

// labelLength counts runes so accented labels get the same curve as ASCII ones
func labelLength(label string) int {
	return utf8.RuneCountInString(label)
}

func defaultSliceLabel(index int) string {
	return fmt.Sprintf("Slice %d", index+1)
}

func defaultGroupLabel(index int) string {
	return fmt.Sprintf("Theme %d", index+1)
}

func defaultIndicatorName(id int) string {
	return fmt.Sprintf("Indicator %d", id)
}

func cloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g
		if g.Slices != nil {
			out[i].Slices = make([]Slice, len(g.Slices))
			copy(out[i].Slices, g.Slices)
		}
	}
	return out
}

func totalSlices(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Slices)
	}
	return n
}

func clampProgress(v int) int {
	if v < MinProgress {
		return MinProgress
	}
	if v > MaxProgress {
		return MaxProgress
	}
	return v
}
