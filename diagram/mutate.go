package diagram

// Per-indicator mutations. Every operation either applies completely or leaves
// the indicator untouched, and reports which happened.

// ResizeGroupCount appends default groups or truncates trailing groups. Counts
// outside [MinGroups, MaxGroups] are rejected. Truncated groups and their
// progress are discarded.
func (ind *Indicator) ResizeGroupCount(n int, d GroupDefaults) bool {
	if n < MinGroups || n > MaxGroups {
		return false
	}
	ind.Groups = resizeGroups(ind.Groups, n, func(i int) Group {
		return NewGroup(d.SliceCount, d.Color, d.RankingColor, i)
	})
	return true
}

// ResizeSliceCount rebuilds group g with n slices. Slices below min(old, n)
// keep their progress, label and description and take the group's current
// colors; new slices are defaults.
func (ind *Indicator) ResizeSliceCount(g, n int) bool {
	if n < MinSlices || n > MaxSlices || g < 0 || g >= len(ind.Groups) {
		return false
	}
	resizeSlices(&ind.Groups[g], n)
	return true
}

// SetSliceProgress stores value clamped to [MinProgress, MaxProgress]
func (ind *Indicator) SetSliceProgress(g, s, value int) bool {
	sl := ind.slice(g, s)
	if sl == nil {
		return false
	}
	sl.Progress = clampProgress(value)
	return true
}

// BumpSliceProgress adds delta to the slice progress and clamps the result
func (ind *Indicator) BumpSliceProgress(g, s, delta int) bool {
	sl := ind.slice(g, s)
	if sl == nil {
		return false
	}
	sl.Progress = clampProgress(sl.Progress + delta)
	return true
}

// RecolorGroup updates the group colors that are non-nil and mirrors them onto
// every slice of the group
func (ind *Indicator) RecolorGroup(g int, color, rankingColor *string) bool {
	if g < 0 || g >= len(ind.Groups) {
		return false
	}
	recolorGroup(&ind.Groups[g], color, rankingColor)
	return true
}

// RenameGroup replaces a group label
func (ind *Indicator) RenameGroup(g int, label string) bool {
	if g < 0 || g >= len(ind.Groups) {
		return false
	}
	ind.Groups[g].Label = label
	return true
}

// RenameSlice replaces a slice label
func (ind *Indicator) RenameSlice(g, s int, label string) bool {
	sl := ind.slice(g, s)
	if sl == nil {
		return false
	}
	sl.Label = label
	return true
}

// DescribeSlice replaces a slice description
func (ind *Indicator) DescribeSlice(g, s int, text string) bool {
	sl := ind.slice(g, s)
	if sl == nil {
		return false
	}
	sl.Description = text
	return true
}

// Rename replaces the indicator name
func (ind *Indicator) Rename(name string) {
	ind.Name = name
}

// SetCenterImage replaces the opaque center image reference
func (ind *Indicator) SetCenterImage(ref string) {
	ind.CenterImage = ref
}

func (ind *Indicator) slice(g, s int) *Slice {
	if g < 0 || g >= len(ind.Groups) {
		return nil
	}
	grp := &ind.Groups[g]
	if s < 0 || s >= len(grp.Slices) {
		return nil
	}
	return &grp.Slices[s]
}

// resizeGroups keeps the first min(len, n) groups and fills the rest with fresh
func resizeGroups(groups []Group, n int, fresh func(i int) Group) []Group {
	out := make([]Group, n)
	for i := 0; i < n; i++ {
		if i < len(groups) {
			out[i] = groups[i]
		} else {
			out[i] = fresh(i)
		}
	}
	return out
}

func resizeSlices(grp *Group, n int) {
	slices := make([]Slice, n)
	for i := 0; i < n; i++ {
		if i < len(grp.Slices) {
			slices[i] = grp.Slices[i]
			slices[i].Color = grp.Color
			slices[i].RankingColor = grp.RankingColor
		} else {
			slices[i] = NewSlice(grp.Color, grp.RankingColor, i)
		}
	}
	grp.Slices = slices
	grp.SliceCount = n
}

func recolorGroup(grp *Group, color, rankingColor *string) {
	if color != nil {
		grp.Color = *color
	}
	if rankingColor != nil {
		grp.RankingColor = *rankingColor
	}
	for i := range grp.Slices {
		if color != nil {
			grp.Slices[i].Color = *color
		}
		if rankingColor != nil {
			grp.Slices[i].RankingColor = *rankingColor
		}
	}
}
