package diagram

import (
	"fmt"
	"sync"
)

// Listener receives a deep copy of the workspace after every applied mutation
type Listener func(ws Workspace)

// Engine owns a workspace and exposes the mutation commands. Shape changes
// (group count, slice count, colors, labels) are applied to the template and
// broadcast to every indicator; progress is private to each indicator and is
// preserved by index across broadcasts.
//
// Callers are serialised by a mutex; listeners run synchronously after the
// lock is released.
type Engine struct {
	mu        sync.Mutex
	ws        Workspace
	defaults  GroupDefaults
	listeners []Listener
}

// NewWorkspace creates a workspace from the template settings, seeded with
// cfg.Indicators indicators (at least one)
func NewWorkspace(cfg TemplateConfig) Workspace {
	d := cfg.GroupDefaults()
	ws := Workspace{
		Template: NewGlobalConfig(cfg.ThemeCount, d),
		NextID:   1,
	}
	n := max(cfg.Indicators, 1)
	for i := 0; i < n; i++ {
		ws.Indicators = append(ws.Indicators, NewIndicatorFromTemplate(ws.NextID, "", ws.Template))
		ws.NextID++
	}
	ws.ActiveIndicator = ws.Indicators[0].ID
	return ws
}

// NewEngine takes ownership of a copy of ws. A default slice count stored in
// the template wins over d.SliceCount.
func NewEngine(ws Workspace, d GroupDefaults) *Engine {
	if ws.Template.SliceCount > 0 {
		d.SliceCount = ws.Template.SliceCount
	} else {
		ws.Template.SliceCount = d.SliceCount
	}
	if ws.NextID < 1 {
		ws.NextID = 1
	}
	for _, ind := range ws.Indicators {
		if ind.ID >= ws.NextID {
			ws.NextID = ind.ID + 1
		}
	}
	return &Engine{ws: ws.Clone(), defaults: d}
}

// Subscribe registers a listener for applied mutations
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Snapshot returns a deep copy of the workspace
func (e *Engine) Snapshot() Workspace {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws.Clone()
}

// Version returns the number of applied mutations
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws.Version
}

// Template returns a copy of the shared shape template
func (e *Engine) Template() GlobalConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws.Template.Clone()
}

// Indicators returns copies of every indicator in order
func (e *Engine) Indicators() []Indicator {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Indicator, len(e.ws.Indicators))
	for i := range e.ws.Indicators {
		out[i] = e.ws.Indicators[i].Clone()
	}
	return out
}

// Indicator returns a copy of the indicator with the given id
func (e *Engine) Indicator(id int) (Indicator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ind := e.find(id)
	if ind == nil {
		return Indicator{}, fmt.Errorf("indicator %d: %w", id, ErrIndicatorNotFound)
	}
	return ind.Clone(), nil
}

// ActiveID returns the id of the active indicator (0 when there is none)
func (e *Engine) ActiveID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ws.ActiveIndicator
}

// Active returns a copy of the active indicator
func (e *Engine) Active() (Indicator, error) {
	return e.Indicator(e.ActiveID())
}

// ---------------------------------------------------------------------------
// Shape operations (template + broadcast)
// ---------------------------------------------------------------------------

// ResizeGroupCount changes the number of groups of the template and of every
// indicator. Rejected outside [MinGroups, MaxGroups].
func (e *Engine) ResizeGroupCount(n int) bool {
	if n < MinGroups || n > MaxGroups {
		return false
	}
	return e.apply(func(ws *Workspace) bool {
		ws.Template.Groups = resizeGroups(ws.Template.Groups, n, func(i int) Group {
			return NewGroup(e.defaults.SliceCount, e.defaults.Color, e.defaults.RankingColor, i)
		})
		ws.Template.ThemeCount = n
		for i := range ws.Indicators {
			ind := &ws.Indicators[i]
			ind.Groups = resizeGroups(ind.Groups, n, func(gi int) Group {
				return templateGroup(ws.Template.Groups[gi])
			})
		}
		return true
	})
}

// ResizeSliceCount changes the slice count of group g in the template and in
// every indicator, preserving per-indicator progress by index
func (e *Engine) ResizeSliceCount(g, n int) bool {
	if n < MinSlices || n > MaxSlices {
		return false
	}
	return e.apply(func(ws *Workspace) bool {
		if g < 0 || g >= len(ws.Template.Groups) {
			return false
		}
		resizeSlices(&ws.Template.Groups[g], n)
		for i := range ws.Indicators {
			ws.Indicators[i].ResizeSliceCount(g, n)
		}
		return true
	})
}

// SetDefaultSliceCount changes the slice count used for groups created later
func (e *Engine) SetDefaultSliceCount(n int) bool {
	if n < MinSlices || n > MaxSlices {
		return false
	}
	return e.apply(func(ws *Workspace) bool {
		ws.Template.SliceCount = n
		e.defaults.SliceCount = n
		return true
	})
}

// RecolorGroup updates the colors of group g everywhere. A nil color leaves
// that field unchanged.
func (e *Engine) RecolorGroup(g int, color, rankingColor *string) bool {
	if color == nil && rankingColor == nil {
		return false
	}
	return e.apply(func(ws *Workspace) bool {
		if g < 0 || g >= len(ws.Template.Groups) {
			return false
		}
		recolorGroup(&ws.Template.Groups[g], color, rankingColor)
		for i := range ws.Indicators {
			ws.Indicators[i].RecolorGroup(g, color, rankingColor)
		}
		return true
	})
}

// RenameGroup replaces the label of group g everywhere
func (e *Engine) RenameGroup(g int, label string) bool {
	return e.apply(func(ws *Workspace) bool {
		if g < 0 || g >= len(ws.Template.Groups) {
			return false
		}
		ws.Template.Groups[g].Label = label
		for i := range ws.Indicators {
			ws.Indicators[i].RenameGroup(g, label)
		}
		return true
	})
}

// RenameSlice replaces the label of slice s in group g everywhere
func (e *Engine) RenameSlice(g, s int, label string) bool {
	return e.apply(func(ws *Workspace) bool {
		tmpl := Indicator{Groups: ws.Template.Groups}
		if !tmpl.RenameSlice(g, s, label) {
			return false
		}
		for i := range ws.Indicators {
			ws.Indicators[i].RenameSlice(g, s, label)
		}
		return true
	})
}

// ---------------------------------------------------------------------------
// Per-indicator operations
// ---------------------------------------------------------------------------

// SetSliceProgress sets a clamped progress value on one indicator
func (e *Engine) SetSliceProgress(id, g, s, value int) bool {
	return e.applyTo(id, func(ind *Indicator) bool {
		return ind.SetSliceProgress(g, s, value)
	})
}

// BumpSliceProgress adds delta to one slice's progress, clamped
func (e *Engine) BumpSliceProgress(id, g, s, delta int) bool {
	return e.applyTo(id, func(ind *Indicator) bool {
		return ind.BumpSliceProgress(g, s, delta)
	})
}

// DescribeSlice replaces one slice description on one indicator
func (e *Engine) DescribeSlice(id, g, s int, text string) bool {
	return e.applyTo(id, func(ind *Indicator) bool {
		return ind.DescribeSlice(g, s, text)
	})
}

// RenameIndicator replaces an indicator name
func (e *Engine) RenameIndicator(id int, name string) bool {
	return e.applyTo(id, func(ind *Indicator) bool {
		ind.Rename(name)
		return true
	})
}

// SetCenterImage replaces an indicator's center image reference
func (e *Engine) SetCenterImage(id int, ref string) bool {
	return e.applyTo(id, func(ind *Indicator) bool {
		ind.SetCenterImage(ref)
		return true
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// AddIndicator creates an indicator shaped like the template and returns its id
func (e *Engine) AddIndicator(centerImage string) int {
	var id int
	e.apply(func(ws *Workspace) bool {
		id = ws.NextID
		ws.NextID++
		ws.Indicators = append(ws.Indicators, NewIndicatorFromTemplate(id, centerImage, ws.Template))
		if ws.ActiveIndicator == 0 {
			ws.ActiveIndicator = id
		}
		return true
	})
	return id
}

// RemoveIndicator deletes an indicator. Its id is never reused.
func (e *Engine) RemoveIndicator(id int) bool {
	return e.apply(func(ws *Workspace) bool {
		idx := -1
		for i := range ws.Indicators {
			if ws.Indicators[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
		ws.Indicators = append(ws.Indicators[:idx], ws.Indicators[idx+1:]...)
		if ws.ActiveIndicator == id {
			ws.ActiveIndicator = 0
			if len(ws.Indicators) > 0 {
				ws.ActiveIndicator = ws.Indicators[0].ID
			}
		}
		return true
	})
}

// SetActive selects the indicator subsequent edits default to
func (e *Engine) SetActive(id int) bool {
	return e.apply(func(ws *Workspace) bool {
		for i := range ws.Indicators {
			if ws.Indicators[i].ID == id {
				ws.ActiveIndicator = id
				return true
			}
		}
		return false
	})
}

// apply runs fn on the live workspace. fn must validate before mutating and
// return false without touching anything when the operation is rejected.
func (e *Engine) apply(fn func(ws *Workspace) bool) bool {
	e.mu.Lock()
	if !fn(&e.ws) {
		e.mu.Unlock()
		return false
	}
	e.ws.Version++
	listeners := append([]Listener(nil), e.listeners...)
	var snap Workspace
	if len(listeners) > 0 {
		snap = e.ws.Clone()
	}
	e.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return true
}

func (e *Engine) applyTo(id int, fn func(ind *Indicator) bool) bool {
	return e.apply(func(ws *Workspace) bool {
		for i := range ws.Indicators {
			if ws.Indicators[i].ID == id {
				return fn(&ws.Indicators[i])
			}
		}
		return false
	})
}

func (e *Engine) find(id int) *Indicator {
	for i := range e.ws.Indicators {
		if e.ws.Indicators[i].ID == id {
			return &e.ws.Indicators[i]
		}
	}
	return nil
}

// templateGroup copies a template group for an indicator with zero progress
func templateGroup(tg Group) Group {
	g := cloneGroups([]Group{tg})[0]
	for i := range g.Slices {
		g.Slices[i].Progress = 0
	}
	return g
}
