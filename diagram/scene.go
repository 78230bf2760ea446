package diagram

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ElementKind identifies what a scene element draws
type ElementKind string

const (
	KindSliceClip  ElementKind = "clip"
	KindLabelCurve ElementKind = "label-curve"
	KindSlice      ElementKind = "slice"
	KindProgress   ElementKind = "progress"
	KindGroup      ElementKind = "group"
	KindGroupLabel ElementKind = "group-label"
	KindSliceLabel ElementKind = "slice-label"
)

// Colors the renderers use for non-data elements
const (
	SeparatorColor    = "white"
	LabelColor        = "white"
	CenterFillColor   = "white"
	CenterBorderColor = "#E5E7EB"
	centerImageInset  = 20.0
	centerClipID      = "center-clip"
)

// Element is one drawable item with its style and the indices an external
// renderer needs for hit-testing and tooltips. Group and Slice are -1 when the
// element does not belong to one.
type Element struct {
	Kind        ElementKind `json:"kind"`
	ID          string      `json:"id,omitempty"`
	D           PathData    `json:"d"`
	Fill        string      `json:"fill,omitempty"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	ClipID      string      `json:"clipId,omitempty"`
	Group       int         `json:"group"`
	Slice       int         `json:"slice"`
	Level       int         `json:"level,omitempty"` // progress ring level, 1-indexed
	Text        string      `json:"text,omitempty"`
	CurveID     string      `json:"curveId,omitempty"`
	Anchor      *orb.Point  `json:"anchor,omitempty"`
	Description string      `json:"description,omitempty"`

	// Band is the clipped stroke region of a progress arc, for renderers
	// without clip support. Not serialised.
	Band PathData `json:"-"`
}

// CenterDisc describes the white center circle and its image
type CenterDisc struct {
	Path   PathData `json:"d"`
	Radius float64  `json:"radius"`
	Fill   string   `json:"fill"`
	Stroke string   `json:"stroke"`
	ClipID string   `json:"clipId"`
	Image  string   `json:"image,omitempty"`
	ImageX float64  `json:"imageX"`
	ImageY float64  `json:"imageY"`
	ImageW float64  `json:"imageWidth"`
	ImageH float64  `json:"imageHeight"`
}

// Scene is the complete, ordered set of path descriptions for one indicator.
// Defs holds clip regions and label curves referenced by id from Elements.
type Scene struct {
	IndicatorID int          `json:"indicatorId"`
	Name        string       `json:"name"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Config      RadiusConfig `json:"config"`
	Layout      Layout       `json:"layout"`
	Defs        []Element    `json:"defs"`
	Elements    []Element    `json:"elements"`
	Center      CenterDisc   `json:"center"`
}

// Empty reports whether there is nothing to draw outside the center disc
func (s *Scene) Empty() bool {
	return s.Layout.Empty()
}

// BuildScene computes every path of an indicator for the given ring geometry.
// Elements are ordered slices (each followed by its progress arcs), then group
// bands, then group labels, then slice labels.
func BuildScene(ind *Indicator, cfg RadiusConfig) Scene {
	pg := NewPathGenerator(cfg, ind.Groups)
	size := cfg.Size()
	scene := Scene{
		IndicatorID: ind.ID,
		Name:        ind.DisplayName(),
		Width:       size,
		Height:      size,
		Config:      cfg,
		Layout:      pg.Layout,
		Defs:        []Element{},
		Elements:    []Element{},
		Center:      centerDisc(cfg, ind.CenterImage),
	}
	if pg.Layout.Empty() {
		return scene
	}

	for gi := range ind.Groups {
		grp := &ind.Groups[gi]
		for si := range grp.Slices {
			scene.Defs = append(scene.Defs, Element{
				Kind:  KindSliceClip,
				ID:    sliceClipID(gi, si),
				D:     pg.ClipPath(gi, si),
				Group: gi,
				Slice: si,
			})
		}
	}
	for gi := range ind.Groups {
		grp := &ind.Groups[gi]
		if len(grp.Slices) == 0 {
			continue
		}
		scene.Defs = append(scene.Defs, Element{
			Kind:  KindLabelCurve,
			ID:    groupCurveID(gi),
			D:     pg.GroupLabelCurve(gi, grp.DisplayLabel(gi)),
			Group: gi,
			Slice: -1,
		})
	}
	for gi := range ind.Groups {
		for si := range ind.Groups[gi].Slices {
			scene.Defs = append(scene.Defs, Element{
				Kind:  KindLabelCurve,
				ID:    sliceCurveID(gi, si),
				D:     pg.SliceLabelCurve(gi, si),
				Group: gi,
				Slice: si,
			})
		}
	}

	for gi := range ind.Groups {
		grp := &ind.Groups[gi]
		for si := range grp.Slices {
			sl := &grp.Slices[si]
			anchor, _ := pg.SliceCentroid(gi, si)
			scene.Elements = append(scene.Elements, Element{
				Kind:        KindSlice,
				ID:          fmt.Sprintf("slice-%d-%d", gi, si),
				D:           pg.SlicePath(gi, si),
				Fill:        sl.Color,
				Stroke:      SeparatorColor,
				StrokeWidth: cfg.StrokeWidth,
				Group:       gi,
				Slice:       si,
				Text:        sl.DisplayLabel(si),
				Anchor:      &anchor,
				Description: sl.Description,
			})
			for k, arc := range pg.ProgressArcs(gi, si, sl.Progress) {
				level := k + 1
				scene.Elements = append(scene.Elements, Element{
					Kind:        KindProgress,
					ID:          fmt.Sprintf("progress-%d-%d-%d", gi, si, k),
					D:           arc,
					Stroke:      sl.RankingColor,
					StrokeWidth: cfg.RankingStrokeWidth,
					ClipID:      sliceClipID(gi, si),
					Group:       gi,
					Slice:       si,
					Level:       level,
					Band:        pg.ProgressBand(gi, si, level),
				})
			}
		}
	}

	for gi := range ind.Groups {
		grp := &ind.Groups[gi]
		if len(grp.Slices) == 0 {
			continue
		}
		scene.Elements = append(scene.Elements, Element{
			Kind:        KindGroup,
			ID:          fmt.Sprintf("middle-%d", gi),
			D:           pg.GroupPath(gi),
			Fill:        grp.Color,
			Stroke:      SeparatorColor,
			StrokeWidth: cfg.StrokeWidth,
			Group:       gi,
			Slice:       -1,
			Text:        grp.DisplayLabel(gi),
		})
	}

	for gi := range ind.Groups {
		grp := &ind.Groups[gi]
		if len(grp.Slices) == 0 {
			continue
		}
		scene.Elements = append(scene.Elements, Element{
			Kind:    KindGroupLabel,
			Fill:    LabelColor,
			Group:   gi,
			Slice:   -1,
			Text:    grp.DisplayLabel(gi),
			CurveID: groupCurveID(gi),
		})
	}
	for gi := range ind.Groups {
		for si := range ind.Groups[gi].Slices {
			sl := &ind.Groups[gi].Slices[si]
			scene.Elements = append(scene.Elements, Element{
				Kind:    KindSliceLabel,
				Fill:    LabelColor,
				Group:   gi,
				Slice:   si,
				Text:    sl.DisplayLabel(si),
				CurveID: sliceCurveID(gi, si),
			})
		}
	}
	return scene
}

// Def returns the definition with the given id
func (s *Scene) Def(id string) (Element, bool) {
	for _, d := range s.Defs {
		if d.ID == id {
			return d, true
		}
	}
	return Element{}, false
}

// ElementsOf returns the elements of the given kind in scene order
func (s *Scene) ElementsOf(kind ElementKind) []Element {
	var out []Element
	for _, el := range s.Elements {
		if el.Kind == kind {
			out = append(out, el)
		}
	}
	return out
}

func centerDisc(cfg RadiusConfig, image string) CenterDisc {
	c := cfg.Center()
	r := cfg.CenterRadius

	var p PathData
	p.MoveTo(polarToCartesian(c, r, 0))
	p.Arc(c, r, 0, FullTurn)
	p.Close()

	return CenterDisc{
		Path:   p,
		Radius: r,
		Fill:   CenterFillColor,
		Stroke: CenterBorderColor,
		ClipID: centerClipID,
		Image:  image,
		ImageX: c.X() - r + centerImageInset,
		ImageY: c.Y() - r + centerImageInset,
		ImageW: r*2 - 2*centerImageInset,
		ImageH: r*2 - 2*centerImageInset,
	}
}

func sliceClipID(g, s int) string {
	return fmt.Sprintf("slice-clip-%d-%d", g, s)
}

func groupCurveID(g int) string {
	return fmt.Sprintf("curve%d", g)
}

func sliceCurveID(g, s int) string {
	return fmt.Sprintf("slice-curve-%d-%d", g, s)
}
