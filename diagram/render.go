package diagram

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Renderer draws a scene with tdewolff/canvas. Progress rings are painted as
// their clipped bands since the canvas renderers have no clip support; curved
// labels are only available through the SVG markup writer.
type Renderer struct {
	Resolution canvas.Resolution // Resolution for PNG output (default: 1 pixel per unit)
	Background color.RGBA
	Labels     bool // draw straight labels on PNG output
}

// NewRenderer creates a renderer with default settings
func NewRenderer() *Renderer {
	return &Renderer{
		Resolution: canvas.DPMM(1.0),
		Background: canvas.White,
		Labels:     true,
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the scene as an SVG to the provided writer
func (r *Renderer) RenderToSVG(w io.Writer, scene *Scene) error {
	svgRenderer := svg.New(w, scene.Width, scene.Height, nil)
	r.renderToCanvas(svgRenderer, scene)
	return svgRenderer.Close()
}

// RenderToPNG writes the scene as a PNG to the provided writer
func (r *Renderer) RenderToPNG(w io.Writer, scene *Scene) error {
	img := r.Rasterize(scene)
	return png.Encode(w, img)
}

// Rasterize draws the scene into an in-memory image
func (r *Renderer) Rasterize(scene *Scene) draw.Image {
	res := r.Resolution
	if res == 0 {
		res = canvas.DPMM(1.0)
	}
	rast := rasterizer.New(scene.Width, scene.Height, res, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, scene)
	if r.Labels && !scene.Empty() {
		scale := float64(rast.Bounds().Dx()) / scene.Width
		drawLabels(rast, scene, scale)
	}
	return rast
}

// renderToCanvas renders the scene (shared logic for SVG and PNG). Scene
// coordinates are Y-down; canvas is Y-up so everything is reflected about the
// horizontal midline.
func (r *Renderer) renderToCanvas(renderer canvasRenderer, scene *Scene) {
	m := canvas.Identity.ReflectYAbout(scene.Height / 2)

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: r.Background}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	renderer.RenderPath(canvas.Rectangle(scene.Width, scene.Height), bgStyle, canvas.Identity)

	for _, el := range scene.Elements {
		switch el.Kind {
		case KindSlice, KindGroup:
			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: MustColor(el.Fill)}
			style.Stroke = canvas.Paint{Color: MustColor(el.Stroke)}
			style.StrokeWidth = el.StrokeWidth
			renderer.RenderPath(el.D.Canvas(), style, m)
		case KindProgress:
			if el.Band.IsEmpty() {
				continue
			}
			style := canvas.DefaultStyle
			style.Fill = canvas.Paint{Color: MustColor(el.Stroke)}
			style.Stroke = canvas.Paint{Color: canvas.Transparent}
			renderer.RenderPath(el.Band.Canvas(), style, m)
		}
	}

	center := scene.Center
	centerStyle := canvas.DefaultStyle
	centerStyle.Fill = canvas.Paint{Color: MustColor(center.Fill)}
	centerStyle.Stroke = canvas.Paint{Color: MustColor(center.Stroke)}
	centerStyle.StrokeWidth = 2.0
	renderer.RenderPath(center.Path.Canvas(), centerStyle, m)
}

// drawLabels writes group and slice labels horizontally at the middle of their
// label curves
func drawLabels(img draw.Image, scene *Scene, scale float64) {
	face := basicfont.Face7x13
	cfg := scene.Config
	c := cfg.Center()
	inset := cfg.LabelInset
	if inset <= 0 {
		inset = DefaultLabelInset
	}

	for _, el := range scene.Elements {
		var anchorRadius, angle float64
		switch el.Kind {
		case KindGroupLabel:
			gs, ok := scene.Layout.Group(el.Group)
			if !ok {
				continue
			}
			anchorRadius, angle = cfg.MiddleRadius-inset, gs.Mid()
		case KindSliceLabel:
			sp, ok := scene.Layout.Slice(el.Group, el.Slice)
			if !ok {
				continue
			}
			anchorRadius, angle = cfg.OuterRadius-inset, sp.Mid()
		default:
			continue
		}
		p := polarToCartesian(c, anchorRadius, angle)
		width := font.MeasureString(face, el.Text).Round()
		x := int(p.X()*scale) - width/2
		y := int(p.Y()*scale) + face.Ascent/2
		drawText(img, x, y, el.Text, MustColor(el.Fill))
	}
}

// drawText renders text onto an image at the specified position
func drawText(img draw.Image, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
