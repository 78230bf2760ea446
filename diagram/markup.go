package diagram

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	svgo "github.com/ajstarks/svgo/float"
)

// Font settings of the curved labels
const (
	GroupLabelFontSize = 14
	SliceLabelFontSize = 11
)

// WriteSVGMarkup writes the scene as standalone SVG markup with real clip
// paths and text-on-path labels
func WriteSVGMarkup(w io.Writer, scene *Scene) error {
	bw := bufio.NewWriter(w)
	doc := svgo.New(bw)

	width, height := formatNum(scene.Width), formatNum(scene.Height)
	doc.Startraw(
		attr("width", width),
		attr("height", height),
		attr("viewBox", "0 0 "+width+" "+height),
	)

	doc.Def()
	for _, d := range scene.Defs {
		switch d.Kind {
		case KindSliceClip:
			doc.ClipPath(attr("id", d.ID))
			doc.Path(d.D.String())
			doc.ClipEnd()
		case KindLabelCurve:
			doc.Path(d.D.String(), attr("id", d.ID), `fill="none"`)
		}
	}
	doc.ClipPath(attr("id", scene.Center.ClipID))
	doc.Path(scene.Center.Path.String())
	doc.ClipEnd()
	doc.DefEnd()

	for _, el := range scene.Elements {
		switch el.Kind {
		case KindSlice, KindGroup:
			doc.Path(el.D.String(),
				attr("id", el.ID),
				attr("fill", el.Fill),
				attr("stroke", el.Stroke),
				attr("stroke-width", formatNum(el.StrokeWidth)))
		case KindProgress:
			doc.Path(el.D.String(),
				attr("id", el.ID),
				`fill="none"`,
				attr("stroke", el.Stroke),
				attr("stroke-width", formatNum(el.StrokeWidth)),
				clipRef(el.ClipID))
		}
	}

	c := scene.Center
	doc.Path(c.Path.String(), attr("fill", c.Fill), attr("stroke", c.Stroke), `stroke-width="2"`)
	if c.Image != "" {
		doc.Image(c.ImageX, c.ImageY, int(math.Round(c.ImageW)), int(math.Round(c.ImageH)), escape(c.Image),
			`preserveAspectRatio="xMidYMid slice"`, clipRef(c.ClipID))
	}

	for _, el := range scene.Elements {
		var size int
		switch el.Kind {
		case KindGroupLabel:
			size = GroupLabelFontSize
		case KindSliceLabel:
			size = SliceLabelFontSize
		default:
			continue
		}
		textOnPath(doc, el.Text, el.CurveID,
			attr("fill", el.Fill), fmt.Sprintf(`font-size="%d"`, size), `text-anchor="middle"`)
	}

	doc.End()
	return bw.Flush()
}

// textOnPath centres text on the curve with the given id. svgo's Textpath has
// no slot for textPath attributes, and the label needs startOffset.
func textOnPath(doc *svgo.SVG, text, curveID string, attrs ...string) {
	fmt.Fprintf(doc.Writer, `<text %s><textPath xlink:href="#%s" startOffset="50%%">`, strings.Join(attrs, " "), curveID)
	_ = xml.EscapeText(doc.Writer, []byte(text))
	fmt.Fprintln(doc.Writer, `</textPath></text>`)
}

// attr formats an escaped name="value" pair for svgo's attribute lists
func attr(name, value string) string {
	return name + `="` + escape(value) + `"`
}

func clipRef(id string) string {
	return attr("clip-path", "url(#"+id+")")
}

// escape makes s safe for both attribute values and text content
func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
