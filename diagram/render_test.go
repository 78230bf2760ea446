package diagram

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoColorScene(t *testing.T) Scene {
	t.Helper()
	ind := newTestIndicator(2, 2)
	require.True(t, ind.RecolorGroup(0, strPtr("#FF0000"), strPtr("#000000")))
	require.True(t, ind.RecolorGroup(1, strPtr("#0000FF"), strPtr("#000000")))
	return BuildScene(&ind, DefaultRadiusConfig())
}

// ---------------------------------------------------------------------------
// SVG
// ---------------------------------------------------------------------------

func TestRenderToSVG(t *testing.T) {
	scene := twoColorScene(t)
	r := NewRenderer()

	var buf bytes.Buffer
	require.NoError(t, r.RenderToSVG(&buf, &scene))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.GreaterOrEqual(t, strings.Count(out, "<path"), len(scene.ElementsOf(KindSlice)))
}

// ---------------------------------------------------------------------------
// PNG
// ---------------------------------------------------------------------------

func TestRenderToPNG(t *testing.T) {
	scene := twoColorScene(t)
	r := NewRenderer()

	var buf bytes.Buffer
	require.NoError(t, r.RenderToPNG(&buf, &scene))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")), "output should be a PNG")

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, 600, b.Dx())
	assert.Equal(t, 600, b.Dy())
}

func TestRasterize_Orientation(t *testing.T) {
	scene := twoColorScene(t)
	r := NewRenderer()
	r.Labels = false
	img := r.Rasterize(&scene)

	at := func(radius, angle float64) (int, int) {
		return int(300 + radius*math.Cos(angle)), int(300 + radius*math.Sin(angle))
	}

	// angles grow clockwise from +X on a Y-down image: group 0 covers the lower half
	x, y := at(240, math.Pi/4)
	cr, _, cb, _ := img.At(x, y).RGBA()
	assert.Greater(t, cr>>8, uint32(200), "lower half should be red at (%d,%d)", x, y)
	assert.Less(t, cb>>8, uint32(50))

	x, y = at(240, 5*math.Pi/4)
	cr, _, cb, _ = img.At(x, y).RGBA()
	assert.Greater(t, cb>>8, uint32(200), "upper half should be blue at (%d,%d)", x, y)
	assert.Less(t, cr>>8, uint32(50))

	cr, cg, cb, _ := img.At(300, 300).RGBA()
	assert.Equal(t, []uint32{0xFF, 0xFF, 0xFF}, []uint32{cr >> 8, cg >> 8, cb >> 8}, "center disc is white")
}

func TestRasterize_ProgressBand(t *testing.T) {
	ind := newTestIndicator(4)
	require.True(t, ind.RecolorGroup(0, strPtr("#FFFFFF"), strPtr("#00FF00")))
	ind.Groups[0].Slices[0].Progress = 3
	scene := BuildScene(&ind, DefaultRadiusConfig())

	r := NewRenderer()
	r.Labels = false
	img := r.Rasterize(&scene)

	radius := DefaultRadiusConfig().ProgressRadius(3)
	x := int(300 + radius*math.Cos(math.Pi/4))
	y := int(300 + radius*math.Sin(math.Pi/4))
	cr, cg, _, _ := img.At(x, y).RGBA()
	assert.Greater(t, cg>>8, uint32(200), "progress ring 3 should be painted")
	assert.Less(t, cr>>8, uint32(50))

	x = int(300 + 290*math.Cos(math.Pi/4))
	y = int(300 + 290*math.Sin(math.Pi/4))
	cr, _, _, _ = img.At(x, y).RGBA()
	assert.Greater(t, cr>>8, uint32(200), "beyond the last ring the slice fill shows")
}

func TestRasterize_EmptyScene(t *testing.T) {
	ind := Indicator{ID: 1}
	scene := BuildScene(&ind, DefaultRadiusConfig())

	img := NewRenderer().Rasterize(&scene)
	assert.Equal(t, 600, img.Bounds().Dx())
}
