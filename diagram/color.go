package diagram

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// fallbackColor is used for tokens that cannot be parsed
var fallbackColor = color.RGBA{0xE2, 0xE2, 0xE2, 255}

// ParseColor parses a CSS color token: #RGB, #RRGGBB, #RRGGBBAA, a CSS color
// name or "transparent"/"none". Unparseable tokens yield ok=false and the
// neutral default slice color.
func ParseColor(token string) (c color.RGBA, ok bool) {
	token = strings.TrimSpace(strings.ToLower(token))
	switch token {
	case "":
		return fallbackColor, false
	case "transparent", "none":
		return color.RGBA{}, true
	}
	if token[0] != '#' {
		if named, found := colornames.Map[token]; found {
			return named, true
		}
		return fallbackColor, false
	}

	hex := token[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return fallbackColor, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallbackColor, false
	}
	r, g, b, a := uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)
	return nrgbaToRGBA(color.NRGBA{r, g, b, a}), true
}

// MustColor parses token, falling back to the default slice color
func MustColor(token string) color.RGBA {
	c, _ := ParseColor(token)
	return c
}

// ValidColor reports whether token is a color the renderers understand
func ValidColor(token string) bool {
	_, ok := ParseColor(token)
	return ok
}

// nrgbaToRGBA premultiplies alpha, which the canvas renderers expect
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}
