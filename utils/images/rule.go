package images

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// ParseHexColor parses "#RRGGBB" or "#RGB".
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Rule generates a solid horizontal line picture.
func Rule(width, thickness int, hexColor string) (*Image, error) {
	c, err := ParseHexColor(hexColor)
	if err != nil {
		return nil, err
	}
	img := imaging.New(max(width, 1), max(thickness, 1), c)
	return encodeImage(img, "png", 0)
}
