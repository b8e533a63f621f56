package images

import (
	"image"
	"image/color"
	"image/draw"
)

// IsGrayscale reports whether img is opaque and all pixels have R==G==B.
// Slow for large images, call it only for images being re-encoded anyway.
func IsGrayscale(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A != 0xff || c.R != c.G || c.G != c.B {
				return false
			}
		}
	}
	return true
}

// toGray converts image to 8 bit gray, PNG encodes it with a single channel.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	dst := image.NewGray(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}
