package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// ToNRGBA copies a canonical buffer into a new width×height image.
func ToNRGBA(canonical []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if want := width * height * CanonicalStride; len(canonical) != want {
		return nil, fmt.Errorf("%w: %dx%d canonical needs %d bytes, got %d",
			ErrInvalidBufferLength, width, height, want, len(canonical))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(canonical); i += CanonicalStride {
		img.Pix[i+0] = canonical[i+chR]
		img.Pix[i+1] = canonical[i+chG]
		img.Pix[i+2] = canonical[i+chB]
		img.Pix[i+3] = canonical[i+chA]
	}
	return img, nil
}

// FromImage converts img to a canonical buffer, row-major from the top-left
// of its bounds, with non-premultiplied alpha.
func FromImage(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*CanonicalStride)

	if src, ok := img.(*image.NRGBA); ok {
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < b.Dx(); x++ {
				p := row[x*4 : x*4+4]
				out[i+chB], out[i+chG], out[i+chR], out[i+chA] = p[2], p[1], p[0], p[3]
				i += CanonicalStride
			}
		}
		return out
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out[i+chB], out[i+chG], out[i+chR], out[i+chA] = c.B, c.G, c.R, c.A
			i += CanonicalStride
		}
	}
	return out
}
