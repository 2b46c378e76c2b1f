package main

import (
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/EchoTools/texfmt/pkg/pixel"
)

type imageEncoder func(w io.Writer, img image.Image) error

// imageEncoders is keyed by lower-case file extension.
var imageEncoders = map[string]imageEncoder{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
	".gif":  encodeGIF,
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// encodeGIF reduces img to a 256 colour palette by median cut. Alpha is
// kept only as fully transparent or opaque.
func encodeGIF(w io.Writer, img image.Image) error {
	return gif.Encode(w, img, &gif.Options{NumColors: 256, Quantizer: quantize.MedianCutQuantizer{}})
}

func imageEncoderFor(path string) (imageEncoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := imageEncoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported output extension %q (want .png, .bmp, .gif, .tif or .tiff)", ext)
	}
	return enc, nil
}

// readImage decodes any registered image format: PNG, JPEG, GIF, BMP or
// TIFF.
func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	pixel.Logger().Debug("texfmt: read image", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

func writeImage(path string, img image.Image, enc imageEncoder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
