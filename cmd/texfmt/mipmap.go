package main

import (
	"image"

	"golang.org/x/image/draw"
)

// mipChain returns img followed by successively halved copies, at most
// count levels in total, stopping at 1×1. A count of 0 builds the full
// chain.
func mipChain(img image.Image, count int) []image.Image {
	levels := []image.Image{img}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for (w > 1 || h > 1) && (count == 0 || len(levels) < count) {
		w, h = max(1, w/2), max(1, h/2)
		levels = append(levels, downsample(levels[len(levels)-1], w, h))
	}
	return levels
}

func downsample(src image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
