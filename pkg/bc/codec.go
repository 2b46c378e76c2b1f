package bc

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// Codec compresses and decompresses whole surfaces. The zero value uses
// range fit with uniform weights; use NewCodec(DefaultParams) for the
// default quality settings.
type Codec struct {
	Params Params
}

// NewCodec returns a Codec using p.
func NewCodec(p Params) *Codec {
	return &Codec{Params: p}
}

// Compress encodes a width×height RGBA surface. Edge blocks of surfaces
// whose sides are not multiples of 4 are fitted to the pixels present.
func (c *Codec) Compress(f Format, width, height int, rgba []byte) ([]byte, error) {
	bs := f.BlockSize()
	if bs == 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadFormat, int(f))
	}
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if need := width * height * 4; len(rgba) < need {
		return nil, fmt.Errorf("%w: %dx%d RGBA needs %d bytes, got %d", ErrShortBuffer, width, height, need, len(rgba))
	}

	p := c.Params
	if p.Weights == ([3]float32{}) {
		p.Weights = UniformWeights
	}

	bw, bh := (width+3)/4, (height+3)/4
	out := make([]byte, bw*bh*bs)
	forEachBlockRow(bh, func(by int) {
		var block [64]byte
		for bx := 0; bx < bw; bx++ {
			mask := gatherBlock(rgba, width, height, bx, by, &block)
			i := (by*bw + bx) * bs
			CompressBlock(f, &block, mask, p, out[i:i+bs])
		}
	})
	return out, nil
}

// Decompress decodes a width×height surface of format f to RGBA.
func (c *Codec) Decompress(f Format, width, height int, blocks []byte) ([]byte, error) {
	bs := f.BlockSize()
	if bs == 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadFormat, int(f))
	}
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if need := CompressedSize(f, width, height); len(blocks) < need {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes, got %d", ErrShortBuffer, f, width, height, need, len(blocks))
	}

	bw, bh := (width+3)/4, (height+3)/4
	out := make([]byte, width*height*4)
	forEachBlockRow(bh, func(by int) {
		var block [64]byte
		for bx := 0; bx < bw; bx++ {
			i := (by*bw + bx) * bs
			DecompressBlock(f, blocks[i:i+bs], &block)
			scatterBlock(out, width, height, bx, by, &block)
		}
	})
	return out, nil
}

// checkDimensions rejects negative sides and surfaces whose RGBA size does
// not fit in an int.
func checkDimensions(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if width > 0 && height > math.MaxInt/4/width {
		return fmt.Errorf("%w: %dx%d is too large", ErrBadDimensions, width, height)
	}
	return nil
}

// gatherBlock copies the pixels of block (bx, by) and returns the mask of
// those inside the surface.
func gatherBlock(rgba []byte, width, height, bx, by int, block *[64]byte) uint16 {
	var mask uint16
	*block = [64]byte{}
	for py := 0; py < 4; py++ {
		y := by*4 + py
		if y >= height {
			break
		}
		for px := 0; px < 4; px++ {
			x := bx*4 + px
			if x >= width {
				break
			}
			i := py*4 + px
			copy(block[i*4:i*4+4], rgba[(y*width+x)*4:])
			mask |= 1 << i
		}
	}
	return mask
}

func scatterBlock(rgba []byte, width, height, bx, by int, block *[64]byte) {
	for py := 0; py < 4; py++ {
		y := by*4 + py
		if y >= height {
			break
		}
		for px := 0; px < 4; px++ {
			x := bx*4 + px
			if x >= width {
				break
			}
			i := py*4 + px
			copy(rgba[(y*width+x)*4:(y*width+x)*4+4], block[i*4:i*4+4])
		}
	}
}

// forEachBlockRow runs fn for every block row, spreading rows over one
// worker per CPU. Rows write disjoint output ranges.
func forEachBlockRow(rows int, fn func(by int)) {
	workers := min(runtime.NumCPU(), rows)
	if workers <= 1 {
		for by := 0; by < rows; by++ {
			fn(by)
		}
		return
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for by := range jobs {
				fn(by)
			}
		}()
	}
	for by := 0; by < rows; by++ {
		jobs <- by
	}
	close(jobs)
	wg.Wait()
}
