// Package bc implements the BC1, BC2 and BC3 (DXT1, DXT3, DXT5) block
// compression formats.
//
// Surfaces are split into 4×4 pixel blocks. BC1 stores each block in 8
// bytes: two RGB565 endpoints and sixteen 2-bit palette indices, with an
// optional 1-bit alpha. BC2 prefixes the BC1 colour block with 4-bit
// explicit alpha; BC3 prefixes it with two 8-bit alpha endpoints and 3-bit
// indices.
//
// Pixels are 8-bit RGBA, row-major, non-premultiplied.
package bc

import (
	"errors"
	"fmt"
)

var (
	ErrBadFormat     = errors.New("bc: unknown block format")
	ErrShortBuffer   = errors.New("bc: buffer too short")
	ErrBadDimensions = errors.New("bc: bad dimensions")
)

// Format is a block compression layout.
type Format int

const (
	BC1 Format = iota + 1 // DXT1: RGB + 1-bit alpha, 8 bytes/block
	BC2                   // DXT3: RGB + explicit 4-bit alpha, 16 bytes/block
	BC3                   // DXT5: RGB + interpolated alpha, 16 bytes/block
)

// BlockSize returns the bytes per 4×4 block, or 0 for an unknown format.
func (f Format) BlockSize() int {
	switch f {
	case BC1:
		return 8
	case BC2, BC3:
		return 16
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case BC1:
		return "BC1"
	case BC2:
		return "BC2"
	case BC3:
		return "BC3"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// CompressedSize returns the byte size of a width×height surface. Partial
// edge blocks count as whole blocks.
func CompressedSize(f Format, width, height int) int {
	return ((width + 3) / 4) * ((height + 3) / 4) * f.BlockSize()
}

// Algorithm selects how colour endpoints are fitted.
type Algorithm int

const (
	// RangeFit takes the extremes of the colours along their principal
	// axis. Fast, lowest quality.
	RangeFit Algorithm = iota
	// ClusterFit searches every ordered partition of the colours along the
	// principal axis for the least-squares endpoints.
	ClusterFit
	// IterativeClusterFit repeats ClusterFit along the axis of the best
	// endpoints found so far until the ordering stops changing.
	IterativeClusterFit
)

func (a Algorithm) String() string {
	switch a {
	case RangeFit:
		return "range"
	case ClusterFit:
		return "cluster"
	case IterativeClusterFit:
		return "iterative"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm accepts the names returned by Algorithm.String.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range []Algorithm{RangeFit, ClusterFit, IterativeClusterFit} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("bc: unknown algorithm %q", s)
}

// Channel error weights, in R, G, B order.
var (
	UniformWeights    = [3]float32{1, 1, 1}
	PerceptualWeights = [3]float32{0.2126, 0.7152, 0.0722}
)

// Params controls compression quality.
type Params struct {
	Algorithm Algorithm
	// Weights scale the squared error of each colour channel.
	Weights [3]float32
	// WeighColourByAlpha makes translucent pixels count less when fitting
	// colour endpoints.
	WeighColourByAlpha bool
}

// DefaultParams is iterative cluster fit with uniform weights and colour
// weighted by alpha.
var DefaultParams = Params{
	Algorithm:          IterativeClusterFit,
	Weights:            UniformWeights,
	WeighColourByAlpha: true,
}
