package bc

import "math"

// CompressBlock encodes 16 RGBA pixels as one block of format f into dst,
// which must hold at least f.BlockSize() bytes. Pixels whose bit in mask is
// clear are ignored; use 0xFFFF for a full block.
func CompressBlock(f Format, rgba *[64]byte, mask uint16, p Params, dst []byte) {
	switch f {
	case BC1:
		compressColour(rgba, mask, true, p, dst[:8])
	case BC2:
		compressExplicitAlpha(rgba, mask, dst[:8])
		compressColour(rgba, mask, false, p, dst[8:16])
	case BC3:
		compressInterpolatedAlpha(rgba, mask, dst[:8])
		compressColour(rgba, mask, false, p, dst[8:16])
	}
}

func compressColour(rgba *[64]byte, mask uint16, isBC1 bool, p Params, dst []byte) {
	s := newColourSet(rgba, mask, isBC1, p.WeighColourByAlpha)

	var best candidate
	switch {
	case s.count == 0:
		// Nothing opaque: both endpoints black, every pixel transparent.
		best = candidate{three: isBC1}
	case s.count == 1:
		best = fitBest(s, isBC1, func(three bool) candidate {
			return singleColourFit(s, three)
		})
	case p.Algorithm == RangeFit:
		best = fitBest(s, isBC1, func(three bool) candidate {
			return rangeFit(s, p.Weights, three)
		})
	default:
		iterate := p.Algorithm == IterativeClusterFit
		best = fitBest(s, isBC1, func(three bool) candidate {
			return clusterFit(s, p.Weights, three, iterate)
		})
	}

	var pixels [16]uint8
	for i, k := range s.remap {
		if k < 0 {
			pixels[i] = 3
		} else {
			pixels[i] = best.indices[k]
		}
	}
	writeColourBlock(best, pixels, dst)
}

// fitBest runs fit in every palette mode the block allows and keeps the
// lowest error. Only BC1 has the three-colour mode, and it is the only
// mode for BC1 blocks with transparent pixels.
func fitBest(s *colourSet, isBC1 bool, fit func(three bool) candidate) candidate {
	if !isBC1 {
		return fit(false)
	}
	best := fit(true)
	if s.transparent {
		return best
	}
	if four := fit(false); four.err < best.err {
		best = four
	}
	return best
}

func compressExplicitAlpha(rgba *[64]byte, mask uint16, dst []byte) {
	for i := 0; i < 8; i++ {
		var q [2]byte
		for j := 0; j < 2; j++ {
			px := 2*i + j
			if mask&(1<<px) != 0 {
				q[j] = byte((int(rgba[px*4+3])*15 + 127) / 255)
			}
		}
		dst[i] = q[0] | q[1]<<4
	}
}

// fixRange widens [lo, hi] to at least steps wide so interpolation has
// distinct values to work with.
func fixRange(lo, hi, steps int) (int, int) {
	if hi-lo < steps {
		hi = min(lo+steps, 255)
	}
	if hi-lo < steps {
		lo = max(0, hi-steps)
	}
	return lo, hi
}

// fitAlpha picks the nearest palette entry for every pixel and returns the
// packed 48 index bits with the squared error.
func fitAlpha(rgba *[64]byte, mask uint16, a0, a1 uint8) (uint64, int) {
	pal := alphaPalette(a0, a1)
	var bits uint64
	total := 0
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		v := int(rgba[i*4+3])
		bestIdx, bestErr := 0, math.MaxInt
		for k, q := range pal {
			d := int(q) - v
			if d*d < bestErr {
				bestIdx, bestErr = k, d*d
			}
		}
		bits |= uint64(bestIdx) << (3 * i)
		total += bestErr
	}
	return bits, total
}

// compressInterpolatedAlpha tries the six-value mode (with exact 0 and 255)
// and the eight-value mode and keeps the lower error.
func compressInterpolatedAlpha(rgba *[64]byte, mask uint16, dst []byte) {
	min5, max5 := 255, 0
	min7, max7 := 255, 0
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		v := int(rgba[i*4+3])
		min7, max7 = min(min7, v), max(max7, v)
		if v != 0 && v != 255 {
			min5, max5 = min(min5, v), max(max5, v)
		}
	}
	if min5 > max5 {
		min5 = max5
	}
	if min7 > max7 {
		min7 = max7
	}
	min5, max5 = fixRange(min5, max5, 5)
	min7, max7 = fixRange(min7, max7, 7)

	// Six-value mode needs a0 <= a1, eight-value mode a0 > a1.
	bits5, err5 := fitAlpha(rgba, mask, uint8(min5), uint8(max5))
	bits7, err7 := fitAlpha(rgba, mask, uint8(max7), uint8(min7))

	if err5 <= err7 {
		dst[0], dst[1] = uint8(min5), uint8(max5)
		putBits48(dst[2:8], bits5)
	} else {
		dst[0], dst[1] = uint8(max7), uint8(min7)
		putBits48(dst[2:8], bits7)
	}
}

func putBits48(dst []byte, bits uint64) {
	for i := 0; i < 6; i++ {
		dst[i] = byte(bits >> (8 * i))
	}
}
