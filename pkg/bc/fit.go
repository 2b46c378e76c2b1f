package bc

import (
	"encoding/binary"
	"math"
	"sort"
)

// candidate is one fitted colour block: packed endpoints, the palette index
// of every colour in the set, and the fitting error.
type candidate struct {
	a, b    uint16
	indices [16]uint8
	three   bool // three colours plus transparent
	err     float32
}

func noCandidate() candidate {
	return candidate{err: math.MaxFloat32}
}

func expand5(e int) int { return e<<3 | e>>2 }
func expand6(e int) int { return e<<2 | e>>4 }

// singleColourFit searches every endpoint pair per channel for the pair
// whose index-2 palette entry lands closest to the one colour in the set.
func singleColourFit(s *colourSet, three bool) candidate {
	p := s.points[0]
	var ends [2][3]int
	var sum float32
	for ch := 0; ch < 3; ch++ {
		target := int(p[ch]*255 + 0.5)
		bits, expand := 5, expand5
		if ch == 1 {
			bits, expand = 6, expand6
		}

		best := math.MaxInt
	search:
		for e0 := 0; e0 < 1<<bits; e0++ {
			for e1 := 0; e1 < 1<<bits; e1++ {
				x0, x1 := expand(e0), expand(e1)
				v := (2*x0 + x1) / 3
				if three {
					v = (x0 + x1) / 2
				}
				d := v - target
				if d < 0 {
					d = -d
				}
				if d < best {
					best = d
					ends[0][ch], ends[1][ch] = e0, e1
					if d == 0 {
						break search
					}
				}
			}
		}
		sum += float32(best*best) / (255 * 255)
	}

	c := candidate{
		a:     uint16(ends[0][0]<<11 | ends[0][1]<<5 | ends[0][2]),
		b:     uint16(ends[1][0]<<11 | ends[1][1]<<5 | ends[1][2]),
		three: three,
		err:   sum * s.weights[0],
	}
	c.indices[0] = 2
	return c
}

// palette returns the fitted colours in block index order.
func palette(start, end vec3, three bool) []vec3 {
	if three {
		return []vec3{start, end, start.add(end).scale(0.5)}
	}
	return []vec3{
		start,
		end,
		start.scale(2.0 / 3).add(end.scale(1.0 / 3)),
		start.scale(1.0 / 3).add(end.scale(2.0 / 3)),
	}
}

// rangeFit places the endpoints at the colours furthest along the
// principal axis.
func rangeFit(s *colourSet, weights [3]float32, three bool) candidate {
	axis := s.principalAxis()

	start, end := s.points[0], s.points[0]
	lo, hi := start.dot(axis), start.dot(axis)
	for i := 1; i < s.count; i++ {
		d := s.points[i].dot(axis)
		if d < lo {
			lo, start = d, s.points[i]
		} else if d > hi {
			hi, end = d, s.points[i]
		}
	}
	start, end = snap(start), snap(end)

	pal := palette(start, end, three)
	c := candidate{a: pack565(start), b: pack565(end), three: three}
	for i := 0; i < s.count; i++ {
		bestDist := float32(math.MaxFloat32)
		for k, q := range pal {
			if d := s.points[i].weightedDist(q, weights); d < bestDist {
				bestDist = d
				c.indices[i] = uint8(k)
			}
		}
		c.err += s.weights[i] * bestDist
	}
	return c
}

// Palette index of each cluster, ordered from start to end.
var (
	clusterIndices3 = [3]uint8{0, 2, 1}
	clusterIndices4 = [4]uint8{0, 2, 3, 1}
)

const maxClusterIterations = 8

// clusterFit orders the colours along an axis and tries every split of that
// ordering into contiguous clusters, solving for the least-squares
// endpoints of each split. With iterate set the axis is refined from the
// best endpoints and the search repeats while the ordering keeps changing.
func clusterFit(s *colourSet, weights [3]float32, three, iterate bool) candidate {
	n := s.count
	axis := s.principalAxis()
	best := noCandidate()

	var seen [][16]int
	iterations := 1
	if iterate {
		iterations = maxClusterIterations
	}

	for iter := 0; iter < iterations; iter++ {
		var order [16]int
		for i := range order[:n] {
			order[i] = i
		}
		dots := make([]float32, n)
		for i := 0; i < n; i++ {
			dots[i] = s.points[i].dot(axis)
		}
		sort.SliceStable(order[:n], func(x, y int) bool {
			return dots[order[x]] < dots[order[y]]
		})

		repeated := false
		for _, prev := range seen {
			if prev == order {
				repeated = true
				break
			}
		}
		if repeated {
			break
		}
		seen = append(seen, order)

		// Prefix sums of weight, weighted colour and weighted square colour
		// over the ordering.
		var w [17]float32
		var x [17]vec3
		var x2 vec3
		for i := 0; i < n; i++ {
			p, pw := s.points[order[i]], s.weights[order[i]]
			w[i+1] = w[i] + pw
			x[i+1] = x[i].add(p.scale(pw))
			x2 = x2.add(vec3{p[0] * p[0], p[1] * p[1], p[2] * p[2]}.scale(pw))
		}

		improved := false
		try := func(alpha2, beta2, alphabeta float32, alphax, betax vec3, splits [3]int) {
			den := alpha2*beta2 - alphabeta*alphabeta
			if den < 1e-9 {
				return
			}
			f := 1 / den
			a := snap(alphax.scale(beta2).sub(betax.scale(alphabeta)).scale(f))
			b := snap(betax.scale(alpha2).sub(alphax.scale(alphabeta)).scale(f))

			var e float32
			for ch := 0; ch < 3; ch++ {
				v := a[ch]*a[ch]*alpha2 + b[ch]*b[ch]*beta2 + x2[ch] +
					2*(a[ch]*b[ch]*alphabeta-a[ch]*alphax[ch]-b[ch]*betax[ch])
				e += weights[ch] * v
			}
			if e >= best.err {
				return
			}

			best = candidate{a: pack565(a), b: pack565(b), three: three, err: e}
			cluster := 0
			for m := 0; m < n; m++ {
				for cluster < len(splits) && m >= splits[cluster] {
					cluster++
				}
				if three {
					best.indices[order[m]] = clusterIndices3[cluster]
				} else {
					best.indices[order[m]] = clusterIndices4[cluster]
				}
			}
			axis = b.sub(a)
			improved = true
		}

		if three {
			for i := 0; i <= n; i++ {
				for j := i; j <= n; j++ {
					w0, w1, w2 := w[i], w[j]-w[i], w[n]-w[j]
					x0, x1, x2v := x[i], x[j].sub(x[i]), x[n].sub(x[j])
					try(
						w0+w1/4,
						w1/4+w2,
						w1/4,
						x0.add(x1.scale(0.5)),
						x1.scale(0.5).add(x2v),
						[3]int{i, j, n + 1},
					)
				}
			}
		} else {
			for i := 0; i <= n; i++ {
				for j := i; j <= n; j++ {
					for k := j; k <= n; k++ {
						w0, w1, w2, w3 := w[i], w[j]-w[i], w[k]-w[j], w[n]-w[k]
						x0, x1, x2v, x3 := x[i], x[j].sub(x[i]), x[k].sub(x[j]), x[n].sub(x[k])
						try(
							w0+w1*4/9+w2/9,
							w1/9+w2*4/9+w3,
							(w1+w2)*2/9,
							x0.add(x1.scale(2.0/3)).add(x2v.scale(1.0/3)),
							x1.scale(1.0/3).add(x2v.scale(2.0/3)).add(x3),
							[3]int{i, j, k},
						)
					}
				}
			}
		}

		if !improved {
			break
		}
	}
	return best
}

// writeColourBlock stores a candidate's endpoints and per-pixel indices,
// ordering the endpoints so the decoder selects the intended palette mode.
func writeColourBlock(c candidate, pixels [16]uint8, dst []byte) {
	a, b := c.a, c.b
	if c.three {
		if a > b {
			a, b = b, a
			for i, v := range pixels {
				if v < 2 {
					pixels[i] = v ^ 1
				}
			}
		}
	} else {
		switch {
		case a < b:
			a, b = b, a
			for i, v := range pixels {
				pixels[i] = v ^ 1
			}
		case a == b:
			pixels = [16]uint8{}
		}
	}

	binary.LittleEndian.PutUint16(dst[0:2], a)
	binary.LittleEndian.PutUint16(dst[2:4], b)
	var bits uint32
	for i, v := range pixels {
		bits |= uint32(v&3) << (2 * i)
	}
	binary.LittleEndian.PutUint32(dst[4:8], bits)
}
