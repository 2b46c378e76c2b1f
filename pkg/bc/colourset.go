package bc

type vec3 [3]float32

func (a vec3) add(b vec3) vec3      { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) sub(b vec3) vec3      { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) scale(s float32) vec3 { return vec3{a[0] * s, a[1] * s, a[2] * s} }
func (a vec3) dot(b vec3) float32   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

// weightedDist is the squared distance scaled per channel by w.
func (a vec3) weightedDist(b vec3, w [3]float32) float32 {
	d := a.sub(b)
	return w[0]*d[0]*d[0] + w[1]*d[1]*d[1] + w[2]*d[2]*d[2]
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var grid = vec3{31, 63, 31}

// snap clamps v to [0,1] and rounds it to the RGB565 lattice.
func snap(v vec3) vec3 {
	var out vec3
	for ch := 0; ch < 3; ch++ {
		out[ch] = float32(int(clamp01(v[ch])*grid[ch]+0.5)) / grid[ch]
	}
	return out
}

func pack565(v vec3) uint16 {
	r := uint16(clamp01(v[0])*31 + 0.5)
	g := uint16(clamp01(v[1])*63 + 0.5)
	b := uint16(clamp01(v[2])*31 + 0.5)
	return r<<11 | g<<5 | b
}

// colourSet is the distinct colours of one block with their weights.
type colourSet struct {
	count       int
	points      [16]vec3
	weights     [16]float32
	remap       [16]int // pixel to point index, -1 when excluded
	transparent bool
}

// newColourSet collects the colours of the pixels selected by mask. For
// BC1, pixels with alpha below 128 are excluded and mark the block as
// needing the transparent palette entry.
func newColourSet(rgba *[64]byte, mask uint16, isBC1, weighByAlpha bool) *colourSet {
	s := &colourSet{}
	for i := 0; i < 16; i++ {
		s.remap[i] = -1
		if mask&(1<<i) == 0 {
			continue
		}
		px := rgba[i*4 : i*4+4]
		if isBC1 && px[3] < 128 {
			s.transparent = true
			continue
		}

		w := float32(1)
		if weighByAlpha {
			w = float32(int(px[3])+1) / 256
		}

		merged := false
		for j := 0; j < i; j++ {
			if s.remap[j] < 0 {
				continue
			}
			q := rgba[j*4 : j*4+4]
			if px[0] == q[0] && px[1] == q[1] && px[2] == q[2] {
				k := s.remap[j]
				s.weights[k] += w
				s.remap[i] = k
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		s.points[s.count] = vec3{float32(px[0]) / 255, float32(px[1]) / 255, float32(px[2]) / 255}
		s.weights[s.count] = w
		s.remap[i] = s.count
		s.count++
	}
	return s
}

// principalAxis returns the dominant direction of the weighted colours,
// found by power iteration on their covariance.
func (s *colourSet) principalAxis() vec3 {
	var total float32
	var centroid vec3
	for i := 0; i < s.count; i++ {
		total += s.weights[i]
		centroid = centroid.add(s.points[i].scale(s.weights[i]))
	}
	if total > 0 {
		centroid = centroid.scale(1 / total)
	}

	var cov [3][3]float32
	for i := 0; i < s.count; i++ {
		d := s.points[i].sub(centroid)
		w := s.weights[i]
		for r := 0; r < 3; r++ {
			for c := r; c < 3; c++ {
				cov[r][c] += w * d[r] * d[c]
			}
		}
	}
	cov[1][0], cov[2][0], cov[2][1] = cov[0][1], cov[0][2], cov[1][2]

	// Start from the row with the largest diagonal.
	row := 0
	for r := 1; r < 3; r++ {
		if cov[r][r] > cov[row][row] {
			row = r
		}
	}
	v := vec3(cov[row])
	if v.dot(v) == 0 {
		return vec3{1, 1, 1}
	}
	for iter := 0; iter < 8; iter++ {
		var next vec3
		for r := 0; r < 3; r++ {
			next[r] = vec3(cov[r]).dot(v)
		}
		m := max(abs32(next[0]), abs32(next[1]), abs32(next[2]))
		if m == 0 {
			break
		}
		v = next.scale(1 / m)
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
