package bc

import "encoding/binary"

// DecompressBlock decodes one block of format f from src into 16 RGBA
// pixels. src must hold at least f.BlockSize() bytes.
func DecompressBlock(f Format, src []byte, dst *[64]byte) {
	switch f {
	case BC1:
		decodeColourBlock(src[:8], dst, true)
	case BC2:
		decodeColourBlock(src[8:16], dst, false)
		decodeExplicitAlpha(src[:8], dst)
	case BC3:
		decodeColourBlock(src[8:16], dst, false)
		decodeInterpolatedAlpha(src[:8], dst)
	}
}

// unpack565 expands an RGB565 value by bit replication.
func unpack565(c uint16) [4]int {
	r := int(c>>11) & 0x1F
	g := int(c>>5) & 0x3F
	b := int(c) & 0x1F
	return [4]int{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2, 255}
}

// colourPalette builds the four block colours. BC1 blocks whose first
// endpoint is not greater than the second use three colours plus
// transparent black.
func colourPalette(c0, c1 uint16, isBC1 bool) [4][4]uint8 {
	p0, p1 := unpack565(c0), unpack565(c1)

	var pal [4][4]uint8
	for ch := 0; ch < 4; ch++ {
		pal[0][ch] = uint8(p0[ch])
		pal[1][ch] = uint8(p1[ch])
	}

	if !isBC1 || c0 > c1 {
		for ch := 0; ch < 3; ch++ {
			pal[2][ch] = uint8((2*p0[ch] + p1[ch]) / 3)
			pal[3][ch] = uint8((p0[ch] + 2*p1[ch]) / 3)
		}
		pal[2][3], pal[3][3] = 255, 255
	} else {
		for ch := 0; ch < 3; ch++ {
			pal[2][ch] = uint8((p0[ch] + p1[ch]) / 2)
		}
		pal[2][3] = 255
		pal[3] = [4]uint8{0, 0, 0, 0}
	}
	return pal
}

func decodeColourBlock(src []byte, dst *[64]byte, isBC1 bool) {
	c0 := binary.LittleEndian.Uint16(src[0:2])
	c1 := binary.LittleEndian.Uint16(src[2:4])
	indices := binary.LittleEndian.Uint32(src[4:8])

	pal := colourPalette(c0, c1, isBC1)
	for i := 0; i < 16; i++ {
		copy(dst[i*4:i*4+4], pal[(indices>>(2*i))&3][:])
	}
}

func decodeExplicitAlpha(src []byte, dst *[64]byte) {
	for i := 0; i < 8; i++ {
		lo := src[i] & 0x0F
		hi := src[i] >> 4
		dst[(2*i)*4+3] = lo | lo<<4
		dst[(2*i+1)*4+3] = hi | hi<<4
	}
}

// alphaPalette builds the eight BC3 alpha values. a0 > a1 selects eight
// interpolated values; otherwise six plus 0 and 255.
func alphaPalette(a0, a1 uint8) [8]uint8 {
	var pal [8]uint8
	pal[0], pal[1] = a0, a1
	x0, x1 := int(a0), int(a1)
	if a0 > a1 {
		for i := 2; i < 8; i++ {
			pal[i] = uint8((x0*(8-i) + x1*(i-1)) / 7)
		}
	} else {
		for i := 2; i < 6; i++ {
			pal[i] = uint8((x0*(6-i) + x1*(i-1)) / 5)
		}
		pal[6], pal[7] = 0, 255
	}
	return pal
}

func decodeInterpolatedAlpha(src []byte, dst *[64]byte) {
	pal := alphaPalette(src[0], src[1])

	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(src[2+i]) << (8 * i)
	}
	for i := 0; i < 16; i++ {
		dst[i*4+3] = pal[(bits>>(3*i))&7]
	}
}
