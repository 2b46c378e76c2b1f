package pixel

// converter translates one native pixel to and from one canonical pixel.
// dst and src are exactly one pixel long on their respective sides.
type converter struct {
	stride int
	decode func(dst, src []byte)
	encode func(dst, src []byte)
}

// Canonical byte positions.
const (
	chB = 0
	chG = 1
	chR = 2
	chA = 3
)

var converters = map[Format]*converter{
	L8:       {stride: 1, decode: decodeL8, encode: encodeL8},
	A8:       {stride: 1, decode: decodeA8, encode: encodeA8},
	A4R4G4B4: {stride: 2, decode: decodeA4R4G4B4, encode: encodeA4R4G4B4},
	A1R5G5B5: {stride: 2, decode: decodeA1R5G5B5, encode: encodeA1R5G5B5},
	A8R8G8B8: {stride: 4, decode: copyPixel, encode: copyPixel},
	X8R8G8B8: {stride: 4, decode: decodeX8R8G8B8, encode: encodeX8R8G8B8},
}

func (c *converter) decodeAll(native []byte) []byte {
	n := len(native) / c.stride
	out := make([]byte, n*CanonicalStride)
	for i := 0; i < n; i++ {
		c.decode(out[i*CanonicalStride:(i+1)*CanonicalStride], native[i*c.stride:(i+1)*c.stride])
	}
	return out
}

func (c *converter) encodeAll(canonical []byte) []byte {
	n := len(canonical) / CanonicalStride
	out := make([]byte, n*c.stride)
	for i := 0; i < n; i++ {
		c.encode(out[i*c.stride:(i+1)*c.stride], canonical[i*CanonicalStride:(i+1)*CanonicalStride])
	}
	return out
}

func decodeL8(dst, src []byte) {
	v := src[0]
	dst[chB], dst[chG], dst[chR], dst[chA] = v, v, v, 255
}

// encodeL8 keeps the first canonical byte. Grey pixels carry the same value
// in all three colour channels.
func encodeL8(dst, src []byte) {
	dst[0] = src[0]
}

func decodeA8(dst, src []byte) {
	dst[chB], dst[chG], dst[chR], dst[chA] = 0, 0, 0, src[0]
}

func encodeA8(dst, src []byte) {
	dst[0] = src[chA]
}

// 4-bit fields widen by shifting into the high nibble; the low nibble stays
// zero.
func decodeA4R4G4B4(dst, src []byte) {
	v := uint16(src[0]) | uint16(src[1])<<8
	dst[chB] = byte(v&0x000F) << 4
	dst[chG] = byte(v & 0x00F0)
	dst[chR] = byte(v>>4) & 0xF0
	dst[chA] = byte(v>>8) & 0xF0
}

func encodeA4R4G4B4(dst, src []byte) {
	dst[0] = src[chG]&0xF0 | src[chB]>>4
	dst[1] = src[chA]&0xF0 | src[chR]>>4
}

// 5-bit and 1-bit fields widen by left shift, without replication.
func decodeA1R5G5B5(dst, src []byte) {
	v := uint16(src[0]) | uint16(src[1])<<8
	dst[chB] = byte(v&0x001F) << 3
	dst[chG] = byte(v>>5&0x001F) << 3
	dst[chR] = byte(v>>10&0x001F) << 3
	dst[chA] = byte(v>>15) << 7
}

func encodeA1R5G5B5(dst, src []byte) {
	v := uint16(src[chB]>>3) |
		uint16(src[chG]>>3)<<5 |
		uint16(src[chR]>>3)<<10 |
		uint16(src[chA]>>7)<<15
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
}

func copyPixel(dst, src []byte) {
	copy(dst, src)
}

func decodeX8R8G8B8(dst, src []byte) {
	dst[chB], dst[chG], dst[chR], dst[chA] = src[0], src[1], src[2], 255
}

func encodeX8R8G8B8(dst, src []byte) {
	dst[0], dst[1], dst[2], dst[3] = src[chB], src[chG], src[chR], 0
}
