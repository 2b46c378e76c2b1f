// Package pixel identifies the pixel encoding of legacy DDS textures and
// converts pixel data between that native encoding and a canonical 32-bit
// BGRA representation.
//
// The canonical buffer is 4 bytes per pixel in blue, green, red, alpha
// order, row-major, with no padding. Every conversion targets or originates
// from it:
//
//	f, err := pixel.Identify(file)
//	canonical, err := pixel.Decode(f, native)
//	native, err = pixel.Encode(f, canonical)
//
// Block-compressed formats (Dxt1, Dxt3, Dxt5) are delegated to a pluggable
// BlockCodec; see Codec for the tiling precondition that applies when the
// real image dimensions are not supplied.
package pixel

import (
	"fmt"
	"strings"
)

// Format is the pixel encoding of a texture.
type Format uint8

const (
	Unknown Format = iota
	L8
	A8
	A4R4G4B4
	A1R5G5B5
	A8R8G8B8
	X8R8G8B8
	Dxt1
	Dxt3
	Dxt5
	A16B16G16R16
)

// CanonicalStride is the number of bytes per pixel in a canonical buffer.
const CanonicalStride = 4

// FourCC compression codes as stored little-endian in a DDS pixel format.
const (
	FourCCDXT1 = 0x31545844 // "DXT1"
	FourCCDXT3 = 0x33545844 // "DXT3"
	FourCCDXT5 = 0x35545844 // "DXT5"

	// CodeA16B16G16R16 is the D3DFORMAT value some writers store in the
	// FourCC field for 16-bit-per-channel textures.
	CodeA16B16G16R16 = 113
)

var formatNames = [...]string{
	Unknown:      "Unknown",
	L8:           "L8",
	A8:           "A8",
	A4R4G4B4:     "A4R4G4B4",
	A1R5G5B5:     "A1R5G5B5",
	A8R8G8B8:     "A8R8G8B8",
	X8R8G8B8:     "X8R8G8B8",
	Dxt1:         "Dxt1",
	Dxt3:         "Dxt3",
	Dxt5:         "Dxt5",
	A16B16G16R16: "A16B16G16R16",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat returns the Format whose name matches s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for i, name := range formatNames {
		if strings.EqualFold(name, s) {
			return Format(i), nil
		}
	}
	return Unknown, fmt.Errorf("pixel: unknown format name %q", s)
}

// Formats returns every named variant, Unknown excluded.
func Formats() []Format {
	out := make([]Format, 0, len(formatNames)-1)
	for i := 1; i < len(formatNames); i++ {
		out = append(out, Format(i))
	}
	return out
}

// Stride returns the native bytes per pixel, or 0 for block-compressed and
// unknown formats.
func (f Format) Stride() int {
	switch f {
	case L8, A8:
		return 1
	case A4R4G4B4, A1R5G5B5:
		return 2
	case A8R8G8B8, X8R8G8B8:
		return 4
	case A16B16G16R16:
		return 8
	}
	return 0
}

// BlockSize returns the bytes per 4×4 block of a block-compressed format,
// or 0 otherwise.
func (f Format) BlockSize() int {
	switch f {
	case Dxt1:
		return 8
	case Dxt3, Dxt5:
		return 16
	}
	return 0
}

// Compressed reports whether f is a 4×4 block-compressed format.
func (f Format) Compressed() bool {
	return f.BlockSize() != 0
}

// Supported reports whether conversions are implemented for f.
func (f Format) Supported() bool {
	if f.Compressed() {
		return true
	}
	return converters[f] != nil
}
