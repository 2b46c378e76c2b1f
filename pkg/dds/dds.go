// Package dds reads and writes the headers of DirectDraw Surface files.
//
// A DDS file is a 4-byte magic, a 124-byte DDS_HEADER with an embedded
// 32-byte pixel format, an optional 20-byte DX10 extension, and then the
// surface data starting with the largest mip level. Only what is needed to
// locate and size the top surface is interpreted; cube maps, volumes and
// texture arrays are carried through but not understood.
package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/EchoTools/texfmt/pkg/pixel"
)

// DDS header constants
const (
	Magic           = 0x20534444 // "DDS "
	HeaderSize      = 124
	PixelFormatSize = 32
	DX10HeaderSize  = 20
	FourCCDX10      = 0x30315844 // "DX10"

	// LegacySize is the magic plus DDS_HEADER.
	LegacySize = 4 + HeaderSize
)

// DDS_HEADER flags
const (
	FlagCaps        = 0x00000001
	FlagHeight      = 0x00000002
	FlagWidth       = 0x00000004
	FlagPitch       = 0x00000008
	FlagPixelFormat = 0x00001000
	FlagMipMapCount = 0x00020000
	FlagLinearSize  = 0x00080000
	FlagDepth       = 0x00800000
)

// DDS_PIXELFORMAT flags
const (
	DDPFAlphaPixels = 0x00000001
	DDPFAlpha       = 0x00000002
	DDPFFourCC      = 0x00000004
	DDPFRGB         = 0x00000040
	DDPFLuminance   = 0x00020000
)

// Surface caps
const (
	CapsComplex = 0x8
	CapsTexture = 0x1000
	CapsMipmap  = 0x400000
)

// ResourceDimensionTexture2D is the DX10 resource dimension of a 2D texture.
const ResourceDimensionTexture2D = 3

var (
	ErrInvalidMagic      = errors.New("dds: invalid magic")
	ErrInvalidHeaderSize = errors.New("dds: invalid header size")
)

// PixelFormat is DDS_PIXELFORMAT.
type PixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// DX10Header is the extended header for DXGI formats.
type DX10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// Header is a DDS file header from the magic up to the surface data.
type Header struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       PixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32

	// DX10 is set when PixelFormat.FourCC is "DX10".
	DX10 *DX10Header
}

// ReadHeader reads a header from r, leaving r positioned at the surface
// data. Only the magic and the DDS_HEADER size field are validated.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, LegacySize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("dds: read header: %w", err)
	}

	h := &Header{}
	if err := h.unmarshalLegacy(buf); err != nil {
		return nil, err
	}

	if h.PixelFormat.FourCC == FourCCDX10 {
		ext := make([]byte, DX10HeaderSize)
		if _, err := io.ReadFull(r, ext); err != nil {
			return nil, fmt.Errorf("dds: read DX10 header: %w", err)
		}
		h.DX10 = &DX10Header{
			DXGIFormat:        binary.LittleEndian.Uint32(ext[0:4]),
			ResourceDimension: binary.LittleEndian.Uint32(ext[4:8]),
			MiscFlag:          binary.LittleEndian.Uint32(ext[8:12]),
			ArraySize:         binary.LittleEndian.Uint32(ext[12:16]),
			MiscFlags2:        binary.LittleEndian.Uint32(ext[16:20]),
		}
	}
	return h, nil
}

// UnmarshalBinary decodes a header from data, which must hold the legacy
// header and, if the FourCC says so, the DX10 extension.
func (h *Header) UnmarshalBinary(data []byte) error {
	hdr, err := ReadHeader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*h = *hdr
	return nil
}

func (h *Header) unmarshalLegacy(buf []byte) error {
	u := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off : off+4]) }

	h.Magic = u(0)
	if h.Magic != Magic {
		return fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, h.Magic)
	}
	h.Size = u(4)
	if h.Size != HeaderSize {
		return fmt.Errorf("%w: %d", ErrInvalidHeaderSize, h.Size)
	}
	h.Flags = u(8)
	h.Height = u(12)
	h.Width = u(16)
	h.PitchOrLinearSize = u(20)
	h.Depth = u(24)
	h.MipMapCount = u(28)
	for i := range h.Reserved1 {
		h.Reserved1[i] = u(32 + 4*i)
	}
	h.PixelFormat = PixelFormat{
		Size:        u(76),
		Flags:       u(80),
		FourCC:      u(84),
		RGBBitCount: u(88),
		RBitMask:    u(92),
		GBitMask:    u(96),
		BBitMask:    u(100),
		ABitMask:    u(104),
	}
	h.Caps = u(108)
	h.Caps2 = u(112)
	h.Caps3 = u(116)
	h.Caps4 = u(120)
	h.Reserved2 = u(124)
	return nil
}

// MarshalBinary encodes the header, including the DX10 extension when
// present.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, h.DataOffset())
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }

	put(0, h.Magic)
	put(4, h.Size)
	put(8, h.Flags)
	put(12, h.Height)
	put(16, h.Width)
	put(20, h.PitchOrLinearSize)
	put(24, h.Depth)
	put(28, h.MipMapCount)
	for i, v := range h.Reserved1 {
		put(32+4*i, v)
	}
	put(76, h.PixelFormat.Size)
	put(80, h.PixelFormat.Flags)
	put(84, h.PixelFormat.FourCC)
	put(88, h.PixelFormat.RGBBitCount)
	put(92, h.PixelFormat.RBitMask)
	put(96, h.PixelFormat.GBitMask)
	put(100, h.PixelFormat.BBitMask)
	put(104, h.PixelFormat.ABitMask)
	put(108, h.Caps)
	put(112, h.Caps2)
	put(116, h.Caps3)
	put(120, h.Caps4)
	put(124, h.Reserved2)

	if h.DX10 != nil {
		put(128, h.DX10.DXGIFormat)
		put(132, h.DX10.ResourceDimension)
		put(136, h.DX10.MiscFlag)
		put(140, h.DX10.ArraySize)
		put(144, h.DX10.MiscFlags2)
	}
	return buf, nil
}

// WriteTo writes the encoded header to w.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	buf, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// DataOffset returns the file offset of the first surface byte.
func (h *Header) DataOffset() int64 {
	if h.DX10 != nil {
		return LegacySize + DX10HeaderSize
	}
	return LegacySize
}

// Mips returns the number of mip levels, at least 1.
func (h *Header) Mips() int {
	if h.MipMapCount == 0 {
		return 1
	}
	return int(h.MipMapCount)
}

// Format returns the pixel format the header describes. Legacy headers are
// classified the same way pixel.Identify does; DX10 headers map their DXGI
// format.
func (h *Header) Format() pixel.Format {
	if h.DX10 != nil {
		return FromDXGI(h.DX10.DXGIFormat)
	}
	pf := h.PixelFormat
	return pixel.Classify(pf.FourCC, pf.RBitMask, pf.ABitMask)
}

func (h *Header) String() string {
	name := h.Format().String()
	if h.DX10 != nil {
		name = FormatName(h.DX10.DXGIFormat)
	}
	return fmt.Sprintf("DDS: %dx%d, %d mips, format=%s", h.Width, h.Height, h.Mips(), name)
}
