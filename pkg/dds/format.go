package dds

import (
	"fmt"

	"github.com/EchoTools/texfmt/pkg/pixel"
)

// DXGI_FORMAT constants for the formats this package names
const (
	DXGIFormatUnknown           = 0
	DXGIFormatR16G16B16A16Unorm = 11
	DXGIFormatR8G8B8A8Unorm     = 28
	DXGIFormatR8G8B8A8UnormSRGB = 29
	DXGIFormatR8Unorm           = 61
	DXGIFormatA8Unorm           = 65
	DXGIFormatBC1Unorm          = 71
	DXGIFormatBC1UnormSRGB      = 72
	DXGIFormatBC2Unorm          = 74
	DXGIFormatBC2UnormSRGB      = 75
	DXGIFormatBC3Unorm          = 77
	DXGIFormatBC3UnormSRGB      = 78
	DXGIFormatBC4Unorm          = 80
	DXGIFormatBC4SNorm          = 81
	DXGIFormatBC5Unorm          = 83
	DXGIFormatBC5SNorm          = 84
	DXGIFormatB5G5R5A1Unorm     = 86
	DXGIFormatB8G8R8A8Unorm     = 87
	DXGIFormatB8G8R8X8Unorm     = 88
	DXGIFormatB8G8R8A8UnormSRGB = 91
	DXGIFormatBC6HUF16          = 95
	DXGIFormatBC6HSF16          = 96
	DXGIFormatBC7Unorm          = 98
	DXGIFormatBC7UnormSRGB      = 99
	DXGIFormatB4G4R4A4Unorm     = 115
)

var dxgiNames = map[uint32]string{
	DXGIFormatR16G16B16A16Unorm: "R16G16B16A16_UNORM",
	DXGIFormatR8G8B8A8Unorm:     "R8G8B8A8_UNORM",
	DXGIFormatR8G8B8A8UnormSRGB: "R8G8B8A8_UNORM_SRGB",
	DXGIFormatR8Unorm:           "R8_UNORM",
	DXGIFormatA8Unorm:           "A8_UNORM",
	DXGIFormatBC1Unorm:          "BC1_UNORM",
	DXGIFormatBC1UnormSRGB:      "BC1_UNORM_SRGB",
	DXGIFormatBC2Unorm:          "BC2_UNORM",
	DXGIFormatBC2UnormSRGB:      "BC2_UNORM_SRGB",
	DXGIFormatBC3Unorm:          "BC3_UNORM",
	DXGIFormatBC3UnormSRGB:      "BC3_UNORM_SRGB",
	DXGIFormatBC4Unorm:          "BC4_UNORM",
	DXGIFormatBC4SNorm:          "BC4_SNORM",
	DXGIFormatBC5Unorm:          "BC5_UNORM",
	DXGIFormatBC5SNorm:          "BC5_SNORM",
	DXGIFormatB5G5R5A1Unorm:     "B5G5R5A1_UNORM",
	DXGIFormatB8G8R8A8Unorm:     "B8G8R8A8_UNORM",
	DXGIFormatB8G8R8X8Unorm:     "B8G8R8X8_UNORM",
	DXGIFormatB8G8R8A8UnormSRGB: "B8G8R8A8_UNORM_SRGB",
	DXGIFormatBC6HUF16:          "BC6H_UF16",
	DXGIFormatBC6HSF16:          "BC6H_SF16",
	DXGIFormatBC7Unorm:          "BC7_UNORM",
	DXGIFormatBC7UnormSRGB:      "BC7_UNORM_SRGB",
	DXGIFormatB4G4R4A4Unorm:     "B4G4R4A4_UNORM",
}

// FormatName returns a human-readable name for a DXGI_FORMAT value.
func FormatName(format uint32) string {
	if name, ok := dxgiNames[format]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%x)", format)
}

// dxgiFormats pairs every pixel format with its DXGI equivalent. The byte
// layouts match exactly; the names differ because DXGI lists channels from
// the least significant bit.
var dxgiFormats = map[pixel.Format]uint32{
	pixel.L8:           DXGIFormatR8Unorm,
	pixel.A8:           DXGIFormatA8Unorm,
	pixel.A4R4G4B4:     DXGIFormatB4G4R4A4Unorm,
	pixel.A1R5G5B5:     DXGIFormatB5G5R5A1Unorm,
	pixel.A8R8G8B8:     DXGIFormatB8G8R8A8Unorm,
	pixel.X8R8G8B8:     DXGIFormatB8G8R8X8Unorm,
	pixel.Dxt1:         DXGIFormatBC1Unorm,
	pixel.Dxt3:         DXGIFormatBC2Unorm,
	pixel.Dxt5:         DXGIFormatBC3Unorm,
	pixel.A16B16G16R16: DXGIFormatR16G16B16A16Unorm,
}

// ToDXGI returns the DXGI format for f, or DXGIFormatUnknown.
func ToDXGI(f pixel.Format) uint32 {
	return dxgiFormats[f]
}

// FromDXGI returns the pixel format for a DXGI format. sRGB variants map to
// their linear counterparts since the bytes are the same.
func FromDXGI(dxgi uint32) pixel.Format {
	switch dxgi {
	case DXGIFormatBC1UnormSRGB:
		return pixel.Dxt1
	case DXGIFormatBC2UnormSRGB:
		return pixel.Dxt3
	case DXGIFormatBC3UnormSRGB:
		return pixel.Dxt5
	case DXGIFormatB8G8R8A8UnormSRGB:
		return pixel.A8R8G8B8
	}
	for f, v := range dxgiFormats {
		if v == dxgi {
			return f
		}
	}
	return pixel.Unknown
}

// legacyPixelFormats holds the DDS_PIXELFORMAT written for each format.
// The FourCC and the red and alpha masks are what pixel.Identify reads
// back.
var legacyPixelFormats = map[pixel.Format]PixelFormat{
	pixel.L8: {
		Flags: DDPFLuminance, RGBBitCount: 8,
		RBitMask: 0x000000FF,
	},
	pixel.A8: {
		Flags: DDPFAlpha, RGBBitCount: 8,
		ABitMask: 0x000000FF,
	},
	pixel.A4R4G4B4: {
		Flags: DDPFRGB | DDPFAlphaPixels, RGBBitCount: 16,
		RBitMask: 0x00000F00, GBitMask: 0x000000F0, BBitMask: 0x0000000F, ABitMask: 0x0000F000,
	},
	pixel.A1R5G5B5: {
		Flags: DDPFRGB | DDPFAlphaPixels, RGBBitCount: 16,
		RBitMask: 0x00007C00, GBitMask: 0x000003E0, BBitMask: 0x0000001F, ABitMask: 0x00008000,
	},
	pixel.A8R8G8B8: {
		Flags: DDPFRGB | DDPFAlphaPixels, RGBBitCount: 32,
		RBitMask: 0x00FF0000, GBitMask: 0x0000FF00, BBitMask: 0x000000FF, ABitMask: 0xFF000000,
	},
	pixel.X8R8G8B8: {
		Flags: DDPFRGB, RGBBitCount: 32,
		RBitMask: 0x00FF0000, GBitMask: 0x0000FF00, BBitMask: 0x000000FF,
	},
	pixel.Dxt1:         {Flags: DDPFFourCC, FourCC: pixel.FourCCDXT1},
	pixel.Dxt3:         {Flags: DDPFFourCC, FourCC: pixel.FourCCDXT3},
	pixel.Dxt5:         {Flags: DDPFFourCC, FourCC: pixel.FourCCDXT5},
	pixel.A16B16G16R16: {Flags: DDPFFourCC, FourCC: pixel.CodeA16B16G16R16},
}

// NewHeader returns a legacy header for a width×height surface of format f
// with the given number of mip levels (0 is treated as 1).
func NewHeader(f pixel.Format, width, height, mips uint32) (*Header, error) {
	pf, ok := legacyPixelFormats[f]
	if !ok {
		return nil, fmt.Errorf("dds: no header for %s: %w", f, pixel.ErrUnsupportedFormat)
	}
	pf.Size = PixelFormatSize

	h, err := newHeader(f, width, height, mips)
	if err != nil {
		return nil, err
	}
	h.PixelFormat = pf
	return h, nil
}

// NewDX10Header returns a header with the DX10 extension for format f.
func NewDX10Header(f pixel.Format, width, height, mips uint32) (*Header, error) {
	dxgi := ToDXGI(f)
	if dxgi == DXGIFormatUnknown {
		return nil, fmt.Errorf("dds: no DXGI format for %s: %w", f, pixel.ErrUnsupportedFormat)
	}

	h, err := newHeader(f, width, height, mips)
	if err != nil {
		return nil, err
	}
	h.PixelFormat = PixelFormat{
		Size:   PixelFormatSize,
		Flags:  DDPFFourCC,
		FourCC: FourCCDX10,
	}
	h.DX10 = &DX10Header{
		DXGIFormat:        dxgi,
		ResourceDimension: ResourceDimensionTexture2D,
		ArraySize:         1,
	}
	return h, nil
}

func newHeader(f pixel.Format, width, height, mips uint32) (*Header, error) {
	if width == 0 || height == 0 || SurfaceSize(f, int(width), int(height)) == 0 {
		return nil, fmt.Errorf("dds: %dx%d: %w", width, height, pixel.ErrInvalidDimensions)
	}
	if mips == 0 {
		mips = 1
	}

	h := &Header{
		Magic:       Magic,
		Size:        HeaderSize,
		Flags:       FlagCaps | FlagHeight | FlagWidth | FlagPixelFormat,
		Height:      height,
		Width:       width,
		MipMapCount: mips,
		Caps:        CapsTexture,
	}
	if f.Compressed() {
		h.Flags |= FlagLinearSize
		h.PitchOrLinearSize = uint32(SurfaceSize(f, int(width), int(height)))
	} else {
		h.Flags |= FlagPitch
		h.PitchOrLinearSize = width * uint32(f.Stride())
	}
	if mips > 1 {
		h.Flags |= FlagMipMapCount
		h.Caps |= CapsComplex | CapsMipmap
	}
	return h, nil
}
