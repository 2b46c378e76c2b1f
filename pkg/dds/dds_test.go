package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/texfmt/pkg/pixel"
)

func TestNewHeaderIdentifies(t *testing.T) {
	for _, f := range pixel.Formats() {
		t.Run(f.String(), func(t *testing.T) {
			h, err := NewHeader(f, 64, 32, 1)
			require.NoError(t, err)

			data, err := h.MarshalBinary()
			require.NoError(t, err)
			require.Len(t, data, LegacySize)

			got, err := pixel.Identify(bytes.NewReader(data))
			require.NoError(t, err)

			expected := f
			if f == pixel.A16B16G16R16 {
				expected = pixel.Unknown
			}
			assert.Equal(t, expected, got)
			assert.Equal(t, expected, h.Format())
		})
	}
}

func TestNewHeaderFields(t *testing.T) {
	h, err := NewHeader(pixel.Dxt5, 256, 128, 9)
	require.NoError(t, err)

	assert.Equal(t, uint32(Magic), h.Magic)
	assert.Equal(t, uint32(HeaderSize), h.Size)
	assert.Equal(t, uint32(256/4*128/4*16), h.PitchOrLinearSize)
	assert.NotZero(t, h.Flags&FlagLinearSize)
	assert.NotZero(t, h.Flags&FlagMipMapCount)
	assert.NotZero(t, h.Caps&CapsMipmap)
	assert.Equal(t, 9, h.Mips())

	h, err = NewHeader(pixel.A1R5G5B5, 10, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), h.PitchOrLinearSize)
	assert.NotZero(t, h.Flags&FlagPitch)
	assert.Zero(t, h.Flags&FlagMipMapCount)
	assert.Equal(t, 1, h.Mips())
}

func TestNewHeaderErrors(t *testing.T) {
	_, err := NewHeader(pixel.Unknown, 4, 4, 1)
	assert.True(t, errors.Is(err, pixel.ErrUnsupportedFormat), "got %v", err)

	_, err = NewHeader(pixel.Dxt1, 0, 4, 1)
	assert.True(t, errors.Is(err, pixel.ErrInvalidDimensions), "got %v", err)

	_, err = NewDX10Header(pixel.Unknown, 4, 4, 1)
	assert.True(t, errors.Is(err, pixel.ErrUnsupportedFormat), "got %v", err)

	_, err = NewHeader(pixel.A8R8G8B8, 0xFFFFFFFF, 0xFFFFFFFF, 1)
	assert.True(t, errors.Is(err, pixel.ErrInvalidDimensions), "got %v", err)
}

func TestHeaderRoundTrip(t *testing.T) {
	h, err := NewHeader(pixel.A4R4G4B4, 17, 9, 3)
	require.NoError(t, err)
	h.Reserved1[0] = 0xCAFEBABE

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(LegacySize), n)

	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, 0, buf.Len())
}

func TestDX10HeaderRoundTrip(t *testing.T) {
	h, err := NewDX10Header(pixel.Dxt3, 64, 64, 1)
	require.NoError(t, err)

	data, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, LegacySize+DX10HeaderSize)
	assert.Equal(t, uint32(FourCCDX10), binary.LittleEndian.Uint32(data[84:]))
	assert.Equal(t, uint32(DXGIFormatBC2Unorm), binary.LittleEndian.Uint32(data[128:]))

	var got Header
	require.NoError(t, got.UnmarshalBinary(data))
	require.NotNil(t, got.DX10)
	assert.Equal(t, *h.DX10, *got.DX10)
	assert.Equal(t, int64(148), got.DataOffset())
	assert.Equal(t, pixel.Dxt3, got.Format())
	assert.Equal(t, "DDS: 64x64, 1 mips, format=BC2_UNORM", got.String())
}

func TestReadHeaderErrors(t *testing.T) {
	h, err := NewHeader(pixel.Dxt1, 4, 4, 1)
	require.NoError(t, err)
	good, err := h.MarshalBinary()
	require.NoError(t, err)

	t.Run("Truncated", func(t *testing.T) {
		_, err := ReadHeader(bytes.NewReader(good[:100]))
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
	})

	t.Run("BadMagic", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		copy(bad, "PNG ")
		_, err := ReadHeader(bytes.NewReader(bad))
		assert.True(t, errors.Is(err, ErrInvalidMagic), "got %v", err)
	})

	t.Run("BadSize", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		binary.LittleEndian.PutUint32(bad[4:], 100)
		_, err := ReadHeader(bytes.NewReader(bad))
		assert.True(t, errors.Is(err, ErrInvalidHeaderSize), "got %v", err)
	})

	t.Run("MissingDX10", func(t *testing.T) {
		bad := append([]byte(nil), good...)
		binary.LittleEndian.PutUint32(bad[84:], FourCCDX10)
		_, err := ReadHeader(bytes.NewReader(bad))
		assert.True(t, errors.Is(err, io.EOF), "got %v", err)
	})
}

func TestSurfaceSize(t *testing.T) {
	tests := []struct {
		format        pixel.Format
		width, height int
		expected      int
	}{
		{pixel.Dxt1, 4, 4, 8},
		{pixel.Dxt1, 5, 5, 32},
		{pixel.Dxt5, 256, 256, 65536},
		{pixel.L8, 3, 7, 21},
		{pixel.A1R5G5B5, 3, 7, 42},
		{pixel.A8R8G8B8, 16, 16, 1024},
		{pixel.A16B16G16R16, 2, 2, 32},
		{pixel.Unknown, 4, 4, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SurfaceSize(tt.format, tt.width, tt.height),
			"%s %dx%d", tt.format, tt.width, tt.height)
	}
}

func TestMipChainSize(t *testing.T) {
	// 8x8, 4x4, 2x2 and 1x1: the last two still take a whole block.
	assert.Equal(t, 4*8+8+8+8, MipChainSize(pixel.Dxt1, 8, 8, 4))
	assert.Equal(t, 64+16+4+1, MipChainSize(pixel.L8, 8, 8, 4))
	assert.Equal(t, 64, MipChainSize(pixel.L8, 8, 8, 0))

	// A mip count past the 1x1 level stops there.
	assert.Equal(t, 4+1, MipChainSize(pixel.L8, 2, 2, 1<<20))
}

func TestReadSurface(t *testing.T) {
	h, err := NewHeader(pixel.L8, 4, 2, 2)
	require.NoError(t, err)

	surface := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	mip := []byte{9, 10}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h, append(append([]byte(nil), surface...), mip...)))

	r := bytes.NewReader(buf.Bytes())
	got, err := ReadHeader(r)
	require.NoError(t, err)

	data, err := ReadSurface(r, got, got.Format())
	require.NoError(t, err)
	assert.Equal(t, surface, data)

	_, err = ReadSurface(bytes.NewReader(buf.Bytes()[:LegacySize+3]), got, pixel.L8)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)

	_, err = ReadSurface(r, got, pixel.Unknown)
	assert.True(t, errors.Is(err, pixel.ErrUnsupportedFormat), "got %v", err)
}

func TestReadSurfaceBadDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
		expected      error
	}{
		{"Overflow", 0xFFFFFFFF, 0xFFFFFFFF, pixel.ErrInvalidDimensions},
		{"ZeroWidth", 0, 4, pixel.ErrInvalidDimensions},
		{"LargerThanFile", 65536, 65536, io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHeader(pixel.A8R8G8B8, 4, 4, 1)
			require.NoError(t, err)
			h.Width, h.Height = tt.width, tt.height

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, h, make([]byte, 4*4*4)))

			r := bytes.NewReader(buf.Bytes())
			got, err := ReadHeader(r)
			require.NoError(t, err)

			data, err := ReadSurface(r, got, got.Format())
			assert.Nil(t, data)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestFormatName(t *testing.T) {
	tests := []struct {
		format   uint32
		expected string
	}{
		{DXGIFormatBC1Unorm, "BC1_UNORM"},
		{DXGIFormatBC3Unorm, "BC3_UNORM"},
		{DXGIFormatBC7Unorm, "BC7_UNORM"},
		{DXGIFormatBC7UnormSRGB, "BC7_UNORM_SRGB"},
		{DXGIFormatB8G8R8A8Unorm, "B8G8R8A8_UNORM"},
		{9999, "UNKNOWN(0x270f)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatName(tt.format), "format %d", tt.format)
	}
}

func TestDXGIMapping(t *testing.T) {
	for _, f := range pixel.Formats() {
		dxgi := ToDXGI(f)
		require.NotEqual(t, uint32(DXGIFormatUnknown), dxgi, f.String())
		assert.Equal(t, f, FromDXGI(dxgi), f.String())
	}

	assert.Equal(t, pixel.Dxt1, FromDXGI(DXGIFormatBC1UnormSRGB))
	assert.Equal(t, pixel.Unknown, FromDXGI(DXGIFormatBC7Unorm))
}
