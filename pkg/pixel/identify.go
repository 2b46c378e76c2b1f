package pixel

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Byte offsets of the identification fields, counted from the start of the
// file (the 4-byte "DDS " magic included).
const (
	OffsetCompressionCode = 84
	OffsetRedMask         = 92
	OffsetAlphaMask       = 104

	// MinHeaderSize is the shortest stream Identify can classify.
	MinHeaderSize = OffsetAlphaMask + 4
)

// Descriptor holds the header fields that identify a pixel encoding.
type Descriptor struct {
	CompressionCode uint32 // FourCC, 0 when uncompressed
	RedMask         uint32
	AlphaMask       uint32
}

// Format classifies d. See Classify.
func (d Descriptor) Format() Format {
	return Classify(d.CompressionCode, d.RedMask, d.AlphaMask)
}

type descriptorKey struct {
	code, red, alpha uint32
}

// CodeA16B16G16R16 has no entry: that layout identifies as Unknown.
var knownDescriptors = map[descriptorKey]Format{
	{0, 0x000000FF, 0x00000000}: L8,
	{0, 0x00000000, 0x000000FF}: A8,
	{0, 0x00000F00, 0x0000F000}: A4R4G4B4,
	{0, 0x00007C00, 0x00008000}: A1R5G5B5,
	{0, 0x00FF0000, 0xFF000000}: A8R8G8B8,
	{0, 0x00FF0000, 0x00000000}: X8R8G8B8,
}

// Mask fields are meaningless for FourCC formats and are not compared.
var knownCompressionCodes = map[uint32]Format{
	FourCCDXT1: Dxt1,
	FourCCDXT3: Dxt3,
	FourCCDXT5: Dxt5,
}

// Classify maps a (compression code, red mask, alpha mask) triple to a
// Format by exact match. Triples outside the known table yield Unknown.
// A DXT FourCC selects its format whatever the masks hold.
func Classify(code, redMask, alphaMask uint32) Format {
	if f, ok := knownCompressionCodes[code]; ok {
		return f
	}
	if f, ok := knownDescriptors[descriptorKey{code, redMask, alphaMask}]; ok {
		return f
	}
	return Unknown
}

// ReadDescriptor reads the identification fields from r using absolute
// seeks. The cursor position afterwards is unspecified.
func ReadDescriptor(r io.ReadSeeker) (Descriptor, error) {
	var (
		d   Descriptor
		err error
	)

	if _, err = r.Seek(OffsetCompressionCode, io.SeekStart); err != nil {
		return d, fmt.Errorf("%w: seek to %d: %w", ErrMalformedHeader, OffsetCompressionCode, err)
	}
	if d.CompressionCode, err = readUint32(r); err != nil {
		return d, fmt.Errorf("%w: compression code at %d: %w", ErrMalformedHeader, OffsetCompressionCode, err)
	}

	if _, err = r.Seek(OffsetRedMask, io.SeekStart); err != nil {
		return d, fmt.Errorf("%w: seek to %d: %w", ErrMalformedHeader, OffsetRedMask, err)
	}
	if d.RedMask, err = readUint32(r); err != nil {
		return d, fmt.Errorf("%w: red mask at %d: %w", ErrMalformedHeader, OffsetRedMask, err)
	}

	// Skip the green and blue masks.
	if _, err = r.Seek(8, io.SeekCurrent); err != nil {
		return d, fmt.Errorf("%w: seek to %d: %w", ErrMalformedHeader, OffsetAlphaMask, err)
	}
	if d.AlphaMask, err = readUint32(r); err != nil {
		return d, fmt.Errorf("%w: alpha mask at %d: %w", ErrMalformedHeader, OffsetAlphaMask, err)
	}

	return d, nil
}

// Identify classifies the pixel encoding described by the header in r.
//
// An unreadable or truncated header is reported as ErrMalformedHeader. A
// complete header with an unrecognized triple returns Unknown and a nil
// error.
func Identify(r io.ReadSeeker) (Format, error) {
	d, err := ReadDescriptor(r)
	if err != nil {
		return Unknown, err
	}
	f := d.Format()
	Logger().Debug("pixel: identified",
		"format", f,
		"code", fmt.Sprintf("0x%08x", d.CompressionCode),
		"red", fmt.Sprintf("0x%08x", d.RedMask),
		"alpha", fmt.Sprintf("0x%08x", d.AlphaMask))
	return f, nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
