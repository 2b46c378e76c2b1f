// Package archive wraps texture files in a zstd container: a 24-byte "ZSTD"
// header recording both sizes, followed by a single zstd frame.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// Magic identifies an archive.
var Magic = [4]byte{'Z', 'S', 'T', 'D'}

const (
	// HeaderSize is the encoded size of a Header.
	HeaderSize = 24

	// headerLength is the byte count after the magic and length fields.
	headerLength = HeaderSize - 8

	// DefaultCompressionLevel favours speed; texture payloads are mostly
	// block-compressed already.
	DefaultCompressionLevel = zstd.BestSpeed

	// MaxLength bounds both sizes a header may declare.
	MaxLength = 1 << 32
)

var (
	ErrInvalidMagic  = errors.New("archive: invalid magic")
	ErrInvalidHeader = errors.New("archive: invalid header")
	ErrEmpty         = errors.New("archive: empty payload")
	ErrTruncated     = errors.New("archive: truncated payload")
	ErrSizeMismatch  = errors.New("archive: decompressed size mismatch")
)

// Header precedes the compressed payload.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // uncompressed bytes
	CompressedLength uint64 // bytes after the header
}

// NewHeader returns a header for a payload of the given sizes.
func NewHeader(length, compressedLength uint64) *Header {
	return &Header{
		Magic:            Magic,
		HeaderLength:     headerLength,
		Length:           length,
		CompressedLength: compressedLength,
	}
}

// Validate reports whether h describes a usable archive.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: %q", ErrInvalidMagic, h.Magic[:])
	}
	if h.HeaderLength != headerLength {
		return fmt.Errorf("%w: header length %d, want %d", ErrInvalidHeader, h.HeaderLength, headerLength)
	}
	if h.Length == 0 || h.CompressedLength == 0 {
		return fmt.Errorf("%w: sizes %d/%d", ErrEmpty, h.Length, h.CompressedLength)
	}
	if h.Length > MaxLength || h.CompressedLength > MaxLength {
		return fmt.Errorf("%w: sizes %d/%d exceed %d", ErrInvalidHeader, h.Length, h.CompressedLength, uint64(MaxLength))
	}
	return nil
}

// MarshalBinary encodes the header.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header into buf, which must hold HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
}

// UnmarshalBinary decodes and validates a header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(buf[4:8])
	h.Length = binary.LittleEndian.Uint64(buf[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(buf[16:24])
}

// IsArchive reports whether data starts with the archive magic.
func IsArchive(data []byte) bool {
	return len(data) >= HeaderSize && bytes.Equal(data[:4], Magic[:])
}

// Compress wraps data in an archive compressed at level.
func Compress(data []byte, level int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	payload, err := zstd.CompressLevel(nil, data, level)
	if err != nil {
		return nil, fmt.Errorf("archive: compress: %w", err)
	}

	out := make([]byte, HeaderSize+len(payload))
	NewHeader(uint64(len(data)), uint64(len(payload))).EncodeTo(out)
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Decompress returns the payload of an archive.
func Decompress(data []byte) ([]byte, error) {
	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	if h.CompressedLength > uint64(len(data)-HeaderSize) {
		return nil, fmt.Errorf("%w: header says %d bytes, have %d", ErrTruncated, h.CompressedLength, len(data)-HeaderSize)
	}

	zr := zstd.NewReader(bytes.NewReader(data[HeaderSize : HeaderSize+h.CompressedLength]))
	defer zr.Close()
	return readPayload(zr, h.Length)
}

// readPayload reads exactly length decompressed bytes from r. The buffer
// grows with the data decoded, not with the length the header claims.
func readPayload(r io.Reader, length uint64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, int64(length)+1))
	if err != nil {
		return nil, fmt.Errorf("archive: decompress: %w", err)
	}
	if uint64(n) != length {
		return nil, fmt.Errorf("%w: got %d, header says %d", ErrSizeMismatch, n, length)
	}
	return buf.Bytes(), nil
}
