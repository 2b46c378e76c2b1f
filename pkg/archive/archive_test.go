package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := NewHeader(1024, 512)

		data, err := original.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, "ZSTD", string(data[:4]))

		decoded := &Header{}
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.Equal(t, original, decoded)
	})

	tests := []struct {
		name     string
		header   *Header
		expected error
	}{
		{"InvalidMagic", &Header{Magic: [4]byte{'D', 'D', 'S', ' '}, HeaderLength: headerLength, Length: 1024, CompressedLength: 512}, ErrInvalidMagic},
		{"InvalidHeaderLength", &Header{Magic: Magic, HeaderLength: 20, Length: 1024, CompressedLength: 512}, ErrInvalidHeader},
		{"ZeroLength", NewHeader(0, 512), ErrEmpty},
		{"HugeLength", NewHeader(1<<62, 512), ErrInvalidHeader},
		{"HugeCompressedLength", NewHeader(1024, 1<<63), ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate()
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}

	t.Run("Short", func(t *testing.T) {
		err := (&Header{}).UnmarshalBinary(make([]byte, 10))
		assert.True(t, errors.Is(err, ErrInvalidHeader), "got %v", err)
	})
}

func TestCompressDecompress(t *testing.T) {
	original := bytes.Repeat([]byte("DDS texture payload "), 200)

	packed, err := Compress(original, DefaultCompressionLevel)
	require.NoError(t, err)
	assert.True(t, IsArchive(packed))
	assert.Less(t, len(packed), len(original), "repetitive data should shrink")

	unpacked, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, original, unpacked)
}

// withLengths returns a copy of an archive with its header sizes replaced.
func withLengths(packed []byte, length, compressedLength uint64) []byte {
	out := append([]byte(nil), packed...)
	binary.LittleEndian.PutUint64(out[8:16], length)
	binary.LittleEndian.PutUint64(out[16:24], compressedLength)
	return out
}

func TestDecompressErrors(t *testing.T) {
	payload := []byte("some texture bytes")
	packed, err := Compress(payload, DefaultCompressionLevel)
	require.NoError(t, err)
	n := uint64(len(payload))
	cn := uint64(len(packed) - HeaderSize)

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"CorruptMagic", append([]byte("ZSTX"), packed[4:]...), ErrInvalidMagic},
		{"Truncated", packed[:len(packed)-1], ErrTruncated},
		{"ShortHeader", packed[:HeaderSize-1], ErrInvalidHeader},
		{"HugeLength", withLengths(packed, 1<<62, cn), ErrInvalidHeader},
		{"MaxCompressedLength", withLengths(packed, n, 1<<64-1), ErrInvalidHeader},
		{"LengthTooLarge", withLengths(packed, n+10, cn), ErrSizeMismatch},
		{"LengthTooSmall", withLengths(packed, n-1, cn), ErrSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompress(tt.data)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}

	_, err = Compress(nil, DefaultCompressionLevel)
	assert.True(t, errors.Is(err, ErrEmpty), "got %v", err)
}

func TestIsArchive(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{"Empty", nil, false},
		{"DDS", append([]byte("DDS "), make([]byte, 124)...), false},
		{"MagicOnly", []byte("ZSTD"), false},
		{"Header", append([]byte("ZSTD"), make([]byte, 20)...), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsArchive(tt.data), tt.name)
	}
}

func TestReadWrite(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression.")

	t.Run("EncodeDecodeRoundTrip", func(t *testing.T) {
		var buf bytes.Buffer
		ws := &seekableBuffer{Buffer: &buf}
		require.NoError(t, Encode(ws, original, WithCompressionLevel(3)))

		decoded, err := ReadAll(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, original, decoded)

		// The stream and the in-memory forms are the same container.
		unpacked, err := Decompress(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, original, unpacked)
	})

	t.Run("PartialRead", func(t *testing.T) {
		packed, err := Compress(original, DefaultCompressionLevel)
		require.NoError(t, err)

		r, err := NewReader(bytes.NewReader(packed))
		require.NoError(t, err)
		defer r.Close()
		assert.Equal(t, uint64(len(original)), r.Header().Length)

		prefix := make([]byte, 5)
		_, err = io.ReadFull(r, prefix)
		require.NoError(t, err)
		assert.Equal(t, "Hello", string(prefix))
	})

	t.Run("BadLengths", func(t *testing.T) {
		packed, err := Compress(original, DefaultCompressionLevel)
		require.NoError(t, err)
		cn := uint64(len(packed) - HeaderSize)

		_, err = ReadAll(bytes.NewReader(withLengths(packed, 1<<62, cn)))
		assert.True(t, errors.Is(err, ErrInvalidHeader), "got %v", err)

		_, err = ReadAll(bytes.NewReader(withLengths(packed, uint64(len(original))+1, cn)))
		assert.True(t, errors.Is(err, ErrSizeMismatch), "got %v", err)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		ws := &seekableBuffer{Buffer: &bytes.Buffer{}}
		err := Encode(ws, nil)
		assert.True(t, errors.Is(err, ErrEmpty), "got %v", err)
	})
}

type seekableBuffer struct {
	*bytes.Buffer
	pos int64
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(s.Buffer.Len()) + offset
	}
	return s.pos, nil
}

func (s *seekableBuffer) Write(p []byte) (n int, err error) {
	for int64(s.Buffer.Len()) < s.pos {
		s.Buffer.WriteByte(0)
	}
	if s.pos < int64(s.Buffer.Len()) {
		data := s.Buffer.Bytes()
		n = copy(data[s.pos:], p)
		if n < len(p) {
			m, err := s.Buffer.Write(p[n:])
			n += m
			if err != nil {
				return n, err
			}
		}
	} else {
		n, err = s.Buffer.Write(p)
	}
	s.pos += int64(n)
	return n, err
}
