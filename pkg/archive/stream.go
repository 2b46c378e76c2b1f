package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// Reader decompresses an archive from a stream.
type Reader struct {
	header  Header
	zReader io.ReadCloser
}

// NewReader reads and validates the header from r. Reads from the returned
// Reader yield the uncompressed payload.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("archive: read header: %w", err)
	}

	ar := &Reader{}
	if err := ar.header.UnmarshalBinary(buf[:]); err != nil {
		return nil, err
	}
	ar.zReader = zstd.NewReader(io.LimitReader(r, int64(ar.header.CompressedLength)))
	return ar, nil
}

// Header returns the archive header.
func (r *Reader) Header() *Header {
	return &r.header
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.zReader.Read(p)
}

func (r *Reader) Close() error {
	return r.zReader.Close()
}

// ReadAll reads a whole archive from r and returns its payload.
func ReadAll(r io.Reader) ([]byte, error) {
	ar, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	return readPayload(ar, ar.header.Length)
}

// Writer compresses a payload of known size into an archive. The header is
// rewritten with the compressed size on Close, so dst must be seekable.
type Writer struct {
	dst     io.WriteSeeker
	start   int64
	zWriter *zstd.Writer
	header  *Header
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter writes a placeholder header to dst and returns a Writer for a
// payload of length bytes.
func NewWriter(dst io.WriteSeeker, length uint64, opts ...WriterOption) (*Writer, error) {
	if length == 0 {
		return nil, ErrEmpty
	}
	w := &Writer{
		dst:    dst,
		level:  DefaultCompressionLevel,
		header: NewHeader(length, 0),
	}
	for _, opt := range opts {
		opt(w)
	}

	start, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("archive: locate header: %w", err)
	}
	w.start = start
	if err := w.writeHeader(); err != nil {
		return nil, err
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.zWriter.Write(p)
}

// Close flushes the compressor and patches the header.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("archive: close compressor: %w", err)
	}

	end, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("archive: locate end: %w", err)
	}
	w.header.CompressedLength = uint64(end - w.start - HeaderSize)

	if _, err := w.dst.Seek(w.start, io.SeekStart); err != nil {
		return fmt.Errorf("archive: seek to header: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	if _, err := w.dst.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("archive: seek to end: %w", err)
	}
	return nil
}

func (w *Writer) writeHeader() error {
	var buf [HeaderSize]byte
	w.header.EncodeTo(buf[:])
	if _, err := w.dst.Write(buf[:]); err != nil {
		return fmt.Errorf("archive: write header: %w", err)
	}
	return nil
}

// Encode writes data to dst as a complete archive.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, uint64(len(data)), opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("archive: write payload: %w", err)
	}
	return w.Close()
}
