package dds

import (
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/EchoTools/texfmt/pkg/pixel"
)

// SurfaceSize returns the byte size of one width×height surface of format
// f, or 0 if f has no defined layout.
func SurfaceSize(f pixel.Format, width, height int) int {
	return pixel.NativeSize(f, width, height)
}

// MipChainSize returns the total size of mips levels starting at
// width×height, each level half the previous one and at least 1×1. Levels
// past 1×1 are not counted. It returns 0 when the total does not fit in an
// int.
func MipChainSize(f pixel.Format, width, height, mips int) int {
	levels := min(max(mips, 1), bits.Len(uint(max(width, height, 1))))
	total := 0
	for i := 0; i < levels; i++ {
		size := SurfaceSize(f, max(1, width>>i), max(1, height>>i))
		if size == 0 || total > math.MaxInt-size {
			return 0
		}
		total += size
	}
	return total
}

// ReadSurface reads the top mip level of a file whose header is h and whose
// pixel format is f. The surface must fit in what remains of r after the
// header.
func ReadSurface(r io.ReadSeeker, h *Header, f pixel.Format) ([]byte, error) {
	if SurfaceSize(f, 1, 1) == 0 {
		return nil, fmt.Errorf("dds: surface size of %s: %w", f, pixel.ErrUnsupportedFormat)
	}
	size := SurfaceSize(f, int(h.Width), int(h.Height))
	if size == 0 {
		return nil, fmt.Errorf("dds: %dx%d %s surface: %w", h.Width, h.Height, f, pixel.ErrInvalidDimensions)
	}

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("dds: seek to end: %w", err)
	}
	if avail := end - h.DataOffset(); avail < int64(size) {
		return nil, fmt.Errorf("dds: %d byte surface, %d bytes after header: %w", size, max(avail, 0), io.ErrUnexpectedEOF)
	}

	if _, err := r.Seek(h.DataOffset(), io.SeekStart); err != nil {
		return nil, fmt.Errorf("dds: seek to data: %w", err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("dds: read %d byte surface: %w", size, err)
	}
	return data, nil
}

// Write writes h followed by data to w.
func Write(w io.Writer, h *Header, data []byte) error {
	if _, err := h.WriteTo(w); err != nil {
		return fmt.Errorf("dds: write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("dds: write surface: %w", err)
	}
	return nil
}
