package pixel

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/EchoTools/texfmt/pkg/bc"
)

// BlockCodec compresses and decompresses 4×4 block-compressed surfaces.
// Pixels on the codec side are 8-bit RGBA, row-major.
type BlockCodec interface {
	Compress(f bc.Format, width, height int, rgba []byte) ([]byte, error)
	Decompress(f bc.Format, width, height int, blocks []byte) ([]byte, error)
}

// blockFormats maps the DXT variants to the layouts their FourCCs denote.
// DXT3 is BC2 and DXT5 is BC3, not the BC3/BC5 pairing of the squish
// format enum that is easily mistaken for it.
var blockFormats = map[Format]bc.Format{
	Dxt1: bc.BC1,
	Dxt3: bc.BC2,
	Dxt5: bc.BC3,
}

// stripWidth is the tiling width used when the image width is not known.
const stripWidth = 4

// Codec converts between native and canonical pixel buffers.
//
// Decode and Encode work on bare buffers. For Dxt1, Dxt3 and Dxt5 the image
// width is not known there, so the surface is treated as a strip 4 pixels
// wide: each 4×4 block maps to 16 consecutive canonical pixels in
// row-major order within the block. That is only the real image when the
// image is 4 pixels wide; callers that know the dimensions must use
// DecodeImage and EncodeImage, which reject widths and heights that are not
// multiples of 4.
//
// A Codec is safe for concurrent use.
type Codec struct {
	block  BlockCodec
	logger *slog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithBlockCodec replaces the block compressor used for Dxt formats.
func WithBlockCodec(b BlockCodec) Option {
	return func(c *Codec) {
		if b != nil {
			c.block = b
		}
	}
}

// WithLogger sets the logger for this codec instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		c.logger = l
	}
}

// NewCodec returns a Codec. By default Dxt formats are handled by bc.Codec
// with iterative cluster fit, uniform colour weights and colour weighted by
// alpha.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		block: bc.NewCodec(bc.DefaultParams),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = NewCodec()

// Decode converts native pixels of format f to canonical BGRA using the
// default codec.
func Decode(f Format, native []byte) ([]byte, error) {
	return defaultCodec.Decode(f, native)
}

// Encode converts canonical BGRA pixels to format f using the default codec.
func Encode(f Format, canonical []byte) ([]byte, error) {
	return defaultCodec.Encode(f, canonical)
}

func (c *Codec) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// Decode converts native pixels of format f to canonical BGRA.
func (c *Codec) Decode(f Format, native []byte) ([]byte, error) {
	if f.Compressed() {
		if err := checkLength(f, len(native), f.BlockSize(), "blocks"); err != nil {
			return nil, err
		}
		height := len(native) / f.BlockSize() * 4
		return c.decompress(f, native, stripWidth, height)
	}

	conv, err := lookup(f)
	if err != nil {
		return nil, err
	}
	if err := checkLength(f, len(native), conv.stride, "native pixels"); err != nil {
		return nil, err
	}
	out := conv.decodeAll(native)
	c.log().Debug("pixel: decode", "format", f, "in", len(native), "out", len(out))
	return out, nil
}

// Encode converts canonical BGRA pixels to format f.
func (c *Codec) Encode(f Format, canonical []byte) ([]byte, error) {
	if f.Compressed() {
		if err := checkLength(f, len(canonical), stripWidth*4*CanonicalStride, "canonical blocks"); err != nil {
			return nil, err
		}
		height := len(canonical) / (stripWidth * CanonicalStride)
		return c.compress(f, canonical, stripWidth, height)
	}

	conv, err := lookup(f)
	if err != nil {
		return nil, err
	}
	if err := checkLength(f, len(canonical), CanonicalStride, "canonical pixels"); err != nil {
		return nil, err
	}
	out := conv.encodeAll(canonical)
	c.log().Debug("pixel: encode", "format", f, "in", len(canonical), "out", len(out))
	return out, nil
}

// DecodeImage is Decode for a surface of known dimensions. The native
// buffer must hold exactly one width×height surface.
func (c *Codec) DecodeImage(f Format, native []byte, width, height int) ([]byte, error) {
	if err := checkDimensions(f, width, height); err != nil {
		return nil, err
	}
	if want := NativeSize(f, width, height); len(native) != want {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes, got %d",
			ErrInvalidBufferLength, f, width, height, want, len(native))
	}
	if f.Compressed() {
		return c.decompress(f, native, width, height)
	}
	return c.Decode(f, native)
}

// EncodeImage is Encode for a surface of known dimensions. The canonical
// buffer must hold exactly width×height pixels.
func (c *Codec) EncodeImage(f Format, canonical []byte, width, height int) ([]byte, error) {
	if err := checkDimensions(f, width, height); err != nil {
		return nil, err
	}
	if want := width * height * CanonicalStride; len(canonical) != want {
		return nil, fmt.Errorf("%w: %dx%d canonical needs %d bytes, got %d",
			ErrInvalidBufferLength, width, height, want, len(canonical))
	}
	if f.Compressed() {
		return c.compress(f, canonical, width, height)
	}
	return c.Encode(f, canonical)
}

// NativeSize returns the byte size of a width×height surface of format f,
// or 0 when f has no defined layout or the size does not fit in an int.
func NativeSize(f Format, width, height int) int {
	var (
		n  int
		ok bool
	)
	if f.Compressed() {
		n, ok = mulSize((width+3)/4, (height+3)/4, f.BlockSize())
	} else {
		n, ok = mulSize(width, height, f.Stride())
	}
	if !ok {
		return 0
	}
	return n
}

// mulSize returns a*b*c, or false if a factor is negative or the product
// overflows.
func mulSize(a, b, c int) (int, bool) {
	if a < 0 || b < 0 || c < 0 {
		return 0, false
	}
	if a == 0 || b == 0 || c == 0 {
		return 0, true
	}
	if a > math.MaxInt/b || a*b > math.MaxInt/c {
		return 0, false
	}
	return a * b * c, true
}

func (c *Codec) decompress(f Format, native []byte, width, height int) ([]byte, error) {
	rgba, err := c.block.Decompress(blockFormats[f], width, height, native)
	if err != nil {
		return nil, fmt.Errorf("pixel: decompress %s: %w", f, err)
	}
	swapRB(rgba)
	c.log().Debug("pixel: decompress", "format", f, "width", width, "height", height, "in", len(native))
	return rgba, nil
}

func (c *Codec) compress(f Format, canonical []byte, width, height int) ([]byte, error) {
	rgba := make([]byte, len(canonical))
	copy(rgba, canonical)
	swapRB(rgba)
	out, err := c.block.Compress(blockFormats[f], width, height, rgba)
	if err != nil {
		return nil, fmt.Errorf("pixel: compress %s: %w", f, err)
	}
	c.log().Debug("pixel: compress", "format", f, "width", width, "height", height, "out", len(out))
	return out, nil
}

func lookup(f Format) (*converter, error) {
	conv := converters[f]
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return conv, nil
}

func checkLength(f Format, n, unit int, what string) error {
	if n%unit != 0 {
		return fmt.Errorf("%w: %s: %d bytes is not a whole number of %s (%d bytes each)",
			ErrInvalidBufferLength, f, n, what, unit)
	}
	return nil
}

func checkDimensions(f Format, width, height int) error {
	if !f.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if f.Compressed() && (width%4 != 0 || height%4 != 0) {
		return fmt.Errorf("%w: %s needs multiples of 4, got %dx%d", ErrInvalidDimensions, f, width, height)
	}
	if _, ok := mulSize(width, height, CanonicalStride); !ok {
		return fmt.Errorf("%w: %dx%d is too large", ErrInvalidDimensions, width, height)
	}
	return nil
}

// swapRB exchanges bytes 0 and 2 of every 4-byte pixel, converting between
// BGRA and RGBA in place.
func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
