package pixel

import "errors"

var (
	// ErrUnsupportedFormat is returned for Unknown and for recognized
	// formats that have no conversion.
	ErrUnsupportedFormat = errors.New("pixel: unsupported format")

	// ErrMalformedHeader is returned when a header stream is too short or
	// cannot be read at the required offsets.
	ErrMalformedHeader = errors.New("pixel: malformed header")

	// ErrInvalidBufferLength is returned when a buffer is not a whole number
	// of pixels or blocks for its format.
	ErrInvalidBufferLength = errors.New("pixel: invalid buffer length")

	// ErrInvalidDimensions is returned when explicit image dimensions do not
	// fit the format or the buffer.
	ErrInvalidDimensions = errors.New("pixel: invalid dimensions")
)
