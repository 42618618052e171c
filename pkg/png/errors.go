package png

import (
	"errors"
	"fmt"
)

// A FormatError reports that the input is not a valid PNG.
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

var chunkOrderError = FormatError("chunk out of order")

// An UnsupportedFeatureError reports that the input uses a valid PNG feature
// that this package does not implement, such as interlacing.
type UnsupportedFeatureError string

func (e UnsupportedFeatureError) Error() string { return "png: unsupported feature: " + string(e) }

// A CorruptChunkError reports a chunk whose stored CRC does not match its contents.
type CorruptChunkError struct {
	Type     string
	Stored   uint32
	Computed uint32
}

func (e *CorruptChunkError) Error() string {
	return fmt.Sprintf("png: corrupt %s chunk: crc %08x, computed %08x", e.Type, e.Stored, e.Computed)
}

// A CorruptStreamError reports compressed image data that could not be inflated.
type CorruptStreamError struct {
	Err error
}

func (e *CorruptStreamError) Error() string {
	return fmt.Sprintf("png: corrupt image data stream: %v", e.Err)
}

func (e *CorruptStreamError) Unwrap() error { return e.Err }

// A CorruptFilterError reports a scanline with an unknown filter type byte.
type CorruptFilterError struct {
	Row    int
	Filter byte
}

func (e *CorruptFilterError) Error() string {
	return fmt.Sprintf("png: bad filter type %d on row %d", e.Filter, e.Row)
}

// MissingPaletteError is returned for a palette image without a PLTE chunk.
type MissingPaletteError struct{}

func (MissingPaletteError) Error() string { return "png: palette image without PLTE chunk" }

// An IOError wraps a failure of the underlying byte source or sink.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "png: " + e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// An InvalidImageError reports an Image that breaks its own invariants, or a
// pixel buffer that does not match the requested dimensions.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string { return "png: invalid image: " + e.Reason }

func invalidImage(format string, args ...interface{}) error {
	return &InvalidImageError{Reason: fmt.Sprintf(format, args...)}
}

// IsCorrupt reports whether err means the input is damaged or malformed.
func IsCorrupt(err error) bool {
	var (
		fe  FormatError
		cce *CorruptChunkError
		cse *CorruptStreamError
		cfe *CorruptFilterError
		mpe MissingPaletteError
	)
	return errors.As(err, &fe) || errors.As(err, &cce) || errors.As(err, &cse) ||
		errors.As(err, &cfe) || errors.As(err, &mpe)
}

// IsUnsupported reports whether err means the input is valid but uses a
// feature outside what this package decodes.
func IsUnsupported(err error) bool {
	var ufe UnsupportedFeatureError
	return errors.As(err, &ufe)
}
