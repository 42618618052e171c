package png

import (
	"encoding/binary"
	"fmt"
)

// ColorType is the IHDR color type.
type ColorType uint8

const (
	Grayscale      ColorType = 0
	RGB            ColorType = 2
	Palette        ColorType = 3
	GrayscaleAlpha ColorType = 4
	RGBA           ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case Palette:
		return "palette"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case RGBA:
		return "rgba"
	default:
		return fmt.Sprintf("colortype(%d)", uint8(c))
	}
}

func (c ColorType) channels() int {
	switch c {
	case RGB:
		return 3
	case GrayscaleAlpha:
		return 2
	case RGBA:
		return 4
	default:
		return 1
	}
}

// HasAlpha reports whether pixels of this color type carry their own alpha sample.
func (c ColorType) HasAlpha() bool {
	return c == GrayscaleAlpha || c == RGBA
}

// Interlace methods.
const (
	InterlaceNone  = 0
	InterlaceAdam7 = 1
)

const (
	headerLength = 13
	maxDimension = 0x7fffffff
)

var validDepths = map[ColorType][]uint8{
	Grayscale:      {1, 2, 4, 8, 16},
	RGB:            {8, 16},
	Palette:        {1, 2, 4, 8},
	GrayscaleAlpha: {8, 16},
	RGBA:           {8, 16},
}

// Header is the decoded IHDR chunk.
type Header struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType ColorType
	Interlace uint8
}

// ParseHeader validates and decodes an IHDR chunk body.
func ParseHeader(data []byte) (Header, error) {
	if len(data) != headerLength {
		return Header{}, FormatError("bad IHDR length")
	}
	if data[10] != 0 {
		return Header{}, UnsupportedFeatureError("compression method")
	}
	if data[11] != 0 {
		return Header{}, UnsupportedFeatureError("filter method")
	}
	switch data[12] {
	case InterlaceNone:
	case InterlaceAdam7:
		return Header{}, UnsupportedFeatureError("interlaced image")
	default:
		return Header{}, FormatError("invalid interlace method")
	}

	w := binary.BigEndian.Uint32(data[0:4])
	h := binary.BigEndian.Uint32(data[4:8])
	if w == 0 || h == 0 {
		return Header{}, FormatError("non-positive dimension")
	}
	if w > maxDimension || h > maxDimension {
		return Header{}, FormatError("dimension overflow")
	}

	hdr := Header{
		Width:     int(w),
		Height:    int(h),
		BitDepth:  data[8],
		ColorType: ColorType(data[9]),
		Interlace: data[12],
	}
	if !hdr.validDepth() {
		return Header{}, UnsupportedFeatureError(fmt.Sprintf("bit depth %d, color type %d", data[8], data[9]))
	}
	// There can be up to 8 bytes per pixel, for 16 bits per channel RGBA.
	nPixels := int64(hdr.Width) * int64(hdr.Height)
	if nPixels != int64(int(nPixels)) || nPixels != (nPixels*8)/8 {
		return Header{}, UnsupportedFeatureError("dimension overflow")
	}
	return hdr, nil
}

func (h Header) validDepth() bool {
	for _, d := range validDepths[h.ColorType] {
		if d == h.BitDepth {
			return true
		}
	}
	return false
}

// BitsPerPixel is the number of bits one pixel occupies in a raw scanline.
func (h Header) BitsPerPixel() int {
	return int(h.BitDepth) * h.ColorType.channels()
}

// RowBytes is the length of one raw scanline, excluding the filter type byte.
func (h Header) RowBytes() int {
	return (h.BitsPerPixel()*h.Width + 7) / 8
}

// FilterBytesPerPixel is the distance, in bytes, between a byte and the
// corresponding byte of the pixel to its left. Sub-byte pixels round up to 1.
func (h Header) FilterBytesPerPixel() int {
	return (h.BitsPerPixel() + 7) / 8
}

func (h Header) marshal() []byte {
	b := make([]byte, headerLength)
	binary.BigEndian.PutUint32(b[0:4], uint32(h.Width))
	binary.BigEndian.PutUint32(b[4:8], uint32(h.Height))
	b[8] = h.BitDepth
	b[9] = byte(h.ColorType)
	b[10] = 0
	b[11] = 0
	b[12] = h.Interlace
	return b
}
