package png

import (
	"bytes"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Decoding stage. IHDR, PLTE (if present), tRNS (if present), IDAT and IEND
// must appear in that order, and IDAT chunks must be consecutive.
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeentRNS
	dsSeenIDAT
	dsSeenIEND
)

// Decoder reads PNG datastreams into 8-bit RGBA images.
type Decoder struct {
	// Logger receives a debug event per decoded image. Nil disables logging.
	Logger *zerolog.Logger
}

// assembly collects what the chunk pass produces before pixels are rebuilt.
type assembly struct {
	header     Header
	stage      int
	plte       []byte
	trns       []byte
	idat       bytes.Buffer
	idatChunks int
	idatDone   bool
}

// Decode reads a PNG image from r.
func Decode(r io.Reader) (*Image, error) {
	var d Decoder
	return d.Decode(r)
}

// DecodeBytes decodes an in-memory PNG datastream.
func DecodeBytes(data []byte) (*Image, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile opens and decodes the PNG file at path.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	defer f.Close()
	return Decode(f)
}

// DecodeHeader reads the signature and IHDR chunk only.
func DecodeHeader(r io.Reader) (Header, error) {
	cr := NewChunkReader(r)
	c, err := cr.Next()
	if err != nil {
		return Header{}, err
	}
	if c.Type != chunkIHDR {
		return Header{}, FormatError("missing IHDR chunk")
	}
	return ParseHeader(c.Data)
}

func (d *Decoder) Decode(r io.Reader) (*Image, error) {
	a := &assembly{}
	cr := NewChunkReader(r)
	for a.stage != dsSeenIEND {
		c, err := cr.Next()
		if err != nil {
			return nil, err
		}
		if err := a.consume(c); err != nil {
			return nil, err
		}
	}

	h := a.header
	raw, err := inflateExact(a.idat.Bytes(), h.Height*(h.RowBytes()+1))
	if err != nil {
		return nil, err
	}
	rows, err := Unfilter(raw, h.RowBytes(), h.FilterBytesPerPixel())
	if err != nil {
		return nil, err
	}
	rows, err = Normalize(rows, h, a.plte, a.trns)
	if err != nil {
		return nil, err
	}

	d.logger().Debug().
		Int("width", h.Width).
		Int("height", h.Height).
		Stringer("color_type", h.ColorType).
		Uint8("bit_depth", h.BitDepth).
		Int("idat_chunks", a.idatChunks).
		Msg("decoded png")

	return &Image{
		Width:     h.Width,
		Height:    h.Height,
		BitDepth:  8,
		ColorType: RGBA,
		Rows:      rows,
		RowLength: h.Width * bytesPerPixel,
	}, nil
}

func (a *assembly) consume(c Chunk) error {
	switch c.Type {
	case chunkIHDR:
		if a.stage != dsStart {
			return chunkOrderError
		}
		h, err := ParseHeader(c.Data)
		if err != nil {
			return err
		}
		a.header = h
		a.stage = dsSeenIHDR
		return nil
	}

	if a.stage == dsStart {
		return FormatError("missing IHDR chunk")
	}
	if a.stage == dsSeenIDAT && c.Type != chunkIDAT {
		a.idatDone = true
	}

	switch c.Type {
	case chunkPLTE:
		if a.stage != dsSeenIHDR {
			return chunkOrderError
		}
		switch a.header.ColorType {
		case Grayscale, GrayscaleAlpha:
			return FormatError("PLTE, color type mismatch")
		}
		if err := checkPaletteLength(len(c.Data), paletteDepth(a.header)); err != nil {
			return err
		}
		a.plte = c.Data
		a.stage = dsSeenPLTE
	case chunkTRNS:
		if a.header.ColorType == Palette {
			if a.stage == dsSeenIHDR {
				return MissingPaletteError{}
			}
			if a.stage != dsSeenPLTE {
				return chunkOrderError
			}
		} else if a.stage != dsSeenIHDR && a.stage != dsSeenPLTE {
			return chunkOrderError
		}
		if a.header.ColorType.HasAlpha() {
			return FormatError("tRNS, color type mismatch")
		}
		a.trns = c.Data
		a.stage = dsSeentRNS
	case chunkIDAT:
		if a.idatDone {
			return FormatError("IDAT chunks are not consecutive")
		}
		if a.stage < dsSeenPLTE && a.header.ColorType == Palette {
			return MissingPaletteError{}
		}
		a.idat.Write(c.Data)
		a.idatChunks++
		a.stage = dsSeenIDAT
	case chunkIEND:
		if a.stage < dsSeenIDAT {
			return FormatError("missing IDAT chunk")
		}
		if len(c.Data) != 0 {
			return FormatError("bad IEND length")
		}
		a.stage = dsSeenIEND
	default:
		if c.Critical() {
			return UnsupportedFeatureError("critical chunk " + c.Type)
		}
	}
	return nil
}

// paletteDepth bounds palette size: a suggested palette on a truecolor image
// may hold up to 256 entries.
func paletteDepth(h Header) uint8 {
	if h.ColorType == Palette {
		return h.BitDepth
	}
	return 8
}

func (d *Decoder) logger() *zerolog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
