package png

import "encoding/binary"

// pixelFormat is the per-image transform table: which samples to read, how
// to widen or narrow them, and where alpha comes from. It is derived from
// the header and the optional PLTE and tRNS chunks alone.
type pixelFormat struct {
	header  Header
	palette [][4]byte

	// useKey and key implement grayscale and truecolor transparency, as
	// opposed to palette transparency.
	useKey bool
	key    [3]uint16
}

func newPixelFormat(h Header, plte, trns []byte) (pixelFormat, error) {
	f := pixelFormat{header: h}

	if h.ColorType == Palette {
		if len(plte) == 0 {
			return f, MissingPaletteError{}
		}
		if err := checkPaletteLength(len(plte), h.BitDepth); err != nil {
			return f, err
		}
		f.palette = make([][4]byte, len(plte)/3)
		for i := range f.palette {
			f.palette[i] = [4]byte{plte[3*i], plte[3*i+1], plte[3*i+2], 0xff}
		}
	}

	if trns == nil {
		return f, nil
	}
	switch h.ColorType {
	case Palette:
		if len(trns) > len(f.palette) {
			return f, FormatError("bad tRNS length")
		}
		for i, a := range trns {
			f.palette[i][3] = a
		}
	case Grayscale:
		if len(trns) != 2 {
			return f, FormatError("bad tRNS length")
		}
		f.useKey = true
		f.key[0] = binary.BigEndian.Uint16(trns) & f.sampleMask()
	case RGB:
		if len(trns) != 6 {
			return f, FormatError("bad tRNS length")
		}
		f.useKey = true
		for c := 0; c < 3; c++ {
			f.key[c] = binary.BigEndian.Uint16(trns[2*c:]) & f.sampleMask()
		}
	default:
		return f, FormatError("tRNS, color type mismatch")
	}
	return f, nil
}

func checkPaletteLength(length int, depth uint8) error {
	np := length / 3
	if length%3 != 0 || np <= 0 || np > 256 || np > 1<<uint(depth) {
		return FormatError("bad PLTE length")
	}
	return nil
}

func (f pixelFormat) sampleMask() uint16 {
	if f.header.BitDepth == 16 {
		return 0xffff
	}
	return uint16(1)<<f.header.BitDepth - 1
}

// sample returns channel c of pixel x at the source bit depth.
func (f pixelFormat) sample(row []byte, x, c int) uint16 {
	n := f.header.ColorType.channels()
	switch d := int(f.header.BitDepth); d {
	case 8:
		return uint16(row[x*n+c])
	case 16:
		return binary.BigEndian.Uint16(row[(x*n+c)*2:])
	default:
		// Sub-byte depths only occur with a single channel, packed MSB first.
		bit := x * d
		shift := 8 - d - bit%8
		return uint16(row[bit/8]>>uint(shift)) & f.sampleMask()
	}
}

// to8 scales a sample to 8 bits: 16-bit samples keep their high byte and
// sub-byte samples are widened by bit replication.
func (f pixelFormat) to8(s uint16) byte {
	switch d := f.header.BitDepth; d {
	case 16:
		return byte(s >> 8)
	case 8:
		return byte(s)
	default:
		return byte(s * (0xff / f.sampleMask()))
	}
}

func (f pixelFormat) expandRow(row []byte) ([]byte, error) {
	w := f.header.Width
	dst := make([]byte, w*4)
	switch f.header.ColorType {
	case Grayscale:
		for x := 0; x < w; x++ {
			s := f.sample(row, x, 0)
			g := f.to8(s)
			a := byte(0xff)
			if f.useKey && s == f.key[0] {
				a = 0
			}
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = g, g, g, a
		}
	case GrayscaleAlpha:
		for x := 0; x < w; x++ {
			g := f.to8(f.sample(row, x, 0))
			dst[4*x], dst[4*x+1], dst[4*x+2] = g, g, g
			dst[4*x+3] = f.to8(f.sample(row, x, 1))
		}
	case RGB:
		for x := 0; x < w; x++ {
			r, g, b := f.sample(row, x, 0), f.sample(row, x, 1), f.sample(row, x, 2)
			a := byte(0xff)
			if f.useKey && r == f.key[0] && g == f.key[1] && b == f.key[2] {
				a = 0
			}
			dst[4*x], dst[4*x+1], dst[4*x+2], dst[4*x+3] = f.to8(r), f.to8(g), f.to8(b), a
		}
	case RGBA:
		if f.header.BitDepth == 8 {
			copy(dst, row)
			break
		}
		for x := 0; x < w; x++ {
			for c := 0; c < 4; c++ {
				dst[4*x+c] = f.to8(f.sample(row, x, c))
			}
		}
	case Palette:
		for x := 0; x < w; x++ {
			idx := int(f.sample(row, x, 0))
			if idx >= len(f.palette) {
				return nil, FormatError("palette index out of range")
			}
			copy(dst[4*x:4*x+4], f.palette[idx][:])
		}
	default:
		return nil, UnsupportedFeatureError("color type " + f.header.ColorType.String())
	}
	return dst, nil
}

// Normalize converts raw, unfiltered scanlines of any supported color type
// and bit depth into 8-bit RGBA rows of Width*4 bytes. plte and trns are the
// PLTE and tRNS chunk bodies, or nil when the image has none.
func Normalize(rows [][]byte, h Header, plte, trns []byte) ([][]byte, error) {
	f, err := newPixelFormat(h, plte, trns)
	if err != nil {
		return nil, err
	}
	want := h.RowBytes()
	out := make([][]byte, len(rows))
	for y, row := range rows {
		if len(row) != want {
			return nil, FormatError("raw row length does not match header")
		}
		if out[y], err = f.expandRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
