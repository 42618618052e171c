package png

import (
	"bytes"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

const bytesPerPixel = 4

// Image is an 8-bit RGBA raster held as one owned byte slice per scanline.
// Every row is RowLength bytes long, in R, G, B, A order.
type Image struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType ColorType
	Rows      [][]byte
	RowLength int
}

// NewImage returns a transparent black image of the given size.
func NewImage(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidImage("non-positive dimension %dx%d", width, height)
	}
	if width > maxDimension/bytesPerPixel || height > maxDimension {
		return nil, invalidImage("dimension overflow %dx%d", width, height)
	}
	m := &Image{
		Width:     width,
		Height:    height,
		BitDepth:  8,
		ColorType: RGBA,
		Rows:      make([][]byte, height),
		RowLength: width * bytesPerPixel,
	}
	for y := range m.Rows {
		m.Rows[y] = make([]byte, m.RowLength)
	}
	return m, nil
}

// FromRGBA builds an image from pixels packed as 0xRRGGBBAA, row by row.
func FromRGBA(pixels []uint32, width, height int) (*Image, error) {
	return fromPacked(pixels, width, height, func(p uint32) [4]byte {
		return [4]byte{byte(p >> 24), byte(p >> 16), byte(p >> 8), byte(p)}
	})
}

// FromARGB builds an image from pixels packed as 0xAARRGGBB, row by row.
func FromARGB(pixels []uint32, width, height int) (*Image, error) {
	return fromPacked(pixels, width, height, func(p uint32) [4]byte {
		return [4]byte{byte(p >> 16), byte(p >> 8), byte(p), byte(p >> 24)}
	})
}

func fromPacked(pixels []uint32, width, height int, unpack func(uint32) [4]byte) (*Image, error) {
	m, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	if len(pixels) != width*height {
		return nil, invalidImage("got %d pixels for %dx%d", len(pixels), width, height)
	}
	for y, row := range m.Rows {
		for x := 0; x < width; x++ {
			px := unpack(pixels[y*width+x])
			copy(row[x*bytesPerPixel:], px[:])
		}
	}
	return m, nil
}

// FromRGBABytes builds an image from a tightly packed R, G, B, A byte buffer.
func FromRGBABytes(pix []byte, width, height int) (*Image, error) {
	m, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != width*height*bytesPerPixel {
		return nil, invalidImage("got %d bytes for %dx%d", len(pix), width, height)
	}
	for y, row := range m.Rows {
		copy(row, pix[y*m.RowLength:])
	}
	return m, nil
}

// FromARGBBytes builds an image from a tightly packed A, R, G, B byte buffer.
func FromARGBBytes(pix []byte, width, height int) (*Image, error) {
	m, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != width*height*bytesPerPixel {
		return nil, invalidImage("got %d bytes for %dx%d", len(pix), width, height)
	}
	for y, row := range m.Rows {
		src := pix[y*m.RowLength : (y+1)*m.RowLength]
		for i := 0; i < len(src); i += bytesPerPixel {
			row[i], row[i+1], row[i+2], row[i+3] = src[i+1], src[i+2], src[i+3], src[i]
		}
	}
	return m, nil
}

// FromImage converts any image to non-premultiplied 8-bit RGBA.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	m, err := NewImage(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(nrgba, nrgba.Bounds(), src, b.Min, xdraw.Src)
		b = nrgba.Bounds()
	}
	for y, row := range m.Rows {
		off := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
		copy(row, nrgba.Pix[off:off+m.RowLength])
	}
	return m, nil
}

// ToNRGBA copies the image into a standard library NRGBA image.
func (m *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y, row := range m.Rows {
		copy(dst.Pix[y*dst.Stride:], row)
	}
	return dst
}

// Validate checks the invariants the encoder relies on.
func (m *Image) Validate() error {
	if m == nil {
		return invalidImage("nil image")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return invalidImage("non-positive dimension %dx%d", m.Width, m.Height)
	}
	if m.BitDepth != 8 || m.ColorType != RGBA {
		return invalidImage("bit depth %d, color type %s; want 8-bit rgba", m.BitDepth, m.ColorType)
	}
	if m.RowLength != m.Width*bytesPerPixel {
		return invalidImage("row length %d, want %d", m.RowLength, m.Width*bytesPerPixel)
	}
	if len(m.Rows) != m.Height {
		return invalidImage("%d rows, want %d", len(m.Rows), m.Height)
	}
	for y, row := range m.Rows {
		if len(row) != m.RowLength {
			return invalidImage("row %d has length %d, want %d", y, len(row), m.RowLength)
		}
	}
	return nil
}

// Equal reports whether both images have the same geometry and pixels.
func (m *Image) Equal(o *Image) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Width != o.Width || m.Height != o.Height || m.BitDepth != o.BitDepth ||
		m.ColorType != o.ColorType || m.RowLength != o.RowLength || len(m.Rows) != len(o.Rows) {
		return false
	}
	for y := range m.Rows {
		if !bytes.Equal(m.Rows[y], o.Rows[y]) {
			return false
		}
	}
	return true
}

// Pixel returns the R, G, B, A bytes at (x, y).
func (m *Image) Pixel(x, y int) [4]byte {
	var px [4]byte
	copy(px[:], m.Rows[y][x*bytesPerPixel:])
	return px
}

func (m *Image) SetPixel(x, y int, px [4]byte) {
	copy(m.Rows[y][x*bytesPerPixel:], px[:])
}

func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return color.NRGBA{}
	}
	px := m.Pixel(x, y)
	return color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
}
