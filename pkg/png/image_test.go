package png

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRGBAGeometry(t *testing.T) {
	m, err := FromRGBA([]uint32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, uint8(8), m.BitDepth)
	assert.Equal(t, RGBA, m.ColorType)
	assert.Equal(t, 8, m.RowLength)
	require.Len(t, m.Rows, 2)
	for _, row := range m.Rows {
		assert.Len(t, row, 8)
	}
	assert.NoError(t, m.Validate())
}

func TestPackedLayouts(t *testing.T) {
	rgba, err := FromRGBA([]uint32{0x11223380}, 1, 1)
	require.NoError(t, err)
	argb, err := FromARGB([]uint32{0x80112233}, 1, 1)
	require.NoError(t, err)

	want := [4]byte{0x11, 0x22, 0x33, 0x80}
	assert.Equal(t, want, rgba.Pixel(0, 0))
	assert.Equal(t, want, argb.Pixel(0, 0))
}

func TestByteConstructors(t *testing.T) {
	rgba, err := FromRGBABytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rgba.Rows[0])

	argb, err := FromARGBBytes([]byte{4, 1, 2, 3, 8, 5, 6, 7}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, argb.Rows[0])
	assert.Equal(t, []byte{5, 6, 7, 8}, argb.Rows[1])
}

func TestConstructorErrors(t *testing.T) {
	cases := []struct {
		name string
		fn   func() (*Image, error)
	}{
		{"zero width", func() (*Image, error) { return NewImage(0, 1) }},
		{"negative height", func() (*Image, error) { return NewImage(1, -1) }},
		{"short pixels", func() (*Image, error) { return FromRGBA([]uint32{1, 2, 3}, 2, 2) }},
		{"long pixels", func() (*Image, error) { return FromARGB(make([]uint32, 5), 2, 2) }},
		{"short bytes", func() (*Image, error) { return FromRGBABytes(make([]byte, 15), 2, 2) }},
		{"bytes not whole pixels", func() (*Image, error) { return FromARGBBytes(make([]byte, 7), 2, 1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.fn()
			assert.Nil(t, m)
			var iie *InvalidImageError
			assert.True(t, errors.As(err, &iie), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	fresh := func() *Image {
		m, err := NewImage(2, 2)
		require.NoError(t, err)
		return m
	}

	m := fresh()
	m.BitDepth = 16
	assert.Error(t, m.Validate())

	m = fresh()
	m.RowLength = 4
	assert.Error(t, m.Validate())

	m = fresh()
	m.Rows = m.Rows[:1]
	assert.Error(t, m.Validate())

	m = fresh()
	m.Rows[0] = append(m.Rows[0], 0)
	assert.Error(t, m.Validate())

	assert.NoError(t, fresh().Validate())
}

func TestFromImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 0x40})
	gray.SetGray(1, 0, color.Gray{Y: 0xc0})

	m, err := FromImage(gray)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x40, 0x40, 0x40, 0xff, 0xc0, 0xc0, 0xc0, 0xff}, m.Rows[0])
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	sub := src.SubImage(image.Rect(1, 2, 3, 4))

	m, err := FromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, src.Pix[src.PixOffset(1, 2):src.PixOffset(3, 2)], m.Rows[0])
	assert.Equal(t, src.Pix[src.PixOffset(1, 3):src.PixOffset(3, 3)], m.Rows[1])
}

func TestImageInterface(t *testing.T) {
	m, err := FromRGBA([]uint32{0x01020304, 0x05060708}, 2, 1)
	require.NoError(t, err)

	var _ image.Image = m
	assert.Equal(t, image.Rect(0, 0, 2, 1), m.Bounds())
	assert.Equal(t, color.NRGBA{R: 5, G: 6, B: 7, A: 8}, m.At(1, 0))
	assert.Equal(t, color.NRGBA{}, m.At(2, 0))

	back, err := FromImage(m.ToNRGBA())
	require.NoError(t, err)
	assert.True(t, m.Equal(back))

	m.SetPixel(0, 0, [4]byte{9, 9, 9, 9})
	assert.False(t, m.Equal(back))
}
