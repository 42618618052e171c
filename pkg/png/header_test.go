package png

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	want := header(640, 480, 4, Palette)
	h, err := ParseHeader(want.marshal())
	require.NoError(t, err)
	assert.Equal(t, want, h)
}

func TestParseHeaderErrors(t *testing.T) {
	valid := header(4, 4, 8, RGB).marshal()
	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), valid...)
		f(b)
		return b
	}

	formatCases := map[string][]byte{
		"short":            valid[:12],
		"zero width":       mutate(func(b []byte) { copy(b[0:4], []byte{0, 0, 0, 0}) }),
		"zero height":      mutate(func(b []byte) { copy(b[4:8], []byte{0, 0, 0, 0}) }),
		"huge width":       mutate(func(b []byte) { copy(b[0:4], []byte{0x80, 0, 0, 0}) }),
		"interlace method": mutate(func(b []byte) { b[12] = 2 }),
	}
	for name, data := range formatCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHeader(data)
			var fe FormatError
			assert.True(t, errors.As(err, &fe), "got %v", err)
		})
	}

	unsupportedCases := map[string][]byte{
		"rgb depth 4":        mutate(func(b []byte) { b[8] = 4 }),
		"palette depth 16":   mutate(func(b []byte) { b[8], b[9] = 16, 3 }),
		"unknown color type": mutate(func(b []byte) { b[9] = 5 }),
		"compression method": mutate(func(b []byte) { b[10] = 1 }),
		"filter method":      mutate(func(b []byte) { b[11] = 1 }),
		"adam7":              mutate(func(b []byte) { b[12] = 1 }),
	}
	for name, data := range unsupportedCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHeader(data)
			assert.True(t, IsUnsupported(err), "got %v", err)
		})
	}
}

func TestHeaderGeometry(t *testing.T) {
	cases := []struct {
		h        Header
		rowBytes int
		bpp      int
	}{
		{header(10, 1, 1, Grayscale), 2, 1},
		{header(3, 1, 2, Palette), 1, 1},
		{header(5, 1, 4, Palette), 3, 1},
		{header(3, 1, 8, RGB), 9, 3},
		{header(3, 1, 16, RGB), 18, 6},
		{header(2, 1, 16, GrayscaleAlpha), 8, 4},
		{header(2, 1, 16, RGBA), 16, 8},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rowBytes, tc.h.RowBytes(), "%+v", tc.h)
		assert.Equal(t, tc.bpp, tc.h.FilterBytesPerPixel(), "%+v", tc.h)
	}
}
