package png

import (
	"bytes"
	"errors"
	"image"
	stdpng "image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCheckerboardRoundTrip(t *testing.T) {
	m, err := FromRGBA([]uint32{
		0x000000ff, 0xffffffff,
		0xffffffff, 0x000000ff,
	}, 2, 2)
	require.NoError(t, err)

	data, err := EncodeBytes(m)
	require.NoError(t, err)
	assert.Equal(t, Signature, string(data[:len(Signature)]))

	got, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Width)
	assert.Equal(t, 2, got.Height)
	assert.Equal(t, 8, got.RowLength)
	assert.Equal(t, []byte{0, 0, 0, 255, 255, 255, 255, 255}, got.Rows[0])
	assert.Equal(t, []byte{255, 255, 255, 255, 0, 0, 0, 255}, got.Rows[1])
	assert.True(t, m.Equal(got))
}

func TestEncodeRoundTripSettings(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	images := []*Image{randomImage(t, rng, 1, 1), randomImage(t, rng, 17, 5), randomImage(t, rng, 64, 33)}

	levels := []CompressionLevel{DefaultCompression, NoCompression, BestSpeed, BestCompression}
	strategies := []FilterStrategy{
		StrategyAdaptive, StrategyNone, StrategySub, StrategyUp, StrategyAverage, StrategyPaeth,
	}
	for _, level := range levels {
		for _, strategy := range strategies {
			e := Encoder{CompressionLevel: level, Filter: strategy}
			t.Run(level.String()+"/"+strategy.String(), func(t *testing.T) {
				for _, m := range images {
					data, err := e.EncodeBytes(m)
					require.NoError(t, err)
					got, err := DecodeBytes(data)
					require.NoError(t, err)
					assert.True(t, m.Equal(got), "%dx%d", m.Width, m.Height)
				}
			})
		}
	}
}

func TestEncodeReadableByStandardLibrary(t *testing.T) {
	m := randomImage(t, rand.New(rand.NewSource(3)), 31, 12)
	data, err := EncodeBytes(m)
	require.NoError(t, err)

	decoded, err := stdpng.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	nrgba, ok := decoded.(*image.NRGBA)
	require.True(t, ok, "got %T", decoded)
	assert.Equal(t, m.ToNRGBA().Pix, nrgba.Pix)
}

func TestEncodeSplitsIDAT(t *testing.T) {
	m := randomImage(t, rand.New(rand.NewSource(5)), 40, 40)
	e := Encoder{CompressionLevel: NoCompression, MaxIDATSize: 100}
	data, err := e.EncodeBytes(m)
	require.NoError(t, err)

	cr := NewChunkReader(bytes.NewReader(data))
	var types []string
	for {
		c, err := cr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if c.Type == chunkIDAT {
			assert.LessOrEqual(t, c.Length(), 100)
		}
		types = append(types, c.Type)
	}
	require.Greater(t, len(types), 3)
	assert.Equal(t, chunkIHDR, types[0])
	assert.Equal(t, chunkIEND, types[len(types)-1])
	for _, typ := range types[1 : len(types)-1] {
		assert.Equal(t, chunkIDAT, typ)
	}

	got, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))
}

func TestEncodeInvalidImage(t *testing.T) {
	m, err := NewImage(2, 2)
	require.NoError(t, err)
	m.Rows[1] = m.Rows[1][:4]

	_, err = EncodeBytes(m)
	var iie *InvalidImageError
	assert.True(t, errors.As(err, &iie), "got %v", err)

	_, err = EncodeBytes(nil)
	assert.True(t, errors.As(err, &iie), "got %v", err)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestEncodeSinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	err := Encode(failingWriter{boom}, checkerboard(t, 3, 3))

	var ioe *IOError
	require.True(t, errors.As(err, &ioe), "got %v", err)
	assert.ErrorIs(t, err, boom)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	m := checkerboard(t, 5, 4)
	e := Encoder{}
	require.NoError(t, e.WriteFile(path, m, 0o640))

	got, err := DecodeFile(path)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files left behind")
	assert.Equal(t, "out.png", entries[0].Name())
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.png")
	err := WriteFile(path, checkerboard(t, 1, 1))

	var ioe *IOError
	require.True(t, errors.As(err, &ioe), "got %v", err)
	assert.Equal(t, "create", ioe.Op)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func randomImage(t *testing.T, rng *rand.Rand, w, h int) *Image {
	t.Helper()

	pix := make([]byte, w*h*4)
	rng.Read(pix)
	m, err := FromRGBABytes(pix, w, h)
	require.NoError(t, err)
	return m
}
