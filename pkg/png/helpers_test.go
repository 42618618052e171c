package png

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type testChunk struct {
	typ  string
	data []byte
}

// buildPNG assembles a datastream from a header, filter-prefixed raw rows and
// the chunks that go between IHDR and IDAT.
func buildPNG(t *testing.T, h Header, filtered []byte, extra ...testChunk) []byte {
	t.Helper()

	compressed, err := Deflate(filtered, DefaultCompression)
	require.NoError(t, err)

	chunks := []testChunk{{chunkIHDR, h.marshal()}}
	chunks = append(chunks, extra...)
	chunks = append(chunks, testChunk{chunkIDAT, compressed}, testChunk{chunkIEND, nil})
	return writeChunks(t, chunks...)
}

func writeChunks(t *testing.T, chunks ...testChunk) []byte {
	t.Helper()

	var buf bytes.Buffer
	cw := NewChunkWriter(&buf)
	require.NoError(t, cw.WriteSignature())
	for _, c := range chunks {
		require.NoError(t, cw.WriteChunk(c.typ, c.data))
	}
	return buf.Bytes()
}

// chunkSpan locates one chunk inside an encoded datastream.
type chunkSpan struct {
	typ        string
	dataOffset int
	length     int
}

func chunkSpans(t *testing.T, data []byte) []chunkSpan {
	t.Helper()

	var spans []chunkSpan
	off := len(Signature)
	for off < len(data) {
		require.GreaterOrEqual(t, len(data)-off, 12)
		length := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		spans = append(spans, chunkSpan{typ: typ, dataOffset: off + 8, length: length})
		off += 12 + length
		if typ == chunkIEND {
			break
		}
	}
	return spans
}

func header(w, h int, depth uint8, ct ColorType) Header {
	return Header{Width: w, Height: h, BitDepth: depth, ColorType: ct}
}

// checkerboard alternates opaque black and opaque white cells of one pixel.
func checkerboard(t *testing.T, w, h int) *Image {
	t.Helper()

	pixels := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				pixels[y*w+x] = 0xff000000
			} else {
				pixels[y*w+x] = 0xffffffff
			}
		}
	}
	m, err := FromARGB(pixels, w, h)
	require.NoError(t, err)
	return m
}
