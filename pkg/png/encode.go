package png

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultMaxIDATSize bounds the payload of each IDAT chunk the encoder emits.
const DefaultMaxIDATSize = 8192

// Encoder writes 8-bit RGBA images as non-interlaced PNG datastreams.
type Encoder struct {
	CompressionLevel CompressionLevel
	Filter           FilterStrategy
	// MaxIDATSize splits the compressed stream across IDAT chunks of at most
	// this many bytes. Zero means DefaultMaxIDATSize.
	MaxIDATSize int
	// Logger receives a debug event per encoded image. Nil disables logging.
	Logger *zerolog.Logger
}

// Encode writes m to w using the default encoder settings.
func Encode(w io.Writer, m *Image) error {
	var e Encoder
	return e.Encode(w, m)
}

// EncodeBytes returns m as an in-memory PNG datastream.
func EncodeBytes(m *Image) ([]byte, error) {
	var e Encoder
	return e.EncodeBytes(m)
}

// WriteFile encodes m to path with the default encoder settings.
func WriteFile(path string, m *Image) error {
	var e Encoder
	return e.WriteFile(path, m, 0o644)
}

func (e *Encoder) Encode(w io.Writer, m *Image) error {
	if err := m.Validate(); err != nil {
		return err
	}

	filtered, err := Filter(m.Rows, bytesPerPixel, e.Filter)
	if err != nil {
		return err
	}
	compressed, err := Deflate(filtered, e.CompressionLevel)
	if err != nil {
		return err
	}

	hdr := Header{
		Width:     m.Width,
		Height:    m.Height,
		BitDepth:  8,
		ColorType: RGBA,
		Interlace: InterlaceNone,
	}
	bw := bufio.NewWriter(w)
	cw := NewChunkWriter(bw)
	if err := cw.WriteSignature(); err != nil {
		return err
	}
	if err := cw.WriteChunk(chunkIHDR, hdr.marshal()); err != nil {
		return err
	}

	limit := e.MaxIDATSize
	if limit <= 0 {
		limit = DefaultMaxIDATSize
	}
	chunks := 0
	for len(compressed) > 0 {
		n := len(compressed)
		if n > limit {
			n = limit
		}
		if err := cw.WriteChunk(chunkIDAT, compressed[:n]); err != nil {
			return err
		}
		compressed = compressed[n:]
		chunks++
	}
	if err := cw.WriteChunk(chunkIEND, nil); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}

	e.logger().Debug().
		Int("width", m.Width).
		Int("height", m.Height).
		Stringer("filter", e.Filter).
		Stringer("compression", e.CompressionLevel).
		Int("idat_chunks", chunks).
		Msg("encoded png")
	return nil
}

func (e *Encoder) EncodeBytes(m *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes m into a temporary file next to path and renames it
// into place once it is complete, so a failed write never leaves a
// truncated PNG at path.
func (e *Encoder) WriteFile(path string, m *Image, perm fs.FileMode) error {
	if err := m.Validate(); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".pngkit-*.tmp")
	if err != nil {
		return &IOError{Op: "create", Err: err}
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return &IOError{Op: "chmod", Err: err}
	}
	if err := e.Encode(tmpFile, m); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return &IOError{Op: "sync", Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	if err := replaceFile(tmpFile.Name(), path); err != nil {
		return &IOError{Op: "rename", Err: err}
	}
	return nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func (e *Encoder) logger() *zerolog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
