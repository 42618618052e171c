package png

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// CompressionLevel tells the encoder how to trade compression speed for
// image size.
type CompressionLevel int

const (
	DefaultCompression CompressionLevel = 0
	NoCompression      CompressionLevel = -1
	BestSpeed          CompressionLevel = -2
	BestCompression    CompressionLevel = -3
)

func (l CompressionLevel) zlib() int {
	switch l {
	case DefaultCompression:
		return zlib.DefaultCompression
	case NoCompression:
		return zlib.NoCompression
	case BestSpeed:
		return zlib.BestSpeed
	case BestCompression:
		return zlib.BestCompression
	default:
		return zlib.DefaultCompression
	}
}

func (l CompressionLevel) String() string {
	switch l {
	case DefaultCompression:
		return "default"
	case NoCompression:
		return "none"
	case BestSpeed:
		return "speed"
	case BestCompression:
		return "best"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseCompressionLevel accepts "default", "none", "speed" and "best".
func ParseCompressionLevel(s string) (CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultCompression, nil
	case "none", "store":
		return NoCompression, nil
	case "speed", "fast", "bestspeed":
		return BestSpeed, nil
	case "best", "bestcompression":
		return BestCompression, nil
	default:
		return DefaultCompression, fmt.Errorf("unknown compression level %q", s)
	}
}

// Inflate decompresses a complete zlib stream.
func Inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &CorruptStreamError{Err: err}
	}
	defer zr.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, &CorruptStreamError{Err: err}
	}
	return out.Bytes(), nil
}

// InflateLimit decompresses at most limit bytes of a zlib stream. truncated
// reports whether the stream held more; the rest is not inflated, so its
// checksum is not verified.
func InflateLimit(compressed []byte, limit int) (out []byte, truncated bool, err error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, false, &CorruptStreamError{Err: err}
	}
	defer zr.Close()

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, zr, int64(limit)+1)
	if err != nil && err != io.EOF {
		return nil, false, &CorruptStreamError{Err: err}
	}
	if n > int64(limit) {
		return buf.Bytes()[:limit], true, nil
	}
	return buf.Bytes(), false, nil
}

// inflateExact decompresses exactly n bytes of pixel data and then requires
// the stream to end, which also verifies the zlib checksum.
func inflateExact(compressed []byte, n int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &CorruptStreamError{Err: err}
	}
	defer zr.Close()

	// Grow with the data actually inflated; n comes from an untrusted header.
	var out bytes.Buffer
	if _, err := io.CopyN(&out, zr, int64(n)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &CorruptStreamError{Err: err}
	}

	var extra [1]byte
	m := 0
	for i := 0; m == 0 && err == nil; i++ {
		if i == 100 {
			return nil, &CorruptStreamError{Err: io.ErrNoProgress}
		}
		m, err = zr.Read(extra[:])
	}
	if err != nil && err != io.EOF {
		return nil, &CorruptStreamError{Err: err}
	}
	if m != 0 {
		return nil, FormatError("too much pixel data")
	}
	return out.Bytes(), nil
}

// Deflate compresses raw into a zlib stream.
func Deflate(raw []byte, level CompressionLevel) ([]byte, error) {
	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, level.zlib())
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
