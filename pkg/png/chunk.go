package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
	"io"
)

// Signature is the 8-byte header every PNG datastream starts with.
const Signature = "\x89PNG\r\n\x1a\n"

const maxChunkLength = 0x7fffffff

// Chunk types handled by the codec.
const (
	chunkIHDR = "IHDR"
	chunkPLTE = "PLTE"
	chunkTRNS = "tRNS"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
)

// Chunk is a single length-prefixed, CRC-protected block of a PNG datastream.
type Chunk struct {
	Type string
	Data []byte
	CRC  uint32
}

// Length is the number of data bytes in the chunk.
func (c Chunk) Length() int {
	return len(c.Data)
}

// Critical reports whether a decoder must understand the chunk to render the image.
func (c Chunk) Critical() bool {
	return len(c.Type) == 4 && c.Type[0] >= 'A' && c.Type[0] <= 'Z'
}

// ChunkReader yields the chunks of a PNG datastream one at a time.
type ChunkReader struct {
	r        io.Reader
	crc      hash.Hash32
	tmp      [8]byte
	started  bool
	finished bool
}

// NewChunkReader returns a reader over r. The signature is checked by the
// first call to Next.
func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{r: r, crc: crc32.NewIEEE()}
}

// Next returns the next chunk. It returns io.EOF once the IEND chunk has been
// returned; nothing past IEND is read from the source.
func (cr *ChunkReader) Next() (Chunk, error) {
	if cr.finished {
		return Chunk{}, io.EOF
	}
	if !cr.started {
		if err := cr.checkSignature(); err != nil {
			return Chunk{}, err
		}
		cr.started = true
	}

	if err := cr.readFull(cr.tmp[:8]); err != nil {
		if errors.Is(err, io.EOF) {
			return Chunk{}, FormatError("missing IEND chunk")
		}
		return Chunk{}, err
	}
	length := binary.BigEndian.Uint32(cr.tmp[:4])
	if length > maxChunkLength {
		return Chunk{}, FormatError("bad chunk length")
	}
	typ := string(cr.tmp[4:8])

	cr.crc.Reset()
	cr.crc.Write(cr.tmp[4:8])

	// Grow with the data actually present rather than trusting length up front.
	var data bytes.Buffer
	n, err := io.CopyN(io.MultiWriter(&data, cr.crc), cr.r, int64(length))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Chunk{}, FormatError("truncated chunk")
		}
		return Chunk{}, &IOError{Op: "read", Err: err}
	}
	if n != int64(length) {
		return Chunk{}, FormatError("truncated chunk")
	}

	if err := cr.readFull(cr.tmp[:4]); err != nil {
		if errors.Is(err, io.EOF) {
			return Chunk{}, FormatError("truncated chunk")
		}
		return Chunk{}, err
	}
	stored := binary.BigEndian.Uint32(cr.tmp[:4])
	if computed := cr.crc.Sum32(); stored != computed {
		return Chunk{}, &CorruptChunkError{Type: typ, Stored: stored, Computed: computed}
	}

	if typ == chunkIEND {
		cr.finished = true
	}
	return Chunk{Type: typ, Data: data.Bytes(), CRC: stored}, nil
}

func (cr *ChunkReader) checkSignature() error {
	if err := cr.readFull(cr.tmp[:len(Signature)]); err != nil {
		if errors.Is(err, io.EOF) {
			return FormatError("not a PNG file")
		}
		return err
	}
	if string(cr.tmp[:len(Signature)]) != Signature {
		return FormatError("not a PNG file")
	}
	return nil
}

// readFull reads len(p) bytes. A clean or partial end of input is reported
// as io.EOF; any other failure comes back as an *IOError.
func (cr *ChunkReader) readFull(p []byte) error {
	_, err := io.ReadFull(cr.r, p)
	switch {
	case err == nil:
		return nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return io.EOF
	default:
		return &IOError{Op: "read", Err: err}
	}
}

// ChunkWriter emits PNG chunks with their length and CRC fields filled in.
type ChunkWriter struct {
	w      io.Writer
	crc    hash.Hash32
	header [8]byte
	footer [4]byte
}

func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{w: w, crc: crc32.NewIEEE()}
}

func (cw *ChunkWriter) WriteSignature() error {
	if _, err := io.WriteString(cw.w, Signature); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func (cw *ChunkWriter) WriteChunk(typ string, data []byte) error {
	if len(typ) != 4 {
		return FormatError("chunk type must be 4 bytes")
	}
	if len(data) > maxChunkLength {
		return FormatError("chunk too large")
	}
	binary.BigEndian.PutUint32(cw.header[:4], uint32(len(data)))
	copy(cw.header[4:8], typ)

	cw.crc.Reset()
	cw.crc.Write(cw.header[4:8])
	cw.crc.Write(data)
	binary.BigEndian.PutUint32(cw.footer[:4], cw.crc.Sum32())

	if _, err := cw.w.Write(cw.header[:8]); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if _, err := cw.w.Write(data); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if _, err := cw.w.Write(cw.footer[:4]); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}
