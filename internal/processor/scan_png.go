package processor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"pngkit/internal/logging"
	"pngkit/pkg/png"
)

const (
	maxTextValue = 80
	// maxTextInflate caps how much of a compressed text chunk is inflated.
	maxTextInflate = 4 << 10
)

// chunkWalk is what one pass over a PNG's chunks finds, before any pixel
// data is decoded.
type chunkWalk struct {
	header  *png.Header
	chunks  []ChunkInfo
	text    []textEntry
	modTime string
	exif    []byte
	// err is the first format problem hit while walking, if any.
	err error
}

type textEntry struct {
	Key   string
	Value string
}

func scanPNG(rs io.ReadSeeker, logger *zerolog.Logger) (*ScanReport, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	walk, err := walkChunks(bufio.NewReader(rs))
	if err != nil {
		return nil, err
	}

	verdict, problem, err := classify(walk.err)
	if err != nil {
		return nil, err
	}
	if verdict == VerdictOK {
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		d := png.Decoder{Logger: logger}
		_, decodeErr := d.Decode(bufio.NewReader(rs))
		if verdict, problem, err = classify(decodeErr); err != nil {
			return nil, err
		}
	}

	report := &ScanReport{
		Header:  walk.header,
		Chunks:  walk.chunks,
		Verdict: verdict,
		Problem: problem,
		Details: walk.details(),
	}
	if len(walk.exif) > 0 {
		analysis, err := analyzeExif(walk.exif)
		if err != nil {
			report.Details = append(report.Details, ScanDetail{Category: "EXIF", Values: []string{"error=" + err.Error()}})
		} else if len(analysis.Tags) > 0 {
			report.Details = append(report.Details, ScanDetail{Category: "EXIF", Values: analysis.Tags})
			report.Exif = &analysis
		}
	}
	report.Insights = buildInsights(report)
	return report, nil
}

// classify sorts a decode error into a verdict. Errors that say nothing
// about the file itself, such as a failing disk, are returned as errors.
func classify(err error) (Verdict, string, error) {
	switch {
	case err == nil:
		return VerdictOK, "", nil
	case png.IsUnsupported(err):
		return VerdictUnsupported, err.Error(), nil
	case png.IsCorrupt(err):
		return VerdictCorrupt, err.Error(), nil
	default:
		return VerdictOK, "", err
	}
}

func walkChunks(r io.Reader) (chunkWalk, error) {
	var walk chunkWalk
	cr := png.NewChunkReader(r)
	for {
		c, err := cr.Next()
		if err == io.EOF {
			return walk, nil
		}
		if err != nil {
			var ioErr *png.IOError
			if errors.As(err, &ioErr) {
				return walk, err
			}
			walk.err = err
			return walk, nil
		}

		walk.chunks = append(walk.chunks, ChunkInfo{Type: c.Type, Length: c.Length(), Critical: c.Critical()})
		switch c.Type {
		case "IHDR":
			if walk.header == nil {
				if h, err := png.ParseHeader(c.Data); err == nil {
					walk.header = &h
				}
			}
		case "tEXt", "zTXt", "iTXt":
			entry, err := parseTextChunk(c)
			if err != nil {
				logging.Warn().Err(err).Str("chunk", c.Type).Msg("skipping unreadable text chunk")
				entry = textEntry{Key: c.Type, Value: "unreadable: " + err.Error()}
			}
			walk.text = append(walk.text, entry)
		case "tIME":
			if len(c.Data) == 7 {
				d := c.Data
				walk.modTime = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
					int(d[0])<<8|int(d[1]), d[2], d[3], d[4], d[5], d[6])
			}
		case "eXIf":
			walk.exif = c.Data
		}
	}
}

// parseTextChunk decodes the keyword and text of a tEXt, zTXt or iTXt chunk.
// tEXt and zTXt are Latin-1; iTXt is UTF-8.
func parseTextChunk(c png.Chunk) (textEntry, error) {
	key, rest, ok := bytes.Cut(c.Data, []byte{0})
	if !ok || len(key) == 0 {
		return textEntry{}, fmt.Errorf("%s chunk without keyword", c.Type)
	}
	entry := textEntry{Key: latin1(key)}

	switch c.Type {
	case "tEXt":
		entry.Value = latin1(rest)
	case "zTXt":
		if len(rest) < 1 || rest[0] != 0 {
			return entry, errors.New("unknown zTXt compression method")
		}
		text, _, err := png.InflateLimit(rest[1:], maxTextInflate)
		if err != nil {
			return entry, err
		}
		entry.Value = latin1(text)
	case "iTXt":
		if len(rest) < 2 {
			return entry, errors.New("short iTXt chunk")
		}
		compressed, method := rest[0] == 1, rest[1]
		// Skip the language tag and translated keyword.
		_, rest, ok = bytes.Cut(rest[2:], []byte{0})
		if ok {
			_, rest, ok = bytes.Cut(rest, []byte{0})
		}
		if !ok {
			return entry, errors.New("short iTXt chunk")
		}
		if compressed {
			if method != 0 {
				return entry, errors.New("unknown iTXt compression method")
			}
			text, truncated, err := png.InflateLimit(rest, maxTextInflate)
			if err != nil {
				return entry, err
			}
			if truncated {
				text = trimPartialRune(text)
			}
			rest = text
		}
		if !utf8.Valid(rest) {
			return entry, errors.New("iTXt text is not UTF-8")
		}
		entry.Value = string(rest)
	}
	return entry, nil
}

// trimPartialRune drops a UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0 && !utf8.Valid(b); i++ {
		b = b[:len(b)-1]
	}
	return b
}

func latin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func (w chunkWalk) details() []ScanDetail {
	var details []ScanDetail
	if h := w.header; h != nil {
		details = append(details, ScanDetail{Category: "Header", Values: []string{
			fmt.Sprintf("Size=%dx%d", h.Width, h.Height),
			fmt.Sprintf("ColorType=%s", h.ColorType),
			fmt.Sprintf("BitDepth=%d", h.BitDepth),
		}})
	}
	if len(w.text) > 0 {
		values := make([]string, 0, len(w.text))
		for _, t := range w.text {
			values = append(values, t.Key+"="+truncate(t.Value, maxTextValue))
		}
		details = append(details, ScanDetail{Category: "Text", Values: values})
	}
	if w.modTime != "" {
		details = append(details, ScanDetail{Category: "Timestamp", Values: []string{"ModTime=" + w.modTime}})
	}
	return details
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
