package processor

import (
	"github.com/rs/zerolog"

	"pngkit/pkg/imgutil"
	"pngkit/pkg/png"
)

type Mode int

const (
	ModeScan Mode = iota
	ModeNormalize
)

type Options struct {
	Mode      Mode
	InPlace   bool
	OutputDir string
	// Convert re-encodes JPEG, GIF, BMP, TIFF and WebP inputs as PNG.
	Convert bool
	// Workers defaults to runtime.NumCPU() when zero.
	Workers int
	// Encoder writes normalized output. Nil means png.Encoder defaults.
	Encoder *png.Encoder
	Logger  *zerolog.Logger
}

type Job struct {
	Path    string
	RelPath string
	Display string
}

type Result struct {
	Path       string
	RelPath    string
	Display    string
	Kind       imgutil.Kind
	Supported  bool
	Err        error
	Converted  bool
	OutputPath string
	BytesIn    int64
	BytesOut   int64
	Report     *ScanReport
}

type Summary struct {
	Total       int
	Processed   int
	Errors      int
	Converted   int
	Corrupt     int
	Unsupported int
	BytesIn     int64
	BytesOut    int64
}

// Verdict says whether a file decodes, and if not, whose fault that is.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictUnsupported
	VerdictCorrupt
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictUnsupported:
		return "unsupported"
	case VerdictCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

type ScanReport struct {
	Path     string
	Header   *png.Header
	Chunks   []ChunkInfo
	Details  []ScanDetail
	Exif     *ExifAnalysis
	Insights []ScanInsight
	Verdict  Verdict
	Problem  string
}

type ChunkInfo struct {
	Type     string
	Length   int
	Critical bool
}

type ScanDetail struct {
	Category string
	Values   []string
}

type ScanInsight struct {
	Kind    string
	Message string
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	ErrorDelta     int
	ConvertedDelta int
	BytesDelta     int64
}
