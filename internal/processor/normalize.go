package processor

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pngkit/pkg/imgutil"
	"pngkit/pkg/png"
)

// normalizeFile decodes file and publishes it as 8-bit RGBA PNG at the
// destination chosen by opts. Non-PNG inputs are converted when opts.Convert
// is set. It returns the destination path and its size.
func normalizeFile(file *os.File, job Job, kind imgutil.Kind, opts Options) (string, int64, error) {
	srcInfo, err := file.Stat()
	if err != nil {
		return "", 0, err
	}

	destPath, destDir, err := resolveDestination(job, kind, opts)
	if err != nil {
		return "", 0, err
	}

	img, err := decodeForNormalize(file, kind, opts)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", 0, err
	}

	enc := opts.Encoder
	if enc == nil {
		enc = &png.Encoder{Logger: opts.Logger}
	}
	if err := enc.WriteFile(destPath, img, srcInfo.Mode().Perm()); err != nil {
		return "", 0, err
	}

	outInfo, err := os.Stat(destPath)
	if err != nil {
		return "", 0, err
	}
	return destPath, outInfo.Size(), nil
}

func decodeForNormalize(file *os.File, kind imgutil.Kind, opts Options) (*png.Image, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}
	br := bufio.NewReader(file)

	if kind == imgutil.KindPNG {
		d := png.Decoder{Logger: opts.Logger}
		return d.Decode(br)
	}
	if !opts.Convert || !kind.Convertible() {
		return nil, fmt.Errorf("%s input needs --convert", kind)
	}

	src, format, err := image.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if opts.Logger != nil {
		opts.Logger.Debug().Str("format", format).Stringer("bounds", src.Bounds()).Msg("converting image")
	}
	return png.FromImage(src)
}

// resolveDestination picks where a normalized file goes. Converted files get
// a .png extension; converting in place writes a sibling file and leaves the
// original alone.
func resolveDestination(job Job, kind imgutil.Kind, opts Options) (string, string, error) {
	rel := job.RelPath
	src := job.Path
	if kind != imgutil.KindPNG {
		rel = withPNGExt(rel)
		src = withPNGExt(src)
	}

	if opts.InPlace {
		if kind != imgutil.KindPNG {
			if _, err := os.Stat(src); err == nil {
				return "", "", fmt.Errorf("%s already exists; not overwriting it with a conversion", src)
			}
		}
		return src, filepath.Dir(src), nil
	}
	if opts.OutputDir == "" {
		return "", "", fmt.Errorf("output directory required when not using --inplace")
	}

	destPath := filepath.Join(opts.OutputDir, rel)
	if filepath.Clean(destPath) == filepath.Clean(job.Path) {
		return "", "", fmt.Errorf("output path resolves to input path; use --inplace or a different --output")
	}

	return destPath, filepath.Dir(destPath), nil
}

func withPNGExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
}
