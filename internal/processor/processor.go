package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"pngkit/internal/logging"
	"pngkit/internal/oops"
	"pngkit/pkg/imgutil"
)

// Run walks root (a file or a directory) and scans or normalizes every image
// it finds with a pool of workers. Per-file failures are counted and logged;
// only failures of the walk itself are returned.
func Run(ctx context.Context, root string, opts Options, updates chan<- ProgressUpdate) (Summary, []ScanReport, error) {
	summary := Summary{}
	var reports []ScanReport

	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	info, err := os.Stat(root)
	if err != nil {
		return summary, nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return summary, nil, err
	}

	var outputAbs string
	var outputInsideRoot bool
	if opts.Mode == ModeNormalize && !opts.InPlace && opts.OutputDir != "" {
		if absOut, outErr := filepath.Abs(opts.OutputDir); outErr == nil {
			outputAbs = absOut
			absRootClean := filepath.Clean(absRoot)
			outputClean := filepath.Clean(outputAbs)
			if outputClean != absRootClean && isWithin(outputClean, absRootClean) {
				outputInsideRoot = true
			}
		}
	}

	jobs := make(chan Job)
	results := make(chan Result)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, opts, updates)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			if res.Supported {
				summary.Total++
				summary.Processed++
				send(updates, ProgressUpdate{ProcessedDelta: 1})
			}
			if res.Err != nil {
				summary.Errors++
				send(updates, ProgressUpdate{ErrorDelta: 1})
			}
			if res.Converted {
				summary.Converted++
				send(updates, ProgressUpdate{ConvertedDelta: 1})
			}
			if res.BytesOut != 0 {
				summary.BytesIn += res.BytesIn
				summary.BytesOut += res.BytesOut
				send(updates, ProgressUpdate{BytesDelta: res.BytesOut})
			}
			if res.Report != nil {
				switch res.Report.Verdict {
				case VerdictCorrupt:
					summary.Corrupt++
				case VerdictUnsupported:
					summary.Unsupported++
				}
				res.Report.Path = res.Display
				reports = append(reports, *res.Report)
			}
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		sendJob := func(job Job) error {
			if ctx == nil {
				jobs <- job
				return nil
			}
			select {
			case jobs <- job:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !info.IsDir() {
			job := Job{
				Path:    absRoot,
				RelPath: filepath.Base(absRoot),
				Display: filepath.Base(absRoot),
			}
			producerErr <- sendJob(job)
			return
		}

		fsys := os.DirFS(absRoot)
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if outputInsideRoot {
					fullDir := filepath.Join(absRoot, path)
					if isWithin(fullDir, outputAbs) {
						return fs.SkipDir
					}
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			return sendJob(Job{
				Path:    filepath.Join(absRoot, path),
				RelPath: path,
				Display: path,
			})
		})
		producerErr <- err
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })

	if err := <-producerErr; err != nil {
		return summary, reports, err
	}

	if ctx != nil {
		if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
			return summary, reports, err
		}
	}

	return summary, reports, nil
}

func send(updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates != nil {
		updates <- u
	}
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Result, opts Options, updates chan<- ProgressUpdate) {
	defer logging.LogPanics(opts.Logger)

	for job := range jobs {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return
			}
		}

		res, ok := processJob(job, opts, updates)
		if !ok {
			continue
		}
		if res.Err != nil {
			res.Err = oops.New(res.Err, "%s", job.Display)
			opts.Logger.Error().Stack().Err(res.Err).Str("file", job.Display).Msg("failed to process file")
		}
		results <- res
	}
}

// processJob handles one file. ok is false for files the current mode
// ignores, which are not reported at all.
func processJob(job Job, opts Options, updates chan<- ProgressUpdate) (res Result, ok bool) {
	res = Result{Path: job.Path, RelPath: job.RelPath, Display: job.Display}

	file, err := os.Open(job.Path)
	if err != nil {
		res.Err = err
		return res, true
	}
	defer file.Close()

	kind, err := imgutil.SniffReader(file)
	if err != nil {
		res.Err = err
		return res, true
	}
	res.Kind = kind

	if !wanted(kind, opts) {
		return res, false
	}

	res.Supported = true
	send(updates, ProgressUpdate{TotalDelta: 1})

	switch opts.Mode {
	case ModeScan:
		report, err := scanPNG(file, opts.Logger)
		if err != nil {
			res.Err = err
			return res, true
		}
		res.Report = report
		opts.Logger.Debug().Str("file", job.Display).Stringer("verdict", report.Verdict).Msg("scanned")
	case ModeNormalize:
		if info, err := file.Stat(); err == nil {
			res.BytesIn = info.Size()
		}
		out, size, err := normalizeFile(file, job, kind, opts)
		if err != nil {
			res.Err = err
			return res, true
		}
		res.OutputPath = out
		res.BytesOut = size
		res.Converted = kind != imgutil.KindPNG
		opts.Logger.Debug().Str("file", job.Display).Str("output", out).Msg("normalized")
	default:
		res.Err = fmt.Errorf("unknown mode %d", opts.Mode)
	}
	return res, true
}

func wanted(kind imgutil.Kind, opts Options) bool {
	if kind == imgutil.KindPNG {
		return true
	}
	return opts.Mode == ModeNormalize && opts.Convert && kind.Convertible()
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
