// Package processor drives documentation extraction over many source units:
// file discovery, a bounded worker pool, and per-unit error isolation. Each
// unit gets its own assembler; a failing unit never blocks the others.
package processor

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/docparser"
	"github.com/luadoc-labs/luadoc/internal/luasyntax"
)

// Processor runs independent extraction jobs with up to Jobs workers.
type Processor struct {
	opts   docparser.Options
	jobs   int
	logger *slog.Logger
}

// New returns a processor. A nil logger falls back to slog.Default.
func New(opts docparser.Options, jobs int, logger *slog.Logger) *Processor {
	if jobs < 1 {
		jobs = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{opts: opts, jobs: jobs, logger: logger}
}

// Result is the outcome for one source unit. Err is the unit-fatal error;
// Diagnostics hold the recoverable findings.
type Result struct {
	Unit        string
	Module      *docmodel.Module
	Diagnostics []docparser.Diagnostic
	Err         error
}

// Run processes the files concurrently and returns one result per file, in
// input order. Unit failures are recorded, logged and skipped over.
func (p *Processor) Run(ctx context.Context, files []string) []Result {
	start := time.Now()
	p.logger.Info("processing files", "count", len(files), "jobs", p.jobs)

	results := make([]Result, len(files))
	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = p.processFile(ctx, files[i])
				r := results[i]
				if r.Err != nil {
					p.logger.Error("unit failed", "unit", r.Unit, "error", r.Err)
				} else {
					p.logger.Info("unit processed", "unit", r.Unit)
				}
			}
		}()
	}
	for i := range files {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	p.logger.Info("batch finished",
		"processed", ok, "failed", len(files)-ok, "elapsed", time.Since(start))
	return results
}

func (p *Processor) processFile(ctx context.Context, path string) Result {
	src, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Result{Unit: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	mod, diags, err := p.ProcessSource(ctx, path, src)
	return Result{Unit: path, Module: mod, Diagnostics: diags, Err: err}
}

// ProcessSource extracts the documentation model of a single unit. A host
// parse failure or a duplicate-module error is returned as the unit's fatal
// error; everything recoverable lands in the diagnostics.
func (p *Processor) ProcessSource(ctx context.Context, unit string, src []byte) (*docmodel.Module, []docparser.Diagnostic, error) {
	root, err := luasyntax.Parse(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", unit, err)
	}
	return docparser.BuildModule(unit, root, p.opts)
}

// DiscoverFiles returns path itself for a regular file, or every file under
// it matching one of the extensions for a directory.
func DiscoverFiles(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), "."+strings.TrimPrefix(ext, ".")) {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return files, nil
}
