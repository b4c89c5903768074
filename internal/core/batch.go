package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"background-remover/internal/io"
	"background-remover/internal/remover"
)

var (
	ErrFolderNotSelected = errors.New("please select both an input and an output folder")
	ErrSameFolder        = errors.New("input and output folders cannot be the same")
)

type BatchRequest struct {
	InputDir  string
	OutputDir string
}

// BatchObserver receives progress from a running batch. All callbacks are
// optional and are invoked on the batch goroutine.
type BatchObserver struct {
	OnLog      func(message string)
	OnProgress func(done, total int, fraction float64)
	OnFileDone func(name string, err error)
}

func (o *BatchObserver) log(message string) {
	if o != nil && o.OnLog != nil {
		o.OnLog(message)
	}
}

func (o *BatchObserver) progress(done, total int) {
	if o != nil && o.OnProgress != nil {
		o.OnProgress(done, total, float64(done)/float64(total))
	}
}

func (o *BatchObserver) fileDone(name string, err error) {
	if o != nil && o.OnFileDone != nil {
		o.OnFileDone(name, err)
	}
}

// BatchReport summarises a finished (or cancelled) run
type BatchReport struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Failures  map[string]error
	Duration  time.Duration
	Cancelled bool
}

type BatchProcessor struct {
	loader  *io.ImageLoader
	remover remover.Remover
	logger  *logrus.Logger
	memory  *MemoryStats
}

func NewBatchProcessor(loader *io.ImageLoader, rm remover.Remover, logger *logrus.Logger) *BatchProcessor {
	return &BatchProcessor{
		loader:  loader,
		remover: rm,
		logger:  logger,
		memory:  NewMemoryStats(logger),
	}
}

// Validate rejects a request before any file is touched
func (bp *BatchProcessor) Validate(req BatchRequest) error {
	if req.InputDir == "" || req.OutputDir == "" {
		return ErrFolderNotSelected
	}

	in, err := filepath.Abs(req.InputDir)
	if err != nil {
		return fmt.Errorf("invalid input folder: %w", err)
	}
	out, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return fmt.Errorf("invalid output folder: %w", err)
	}
	if filepath.Clean(in) == filepath.Clean(out) {
		return ErrSameFolder
	}

	info, err := os.Stat(in)
	if err != nil {
		return fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input folder is not a directory: %s", req.InputDir)
	}
	return nil
}

// Run processes every supported image in req.InputDir into req.OutputDir.
// A failing file is logged and skipped; the loop only stops early when ctx
// is cancelled. The returned error covers problems that prevent the batch
// from starting at all.
func (bp *BatchProcessor) Run(ctx context.Context, req BatchRequest, observer *BatchObserver) (*BatchReport, error) {
	if err := bp.Validate(req); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &BatchReport{
		RunID:    ksuid.New().String(),
		Failures: make(map[string]error),
	}
	log := bp.logger.WithFields(logrus.Fields{
		"run_id":  report.RunID,
		"input":   req.InputDir,
		"output":  req.OutputDir,
		"remover": bp.remover.Name(),
	})

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	files, err := bp.loader.ListImages(req.InputDir)
	if err != nil {
		return nil, err
	}

	observer.log("--- Starting Batch Processing ---")
	log.Info("Batch processing started")

	report.Total = len(files)
	if report.Total == 0 {
		observer.log("No valid image files found in the input folder.")
		observer.log("--- Batch Processing Finished ---")
		report.Duration = time.Since(start)
		log.Info("No images found")
		return report, nil
	}

	observer.log(fmt.Sprintf("Found %d image(s) to process.", report.Total))

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			observer.log("--- Batch Processing Cancelled ---")
			log.WithField("processed", i).Warn("Batch cancelled")
			break
		}

		outName := io.OutputName(name)
		observer.log(fmt.Sprintf("Processing (%d/%d): %s", i+1, report.Total, name))

		err := bp.processFile(ctx, filepath.Join(req.InputDir, name), filepath.Join(req.OutputDir, outName))
		if err != nil {
			report.Failed++
			report.Failures[name] = err
			observer.log(fmt.Sprintf("  -> FAILED: %v", err))
			log.WithError(err).WithField("file", name).Warn("File failed")
		} else {
			report.Succeeded++
			observer.log(fmt.Sprintf("  -> Saved to: %s", outName))
		}
		observer.fileDone(name, err)
		observer.progress(i+1, report.Total)
	}

	if !report.Cancelled {
		observer.log("--- Batch Processing Finished ---")
	}
	report.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"duration":  report.Duration,
	}).Info("Batch processing complete")
	bp.memory.LogSummary()

	return report, nil
}

func (bp *BatchProcessor) processFile(ctx context.Context, inPath, outPath string) error {
	input, err := bp.loader.ReadBytes(inPath)
	if err != nil {
		return err
	}

	output, err := bp.remover.Remove(ctx, input)
	if err != nil {
		return err
	}

	return bp.loader.WritePNG(outPath, output)
}
