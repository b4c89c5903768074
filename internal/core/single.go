package core

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"background-remover/internal/io"
	"background-remover/internal/remover"
)

// SingleResult is the outcome of processing one selected file
type SingleResult struct {
	InputPath string
	Processed image.Image
	PNG       []byte
	Duration  time.Duration
}

// SingleProcessor drives the single-file flow on top of the shared session
type SingleProcessor struct {
	data    *ImageData
	loader  *io.ImageLoader
	remover remover.Remover
	logger  *logrus.Logger
}

func NewSingleProcessor(data *ImageData, loader *io.ImageLoader, rm remover.Remover, logger *logrus.Logger) *SingleProcessor {
	return &SingleProcessor{
		data:    data,
		loader:  loader,
		remover: rm,
		logger:  logger,
	}
}

// Open selects path as the current input and returns its decoded original.
// On failure the previous session is left as it was.
func (sp *SingleProcessor) Open(path string) (image.Image, error) {
	img, raw, err := sp.loader.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image file: %w", err)
	}

	if err := sp.data.SetOriginal(img, path, int64(len(raw))); err != nil {
		return nil, err
	}
	return img, nil
}

// Remove runs the background remover on path, which must be the currently
// selected input. It blocks for as long as the model takes.
func (sp *SingleProcessor) Remove(ctx context.Context, path string) (*SingleResult, error) {
	start := time.Now()
	log := sp.logger.WithFields(logrus.Fields{
		"filepath": path,
		"remover":  sp.remover.Name(),
	})
	log.Info("Removing background")

	input, err := sp.loader.ReadBytes(path)
	if err != nil {
		return nil, err
	}

	output, err := sp.remover.Remove(ctx, input)
	if err != nil {
		log.WithError(err).Error("Background removal failed")
		return nil, fmt.Errorf("background removal failed: %w", err)
	}

	processed, err := sp.loader.Decode(output)
	if err != nil {
		log.WithError(err).Error("Remover returned an unreadable image")
		return nil, err
	}

	if err := sp.data.SetProcessed(path, processed, output); err != nil {
		return nil, err
	}

	result := &SingleResult{
		InputPath: path,
		Processed: processed,
		PNG:       output,
		Duration:  time.Since(start),
	}
	log.WithField("duration", result.Duration).Info("Background removed")
	return result, nil
}

// Process opens and processes path in one call
func (sp *SingleProcessor) Process(ctx context.Context, path string) (*SingleResult, error) {
	if _, err := sp.Open(path); err != nil {
		return nil, err
	}
	return sp.Remove(ctx, path)
}

// Save writes the processed result to path as PNG
func (sp *SingleProcessor) Save(path string) error {
	data := sp.data.ProcessedPNG()
	if data == nil {
		return ErrNoProcessedImage
	}

	if err := sp.loader.WritePNG(path, data); err != nil {
		return fmt.Errorf("failed to save the image: %w", err)
	}

	sp.logger.WithField("filepath", path).Info("Processed image saved")
	return nil
}

// DefaultSaveName suggests "<stem>_no_bg.png" for the current input
func (sp *SingleProcessor) DefaultSaveName() string {
	path := sp.data.GetFilepath()
	if path == "" {
		return "image" + io.OutputSuffix + ".png"
	}
	return io.OutputName(path)
}
