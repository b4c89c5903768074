// Package u2net runs a U²-Net style salient object segmentation model
// through the OpenCV DNN module and turns its saliency map into an alpha
// channel.
package u2net

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"background-remover/internal/remover"
)

// ImageNet statistics the published u2net weights were trained with
const (
	meanR = 0.485 * 255
	meanG = 0.456 * 255
	meanB = 0.406 * 255
	std   = 0.226 * 255
)

type Options struct {
	ModelPath string
	InputSize int
	// Threshold in [0,1). Zero keeps the soft saliency map as alpha,
	// anything else produces a binary mask.
	Threshold float64
	// AutoThreshold binarizes at the Otsu level of each mask and takes
	// precedence over Threshold.
	AutoThreshold bool
	// CleanupKernel is the morphology kernel size used to clean the mask
	// at model resolution. Values <= 1 disable cleanup.
	CleanupKernel int
}

type Model struct {
	mu     sync.Mutex
	net    gocv.Net
	opts   Options
	logger *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) (*Model, error) {
	if opts.InputSize <= 0 {
		return nil, fmt.Errorf("invalid input size: %d", opts.InputSize)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model not found: %w", err)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load onnx model: %s", opts.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set target: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"model":      opts.ModelPath,
		"input_size": opts.InputSize,
		"threshold":  opts.Threshold,
		"auto":       opts.AutoThreshold,
		"cleanup":    opts.CleanupKernel,
	}).Info("Segmentation model loaded")

	return &Model{
		net:    net,
		opts:   opts,
		logger: logger,
	}, nil
}

func (m *Model) Name() string {
	return "u2net"
}

// Remove segments the foreground of the encoded image and returns it as a
// PNG whose alpha channel is the predicted mask.
func (m *Model) Remove(ctx context.Context, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, remover.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	src, err := gocv.IMDecode(input, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("failed to decode image")
	}

	saliency, err := m.predict(src)
	if err != nil {
		return nil, err
	}

	rgba, err := src.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}

	saliency, err = cleanMask(saliency, m.opts.CleanupKernel)
	if err != nil {
		return nil, err
	}

	mask := scaleMask(saliency, src.Cols(), src.Rows())
	switch {
	case m.opts.AutoThreshold:
		binarizeAt(mask, otsuLevel(mask))
	case m.opts.Threshold > 0:
		binarize(mask, m.opts.Threshold)
	}
	out := applyAlpha(rgba, mask)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"width":    src.Cols(),
		"height":   src.Rows(),
		"duration": time.Since(start),
	}).Debug("Background removed")

	return buf.Bytes(), nil
}

// predict runs the network and returns the first output plane as an 8-bit
// map at model resolution.
func (m *Model) predict(src gocv.Mat) (*image.Gray, error) {
	size := image.Pt(m.opts.InputSize, m.opts.InputSize)
	blob := gocv.BlobFromImage(src, 1.0/std, size, gocv.NewScalar(meanR, meanG, meanB, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	m.net.SetInput(blob, "")
	prob := m.net.Forward("")
	m.mu.Unlock()
	defer prob.Close()

	if prob.Empty() {
		return nil, fmt.Errorf("model produced no output")
	}

	plane := gocv.GetBlobChannel(prob, 0, 0)
	defer plane.Close()

	values, err := plane.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	return normalize(values, plane.Cols(), plane.Rows())
}

func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}
