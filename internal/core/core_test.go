package core

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"background-remover/internal/io"
	"background-remover/internal/logging"
	"background-remover/internal/remover"
)

var errModel = errors.New("model failure")

// corruptMarker makes the fake remover fail for a given file
var corruptMarker = []byte("corrupt")

func fillImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pngBytes(t, fillImage(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})), 0644))
	return path
}

func writeRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// fakeRemover returns a fully transparent PNG of the input's size, fails on
// corruptMarker, and counts calls.
type fakeRemover struct {
	calls atomic.Int32
}

func (f *fakeRemover) Name() string { return "fake" }

func (f *fakeRemover) Remove(ctx context.Context, input []byte) ([]byte, error) {
	f.calls.Add(1)
	return remover.Func(func(ctx context.Context, in []byte) ([]byte, error) {
		if bytes.Equal(in, corruptMarker) {
			return nil, errModel
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		out := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		var buf bytes.Buffer
		if err := png.Encode(&buf, out); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}).Remove(ctx, input)
}

func newLoader() *io.ImageLoader {
	return io.NewImageLoader(logging.Discard())
}
