package core

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"background-remover/internal/io"
	"background-remover/internal/logging"
)

func newSingle(rm *fakeRemover) (*SingleProcessor, *ImageData) {
	data := NewImageData()
	return NewSingleProcessor(data, newLoader(), rm, logging.Discard()), data
}

func TestSingle_SuccessEnablesSave(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "portrait.jpg", 6, 3)

	sp, data := newSingle(&fakeRemover{})
	result, err := sp.Process(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, data.HasProcessed())
	assert.Equal(t, path, result.InputPath)
	assert.Equal(t, 6, result.Processed.Bounds().Dx())
	assert.True(t, io.IsPNG(result.PNG))
	assert.Equal(t, "portrait_no_bg.png", sp.DefaultSaveName())

	out := filepath.Join(dir, sp.DefaultSaveName())
	require.NoError(t, sp.Save(out))
	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.PNG, saved)
}

func TestSingle_FailureLeavesNothingToSave(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "good.png", 2, 2)
	path := writeRaw(t, dir, "bad.png", pngBytes(t, fillImage(2, 2, color.Black)))

	rm := &fakeRemover{}
	sp, data := newSingle(rm)

	// a previous success must not survive a new selection that fails
	_, err := sp.Process(context.Background(), good)
	require.NoError(t, err)
	require.True(t, data.HasProcessed())

	_, err = sp.Open(path)
	require.NoError(t, err)
	assert.False(t, data.HasProcessed())

	require.NoError(t, os.WriteFile(path, corruptMarker, 0644))
	_, err = sp.Remove(context.Background(), path)
	assert.ErrorIs(t, err, errModel)

	assert.False(t, data.HasProcessed())
	assert.ErrorIs(t, sp.Save(filepath.Join(dir, "out.png")), ErrNoProcessedImage)
	assert.NoFileExists(t, filepath.Join(dir, "out.png"))
}

func TestSingle_OpenFailureKeepsSession(t *testing.T) {
	dir := t.TempDir()
	good := writeImage(t, dir, "good.png", 2, 2)

	rm := &fakeRemover{}
	sp, data := newSingle(rm)
	_, err := sp.Process(context.Background(), good)
	require.NoError(t, err)

	_, err = sp.Process(context.Background(), filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, io.ErrUnsupportedFormat)

	_, err = sp.Process(context.Background(), writeRaw(t, dir, "broken.png", []byte("nope")))
	assert.Error(t, err)

	assert.Equal(t, int32(1), rm.calls.Load(), "remover is never called for unreadable files")
	assert.Equal(t, good, data.GetFilepath())
	assert.True(t, data.HasProcessed())
}

func TestSingle_StaleResultRejected(t *testing.T) {
	dir := t.TempDir()
	first := writeImage(t, dir, "first.png", 2, 2)
	second := writeImage(t, dir, "second.png", 2, 2)

	sp, data := newSingle(&fakeRemover{})
	_, err := sp.Open(first)
	require.NoError(t, err)
	_, err = sp.Open(second)
	require.NoError(t, err)

	_, err = sp.Remove(context.Background(), first)
	assert.Error(t, err)
	assert.False(t, data.HasProcessed())
}

func TestSingle_DefaultSaveNameWithoutSelection(t *testing.T) {
	sp, _ := newSingle(&fakeRemover{})
	assert.Equal(t, "image_no_bg.png", sp.DefaultSaveName())
}
