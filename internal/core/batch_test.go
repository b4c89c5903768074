package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"background-remover/internal/logging"
)

type recorder struct {
	logs      []string
	fractions []float64
	done      []string
}

func (r *recorder) observer() *BatchObserver {
	return &BatchObserver{
		OnLog: func(message string) { r.logs = append(r.logs, message) },
		OnProgress: func(done, total int, fraction float64) {
			r.fractions = append(r.fractions, fraction)
		},
		OnFileDone: func(name string, err error) { r.done = append(r.done, name) },
	}
}

func newBatch(rm *fakeRemover) *BatchProcessor {
	return NewBatchProcessor(newLoader(), rm, logging.Discard())
}

func TestBatch_ProcessesOnlySupportedFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, in, "a.png", 4, 4)
	writeImage(t, in, "b.PNG", 3, 2)
	writeImage(t, in, "c.jpg", 5, 5)
	writeRaw(t, in, "readme.txt", []byte("hello"))
	writeRaw(t, in, "anim.gif", []byte("GIF89a"))
	require.NoError(t, os.Mkdir(filepath.Join(in, "sub"), 0755))
	writeImage(t, filepath.Join(in, "sub"), "nested.png", 2, 2)

	rm := &fakeRemover{}
	report, err := newBatch(rm).Run(context.Background(), BatchRequest{InputDir: in, OutputDir: out}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(3), rm.calls.Load())
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.NotEmpty(t, report.RunID)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a_no_bg.png", "b_no_bg.png", "c_no_bg.png"}, names)
}

func TestBatch_SameFolderRejectedBeforeProcessing(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png", 2, 2)

	tests := []struct {
		name string
		out  string
	}{
		{name: "identical", out: dir},
		{name: "trailing dot", out: filepath.Join(dir, ".")},
		{name: "via parent", out: filepath.Join(dir, "x", "..")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := &fakeRemover{}
			rec := &recorder{}

			report, err := newBatch(rm).Run(context.Background(), BatchRequest{InputDir: dir, OutputDir: tt.out}, rec.observer())
			assert.ErrorIs(t, err, ErrSameFolder)
			assert.Nil(t, report)
			assert.Zero(t, rm.calls.Load())
			assert.Empty(t, rec.logs)
		})
	}

	_, err := os.Stat(filepath.Join(dir, "a_no_bg.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestBatch_Validate(t *testing.T) {
	dir := t.TempDir()
	file := writeRaw(t, dir, "file.png", []byte("x"))
	bp := newBatch(&fakeRemover{})

	assert.ErrorIs(t, bp.Validate(BatchRequest{OutputDir: dir}), ErrFolderNotSelected)
	assert.ErrorIs(t, bp.Validate(BatchRequest{InputDir: dir}), ErrFolderNotSelected)
	assert.Error(t, bp.Validate(BatchRequest{InputDir: filepath.Join(dir, "missing"), OutputDir: t.TempDir()}))
	assert.Error(t, bp.Validate(BatchRequest{InputDir: file, OutputDir: t.TempDir()}))
	assert.NoError(t, bp.Validate(BatchRequest{InputDir: dir, OutputDir: filepath.Join(dir, "out")}))
}

func TestBatch_ProgressIsExactAndMonotone(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png", "5.png", "6.png", "7.png"} {
		writeImage(t, in, name, 2, 2)
	}

	rec := &recorder{}
	_, err := newBatch(&fakeRemover{}).Run(context.Background(), BatchRequest{InputDir: in, OutputDir: out}, rec.observer())
	require.NoError(t, err)

	require.Len(t, rec.fractions, 7)
	for k, f := range rec.fractions {
		assert.Equal(t, float64(k+1)/7.0, f)
		if k > 0 {
			assert.GreaterOrEqual(t, f, rec.fractions[k-1])
		}
	}
	assert.Equal(t, 1.0, rec.fractions[len(rec.fractions)-1])
}

func TestBatch_FailureDoesNotStopLaterFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeImage(t, in, "a.png", 2, 2)
	writeRaw(t, in, "b.png", corruptMarker)
	writeImage(t, in, "c.png", 2, 2)
	writeRaw(t, in, "d.jpg", []byte("not really a jpeg"))
	writeImage(t, in, "e.png", 2, 2)

	rm := &fakeRemover{}
	rec := &recorder{}
	report, err := newBatch(rm).Run(context.Background(), BatchRequest{InputDir: in, OutputDir: out}, rec.observer())
	require.NoError(t, err)

	assert.Equal(t, int32(5), rm.calls.Load(), "every file is attempted")
	assert.Equal(t, []string{"a.png", "b.png", "c.png", "d.jpg", "e.png"}, rec.done)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.ErrorIs(t, report.Failures["b.png"], errModel)
	assert.Contains(t, report.Failures, "d.jpg")

	for _, name := range []string{"a_no_bg.png", "c_no_bg.png", "e_no_bg.png"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.NoFileExists(t, filepath.Join(out, "b_no_bg.png"))

	assert.Contains(t, rec.logs, "  -> FAILED: model failure")
	assert.Contains(t, rec.logs, "  -> Saved to: e_no_bg.png")
	assert.Equal(t, 1.0, rec.fractions[len(rec.fractions)-1])
}

func TestBatch_EmptyFolder(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeRaw(t, in, "notes.txt", []byte("x"))

	rec := &recorder{}
	rm := &fakeRemover{}
	report, err := newBatch(rm).Run(context.Background(), BatchRequest{InputDir: in, OutputDir: out}, rec.observer())
	require.NoError(t, err)

	assert.Zero(t, report.Total)
	assert.Zero(t, rm.calls.Load())
	assert.Empty(t, rec.fractions)
	assert.Contains(t, rec.logs, "No valid image files found in the input folder.")
}

func TestBatch_CreatesOutputFolder(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "new", "results")
	writeImage(t, in, "a.png", 2, 2)

	report, err := newBatch(&fakeRemover{}).Run(context.Background(), BatchRequest{InputDir: in, OutputDir: out}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.FileExists(t, filepath.Join(out, "a_no_bg.png"))
}

func TestBatch_CancelledBetweenFiles(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeImage(t, in, name, 2, 2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rm := &fakeRemover{}
	obs := &BatchObserver{
		OnFileDone: func(name string, err error) {
			if name == "a.png" {
				cancel()
			}
		},
	}

	report, err := newBatch(rm).Run(ctx, BatchRequest{InputDir: in, OutputDir: out}, obs)
	require.NoError(t, err)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, int32(1), rm.calls.Load())
}
