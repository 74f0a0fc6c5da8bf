package dispatch

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avallone/convertd/internal/convert"
	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

func newTestDispatcher() *Dispatcher {
	log := logger.NewTestLogger()
	router := convert.NewRouter(log, convert.Tools{})
	return NewDispatcher(log, router, 4, time.Minute)
}

func makeImageJob(t *testing.T, dir string, i int) models.ConversionJob {
	t.Helper()
	input := filepath.Join(dir, fmt.Sprintf("in_%d.png", i))
	img := imaging.New(16, 16, color.NRGBA{R: 10, G: 120, B: 10, A: 255})
	require.NoError(t, imaging.Save(img, input))
	name := fmt.Sprintf("out_%d.jpg", i)
	return models.ConversionJob{
		InputPath:      input,
		OutputPath:     filepath.Join(dir, name),
		OutputFilename: name,
		TargetFormat:   "jpg",
	}
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := newTestDispatcher()
	results := d.Dispatch(context.Background(), nil)
	assert.Empty(t, results)
}

func TestDispatchPreservesOrder(t *testing.T) {
	d := newTestDispatcher()
	dir := t.TempDir()

	jobs := make([]models.ConversionJob, 8)
	for i := range jobs {
		jobs[i] = makeImageJob(t, dir, i)
	}

	results := d.Dispatch(context.Background(), jobs)
	require.Len(t, results, len(jobs))
	for i, result := range results {
		assert.Equal(t, jobs[i].OutputFilename, result.Filename)
		assert.True(t, result.Success)
		assert.Equal(t, models.CategoryImage, result.Category)
		assert.FileExists(t, jobs[i].OutputPath)
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	d := newTestDispatcher()
	dir := t.TempDir()

	good := makeImageJob(t, dir, 0)
	bad := models.ConversionJob{
		InputPath:      filepath.Join(dir, "broken.png"),
		OutputPath:     filepath.Join(dir, "broken.jpg"),
		OutputFilename: "broken.jpg",
		TargetFormat:   "jpg",
	}
	require.NoError(t, os.WriteFile(bad.InputPath, []byte("not an image"), 0o644))

	results := d.Dispatch(context.Background(), []models.ConversionJob{good, bad})
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.NoFileExists(t, bad.OutputPath)
}

func TestDispatchUnsupportedType(t *testing.T) {
	d := newTestDispatcher()
	dir := t.TempDir()

	input := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(input, []byte{0, 1, 2}, 0o644))

	results := d.Dispatch(context.Background(), []models.ConversionJob{{
		InputPath:      input,
		OutputPath:     filepath.Join(dir, "data.jpg"),
		OutputFilename: "data.jpg",
		TargetFormat:   "jpg",
	}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unsupported file type")
}

func TestDispatchRemovesInputs(t *testing.T) {
	d := newTestDispatcher()
	dir := t.TempDir()

	jobs := []models.ConversionJob{makeImageJob(t, dir, 0), makeImageJob(t, dir, 1)}
	d.Dispatch(context.Background(), jobs)

	for _, job := range jobs {
		assert.NoFileExists(t, job.InputPath)
	}
}

func TestDispatchSingleWorker(t *testing.T) {
	log := logger.NewTestLogger()
	router := convert.NewRouter(log, convert.Tools{})
	d := NewDispatcher(log, router, 0, 0) // floors to 1 worker, default timeout

	dir := t.TempDir()
	jobs := []models.ConversionJob{makeImageJob(t, dir, 0), makeImageJob(t, dir, 1), makeImageJob(t, dir, 2)}

	results := d.Dispatch(context.Background(), jobs)
	for i, result := range results {
		assert.Truef(t, result.Success, "job %d", i)
	}
}
