// Package dispatch fans a batch of conversion jobs out over a bounded worker
// pool and collects per-job results in input order.
package dispatch

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avallone/convertd/internal/convert"
	"github.com/avallone/convertd/internal/detect"
	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// Dispatcher runs conversion batches. A batch blocks the caller until every
// job has finished; individual job failures never abort the batch.
type Dispatcher struct {
	log        logger.Logger
	router     *convert.Router
	maxWorkers int
	jobTimeout time.Duration
}

func NewDispatcher(log logger.Logger, router *convert.Router, maxWorkers int, jobTimeout time.Duration) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	return &Dispatcher{
		log:        log.Named("dispatch"),
		router:     router,
		maxWorkers: maxWorkers,
		jobTimeout: jobTimeout,
	}
}

// Dispatch converts every job in the batch, at most maxWorkers at a time.
// Results come back in the same order as the jobs. Input files are removed
// after the batch completes, whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []models.ConversionJob) []models.ConversionResult {
	results := make([]models.ConversionResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	limit := d.maxWorkers
	if len(jobs) < limit {
		limit = len(jobs)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range jobs {
		i := i
		g.Go(func() error {
			results[i] = d.runJob(gctx, jobs[i])
			return nil
		})
	}
	// Workers never return errors, so Wait only reflects ctx cancellation.
	_ = g.Wait()

	for _, job := range jobs {
		if err := os.Remove(job.InputPath); err != nil && !os.IsNotExist(err) {
			d.log.Warn("failed to remove input file",
				logger.String("path", job.InputPath),
				logger.Error(err),
			)
		}
	}
	return results
}

func (d *Dispatcher) runJob(ctx context.Context, job models.ConversionJob) models.ConversionResult {
	result := models.ConversionResult{Filename: job.OutputFilename}

	mimeType := detect.Detect(job.InputPath)
	_ = detect.Category(mimeType)

	conv := d.router.Route(mimeType, detect.Extension(job.InputPath), job.TargetFormat)
	if conv == nil {
		d.log.Warn("no converter for file",
			logger.String("input", job.InputPath),
			logger.String("mime_type", mimeType),
		)
		result.Error = "unsupported file type: " + mimeType
		return result
	}

	jobCtx, cancel := context.WithTimeout(ctx, d.jobTimeout)
	defer cancel()

	start := time.Now()
	ok := conv.Convert(jobCtx, job.InputPath, job.OutputPath, job.Options)

	if !ok {
		d.log.Error("conversion failed",
			logger.String("input", job.InputPath),
			logger.String("target", job.TargetFormat),
			logger.Duration("elapsed", time.Since(start)),
		)
		result.Error = "conversion failed"
		// Failed conversions must not leave partial output behind.
		if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
			d.log.Warn("failed to remove partial output",
				logger.String("path", job.OutputPath),
				logger.Error(err),
			)
		}
		return result
	}

	d.log.Info("conversion done",
		logger.String("output", job.OutputPath),
		logger.String("target", job.TargetFormat),
		logger.Duration("elapsed", time.Since(start)),
	)
	result.Success = true
	result.MimeType = detect.Detect(job.OutputPath)
	result.Category = detect.Category(result.MimeType)
	return result
}
