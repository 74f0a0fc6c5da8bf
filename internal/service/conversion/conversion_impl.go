package conversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avallone/convertd/config"
	"github.com/avallone/convertd/internal/convert"
	"github.com/avallone/convertd/internal/detect"
	"github.com/avallone/convertd/internal/dispatch"
	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/internal/session"
	"github.com/avallone/convertd/pkg/logger"
)

var (
	ErrNoFiles        = errors.New("no files provided")
	ErrNoTargetFormat = errors.New("no target format provided")
)

type conversionService struct {
	log        logger.Logger
	router     *convert.Router
	dispatcher *dispatch.Dispatcher
	store      *session.Store
	history    *session.History
	uploadDir  string
}

// NewService wires a conversion service from its parts.
func NewService(
	log logger.Logger,
	router *convert.Router,
	dispatcher *dispatch.Dispatcher,
	store *session.Store,
	history *session.History,
	uploadDir string,
) Service {
	return &conversionService{
		log:        log,
		router:     router,
		dispatcher: dispatcher,
		store:      store,
		history:    history,
		uploadDir:  uploadDir,
	}
}

// GetService builds the service from the process configuration.
func GetService(log logger.Logger) (Service, error) {
	cfg := config.Get()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	store, err := session.NewStore(log, cfg.ConvertedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	router := convert.NewRouter(log, convert.Tools{
		FFmpeg:  cfg.FFmpegPath,
		FFprobe: cfg.FFprobePath,
		Pandoc:  cfg.PandocPath,
	})
	dispatcher := dispatch.NewDispatcher(log, router, cfg.MaxWorkers, cfg.ConvertTimeout)
	history := session.NewHistory(log, store)

	return NewService(log, router, dispatcher, store, history, cfg.UploadDir), nil
}

func (s *conversionService) ConvertBatch(
	ctx context.Context,
	files []*multipart.FileHeader,
	targetFormat string,
	opts models.Options,
) (*models.BatchResponse, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	targetFormat = strings.ToLower(strings.TrimPrefix(targetFormat, "."))
	if targetFormat == "" {
		return nil, ErrNoTargetFormat
	}

	s.log.Info("starting conversion batch",
		logger.Int("files", len(files)),
		logger.String("target", targetFormat),
	)

	sessionID, err := s.store.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	jobs := make([]models.ConversionJob, 0, len(files))
	used := map[string]bool{}
	for _, header := range files {
		inputPath, err := s.saveUpload(header)
		if err != nil {
			// Inputs already saved belong to jobs; dispatch removes those.
			for _, job := range jobs {
				os.Remove(job.InputPath)
			}
			return nil, fmt.Errorf("failed to save upload %q: %w", header.Filename, err)
		}

		outputName := uniqueName(used, outputFilename(header.Filename, targetFormat))
		used[outputName] = true

		jobs = append(jobs, models.ConversionJob{
			InputPath:      inputPath,
			OutputPath:     filepath.Join(s.store.Dir(sessionID), outputName),
			OutputFilename: outputName,
			TargetFormat:   targetFormat,
			Options:        opts,
		})
	}

	results := s.dispatcher.Dispatch(ctx, jobs)

	if err := s.store.WriteMetadata(sessionID, jobs, results); err != nil {
		s.log.Warn("failed to write session metadata",
			logger.String("session", sessionID),
			logger.Error(err),
		)
	}

	return &models.BatchResponse{
		SessionID: sessionID,
		Files:     results,
		CreatedAt: time.Now(),
	}, nil
}

func (s *conversionService) ProbeFile(ctx context.Context, header *multipart.FileHeader) (models.Metadata, error) {
	path, err := s.saveUpload(header)
	if err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	defer os.Remove(path)

	mimeType := detect.Detect(path)
	category := detect.Category(mimeType)

	meta := models.Metadata{}
	if conv := s.router.Route(mimeType, detect.Extension(path), ""); conv != nil {
		meta = conv.Probe(ctx, path)
	}
	meta["filename"] = header.Filename
	meta["mime_type"] = mimeType
	meta["category"] = category
	return meta, nil
}

func (s *conversionService) Formats() map[string]convert.FormatSupport {
	return s.router.Catalog()
}

func (s *conversionService) History() ([]models.SessionSummary, error) {
	return s.history.List()
}

func (s *conversionService) Archive(sessionID string) (string, error) {
	return s.store.Archive(sessionID)
}

func (s *conversionService) FilePath(sessionID, filename string) (string, error) {
	path, err := s.store.FilePath(sessionID, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *conversionService) Clear(sessionID string) error {
	return s.store.Clear(sessionID)
}

func (s *conversionService) DeleteSession(sessionID string) models.DeleteOutcome {
	return s.history.DeleteSession(sessionID)
}

func (s *conversionService) DeleteFile(sessionID, filename string) models.DeleteOutcome {
	return s.history.DeleteFile(sessionID, filename)
}

func (s *conversionService) DeleteBatch(req models.DeleteBatchRequest) []models.DeleteOutcome {
	return s.history.DeleteBatch(req)
}

// saveUpload copies a multipart upload into the upload directory under a
// collision-free name.
func (s *conversionService) saveUpload(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + "_" + filepath.Base(header.Filename)
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// outputFilename swaps the upload's extension for the target format.
func outputFilename(original, targetFormat string) string {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "converted"
	}
	return stem + "." + targetFormat
}

// uniqueName disambiguates repeated output names within one batch.
func uniqueName(used map[string]bool, name string) string {
	if !used[name] {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !used[candidate] {
			return candidate
		}
	}
}
