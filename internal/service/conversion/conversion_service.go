package conversion

import (
	"context"
	"mime/multipart"

	"github.com/avallone/convertd/internal/convert"
	"github.com/avallone/convertd/internal/models"
)

// Service is the application-level conversion API the HTTP handlers talk to.
type Service interface {
	// ConvertBatch saves the uploads, converts every file to targetFormat and
	// returns one result per input in upload order. It blocks until the whole
	// batch has finished.
	ConvertBatch(ctx context.Context, files []*multipart.FileHeader, targetFormat string, opts models.Options) (*models.BatchResponse, error)

	// ProbeFile inspects a single upload and returns its metadata without
	// converting anything.
	ProbeFile(ctx context.Context, header *multipart.FileHeader) (models.Metadata, error)

	// Formats returns the supported input/output formats per category.
	Formats() map[string]convert.FormatSupport

	// History lists past sessions, newest first.
	History() ([]models.SessionSummary, error)

	// Archive zips a session's output files and returns the archive path.
	Archive(sessionID string) (string, error)

	// FilePath resolves one output file inside a session.
	FilePath(sessionID, filename string) (string, error)

	// Clear removes a session directory and its archive.
	Clear(sessionID string) error

	DeleteSession(sessionID string) models.DeleteOutcome
	DeleteFile(sessionID, filename string) models.DeleteOutcome
	DeleteBatch(req models.DeleteBatchRequest) []models.DeleteOutcome
}
