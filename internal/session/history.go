package session

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/avallone/convertd/internal/detect"
	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// History derives session listings from the store's directory tree. Category
// counts are recomputed from the files present at read time, so deletions are
// reflected without ever rewriting the metadata sidecar.
type History struct {
	store *Store
	log   logger.Logger
}

func NewHistory(log logger.Logger, store *Store) *History {
	return &History{store: store, log: log.Named("history")}
}

// List returns every session, newest first. Sessions whose sidecar is missing
// fall back to the directory's modification time.
func (h *History) List() ([]models.SessionSummary, error) {
	entries, err := os.ReadDir(h.store.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return []models.SessionSummary{}, nil
		}
		return nil, err
	}

	summaries := make([]models.SessionSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		summary, err := h.summarize(entry.Name())
		if err != nil {
			h.log.Warn("skipping unreadable session",
				logger.String("session", entry.Name()),
				logger.Error(err),
			)
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Timestamp != summaries[j].Timestamp {
			return summaries[i].Timestamp > summaries[j].Timestamp
		}
		return summaries[i].SessionID < summaries[j].SessionID
	})
	return summaries, nil
}

func (h *History) summarize(id string) (models.SessionSummary, error) {
	dir := h.store.Dir(id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return models.SessionSummary{}, err
	}

	summary := models.SessionSummary{
		SessionID:  id,
		Files:      []models.FileEntry{},
		Categories: map[string]int{},
	}

	if meta, ok := h.store.ReadMetadata(id); ok {
		summary.Timestamp = meta.Timestamp
		summary.Date = meta.Date
		summary.TargetFormats = meta.TargetFormats
	} else if st, err := os.Stat(dir); err == nil {
		summary.Timestamp = st.ModTime().Unix()
		summary.Date = st.ModTime().Format("2006-01-02T15:04:05Z07:00")
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == metadataFile {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		category := detect.CategoryByExtension(entry.Name())
		summary.Files = append(summary.Files, models.FileEntry{
			Filename:  entry.Name(),
			Size:      info.Size(),
			Extension: detect.Extension(entry.Name()),
			Category:  category,
		})
		summary.Categories[string(category)]++
	}
	summary.FileCount = len(summary.Files)
	return summary, nil
}

// DeleteSession removes one session and its archive.
func (h *History) DeleteSession(id string) models.DeleteOutcome {
	outcome := models.DeleteOutcome{Target: id}
	if _, err := os.Stat(h.store.Dir(id)); os.IsNotExist(err) {
		outcome.Missing = true
		return outcome
	}
	if err := h.store.Clear(id); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Deleted = true
	return outcome
}

// DeleteFile removes one file inside a session. The session directory itself
// stays, even when it becomes empty.
func (h *History) DeleteFile(id, name string) models.DeleteOutcome {
	outcome := models.DeleteOutcome{Target: filepath.Join(id, name)}
	path, err := h.store.FilePath(id, name)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			outcome.Missing = true
		} else {
			outcome.Error = err.Error()
		}
		return outcome
	}
	outcome.Deleted = true
	return outcome
}

// DeleteBatch applies file-level deletions first, then session-level ones.
// Each target gets its own outcome; the batch never stops early.
func (h *History) DeleteBatch(req models.DeleteBatchRequest) []models.DeleteOutcome {
	outcomes := make([]models.DeleteOutcome, 0, len(req.Files)+len(req.Sessions))
	for _, target := range req.Files {
		outcomes = append(outcomes, h.DeleteFile(target.SessionID, target.Filename))
	}
	for _, id := range req.Sessions {
		outcomes = append(outcomes, h.DeleteSession(id))
	}
	return outcomes
}
