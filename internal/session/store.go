// Package session manages the per-session output directories that back every
// conversion batch, plus the history views derived from them.
package session

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

const metadataFile = "session_info.json"

var ErrInvalidName = errors.New("invalid file name")

// Store keeps converted output on the local filesystem, one directory per
// session under the root. The directory tree is the single source of truth;
// there is no separate index.
type Store struct {
	root string
	log  logger.Logger
}

func NewStore(log logger.Logger, root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root, log: log.Named("session")}, nil
}

// Root returns the directory all sessions live under.
func (s *Store) Root() string {
	return s.root
}

// Create allocates a fresh session directory and returns its id.
func (s *Store) Create() (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(s.Dir(id), 0o755); err != nil {
		return "", err
	}
	return id, nil
}

// Dir returns the directory for a session id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// validName rejects anything that could escape the store root when joined.
func validName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.Contains(name, "..")
}

// FilePath resolves a file inside a session, rejecting names that would
// escape the session directory.
func (s *Store) FilePath(id, name string) (string, error) {
	if !validName(id) || !validName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.Dir(id), name), nil
}

// WriteMetadata records the batch outcome sidecar inside the session
// directory. Target formats come from the successful results only, sorted
// and deduplicated.
func (s *Store) WriteMetadata(id string, jobs []models.ConversionJob, results []models.ConversionResult) error {
	formats := map[string]bool{}
	categories := map[string]int{}
	for i, result := range results {
		if !result.Success {
			continue
		}
		if i < len(jobs) {
			formats[jobs[i].TargetFormat] = true
		}
		categories[string(result.Category)]++
	}
	sorted := make([]string, 0, len(formats))
	for format := range formats {
		sorted = append(sorted, format)
	}
	sort.Strings(sorted)

	now := time.Now()
	meta := models.SessionMetadata{
		Timestamp:     now.Unix(),
		Date:          now.Format(time.RFC3339),
		TargetFormats: sorted,
		Categories:    categories,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir(id), metadataFile), data, 0o644)
}

// ReadMetadata loads the session sidecar. The boolean is false when the
// sidecar does not exist or cannot be parsed.
func (s *Store) ReadMetadata(id string) (models.SessionMetadata, bool) {
	var meta models.SessionMetadata
	data, err := os.ReadFile(filepath.Join(s.Dir(id), metadataFile))
	if err != nil {
		return meta, false
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Warn("corrupt session metadata", logger.String("session", id), logger.Error(err))
		return meta, false
	}
	return meta, true
}

// ArchivePath returns where the session's zip archive lives. Archives sit
// beside the session directories, not inside them, so listing sessions never
// picks them up.
func (s *Store) ArchivePath(id string) string {
	return filepath.Join(s.root, "converted_"+id+".zip")
}

// Archive builds a flat zip of the session's output files, overwriting any
// previous archive. The metadata sidecar is excluded.
func (s *Store) Archive(id string) (string, error) {
	if !validName(id) {
		return "", ErrInvalidName
	}
	entries, err := os.ReadDir(s.Dir(id))
	if err != nil {
		return "", err
	}

	path := s.ArchivePath(id)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == metadataFile {
			continue
		}
		if err := addToZip(zw, filepath.Join(s.Dir(id), entry.Name()), entry.Name()); err != nil {
			zw.Close()
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func addToZip(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Clear removes a session directory and its archive. Removing a session that
// does not exist is not an error.
func (s *Store) Clear(id string) error {
	if !validName(id) {
		return ErrInvalidName
	}
	if err := os.RemoveAll(s.Dir(id)); err != nil {
		return err
	}
	if err := os.Remove(s.ArchivePath(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
