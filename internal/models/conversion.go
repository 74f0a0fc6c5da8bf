package models

import (
	"time"
)

// Category is the coarse classification of a file.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryArchive  Category = "archive"
	CategoryUnknown  Category = "unknown"
)

// ConversionJob is one (input, output, options) unit handed to exactly one
// converter invocation. Immutable once built; the input path is removed after
// dispatch regardless of outcome.
type ConversionJob struct {
	InputPath      string
	OutputPath     string
	OutputFilename string
	TargetFormat   string
	Options        Options
}

// ConversionResult reports the outcome of a single job. Every submitted file
// produces exactly one result.
type ConversionResult struct {
	Filename string   `json:"filename"`
	Success  bool     `json:"success"`
	MimeType string   `json:"mimeType,omitempty"`
	Category Category `json:"category,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Metadata holds format-specific descriptive fields returned by Probe.
type Metadata map[string]interface{}

// SessionMetadata is the sidecar record written into a session directory
// after dispatch completes. It is never updated afterwards; history listings
// recompute category counts from the directory contents instead.
type SessionMetadata struct {
	Timestamp     int64          `json:"timestamp"`
	Date          string         `json:"date"`
	TargetFormats []string       `json:"targetFormats"`
	Categories    map[string]int `json:"categories"`
}

// FileEntry describes one output file inside a session.
type FileEntry struct {
	Filename  string   `json:"filename"`
	Size      int64    `json:"size"`
	Extension string   `json:"extension"`
	Category  Category `json:"category"`
}

// SessionSummary is one history listing entry.
type SessionSummary struct {
	SessionID     string         `json:"sessionId"`
	Timestamp     int64          `json:"timestamp"`
	Date          string         `json:"date"`
	TargetFormats []string       `json:"targetFormats,omitempty"`
	Files         []FileEntry    `json:"files"`
	FileCount     int            `json:"fileCount"`
	Categories    map[string]int `json:"categories"`
}

// DeleteTarget names one file inside a session for batch deletion.
type DeleteTarget struct {
	SessionID string `json:"sessionId"`
	Filename  string `json:"filename"`
}

// DeleteBatchRequest removes multiple files and/or whole sessions. File-level
// deletions are applied before session-level ones; the operation is not
// transactional.
type DeleteBatchRequest struct {
	Files    []DeleteTarget `json:"files"`
	Sessions []string       `json:"sessions"`
}

// DeleteOutcome reports one target of a deletion request.
type DeleteOutcome struct {
	Target  string `json:"target"`
	Deleted bool   `json:"deleted"`
	Missing bool   `json:"missing,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchResponse is returned by the convert endpoint.
type BatchResponse struct {
	SessionID string             `json:"sessionId"`
	Files     []ConversionResult `json:"files"`
	CreatedAt time.Time          `json:"createdAt"`
}
