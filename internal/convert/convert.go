// Package convert routes files to category-specific converters and wraps the
// external tools that perform the actual transformations.
package convert

import (
	"context"
	"strings"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// Converter transforms files of one category. Convert reports failure as a
// plain false: the underlying diagnostic is logged, never propagated, and a
// false result means the output file must not be trusted.
type Converter interface {
	// Convert transforms input into output, honoring only the options the
	// variant recognizes. It never panics past this boundary.
	Convert(ctx context.Context, input, output string, opts models.Options) bool

	// Probe returns descriptive metadata for the input file. On any probing
	// failure it returns an empty or partial map, not an error.
	Probe(ctx context.Context, input string) models.Metadata

	// SupportedInputFormats lists the input extensions this variant accepts.
	SupportedInputFormats() []string

	// SupportedOutputFormats lists the output extensions this variant can
	// produce. Derived from the same dispatch tables Convert uses.
	SupportedOutputFormats() []string
}

// Tools holds the external binaries converters shell out to.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Pandoc  string
}

// Router selects a converter variant by MIME type prefix.
type Router struct {
	log   logger.Logger
	tools Tools

	image    *ImageConverter
	audio    *AudioConverter
	video    *VideoConverter
	document *DocumentConverter
}

// NewRouter builds a router with one converter instance per category.
func NewRouter(log logger.Logger, tools Tools) *Router {
	if tools.FFmpeg == "" {
		tools.FFmpeg = "ffmpeg"
	}
	if tools.FFprobe == "" {
		tools.FFprobe = "ffprobe"
	}
	if tools.Pandoc == "" {
		tools.Pandoc = "pandoc"
	}
	return &Router{
		log:      log,
		tools:    tools,
		image:    NewImageConverter(log),
		audio:    NewAudioConverter(log, tools),
		video:    NewVideoConverter(log, tools),
		document: NewDocumentConverter(log, tools),
	}
}

// documentMIMEPrefixes must stay aligned with the detect package's document
// classification.
var documentMIMEPrefixes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.ms-",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.oasis.opendocument",
	"application/rtf",
	"application/epub+zip",
	"application/json",
	"application/xml",
	"text/",
}

// Route returns the converter for a MIME type, or nil when the type is
// unsupported. Nil means "unsupported", not an error. The format arguments
// are advisory hints; converters re-derive actual formats from file
// extensions at conversion time.
func (r *Router) Route(mimeType, sourceFormat, targetFormat string) Converter {
	_ = sourceFormat
	_ = targetFormat
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return r.image
	case strings.HasPrefix(mimeType, "audio/"):
		return r.audio
	case strings.HasPrefix(mimeType, "video/"):
		return r.video
	}
	for _, prefix := range documentMIMEPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return r.document
		}
	}
	return nil
}

// FormatSupport is one category's declared input/output format lists.
type FormatSupport struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// representativeMIME gives one MIME type per category, used to query the
// catalog without touching any file.
var representativeMIME = map[string]string{
	"image":    "image/jpeg",
	"audio":    "audio/mpeg",
	"video":    "video/mp4",
	"document": "application/pdf",
}

// Catalog returns the supported format lists per category. The lists come
// from the converters themselves, so the catalog cannot drift from what
// Route dispatches to.
func (r *Router) Catalog() map[string]FormatSupport {
	catalog := make(map[string]FormatSupport, len(representativeMIME))
	for category, mimeType := range representativeMIME {
		conv := r.Route(mimeType, "", "")
		if conv == nil {
			catalog[category] = FormatSupport{Input: []string{}, Output: []string{}}
			continue
		}
		catalog[category] = FormatSupport{
			Input:  conv.SupportedInputFormats(),
			Output: conv.SupportedOutputFormats(),
		}
	}
	return catalog
}
