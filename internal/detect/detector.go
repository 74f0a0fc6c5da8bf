// Package detect maps filenames to MIME types and coarse categories.
package detect

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/avallone/convertd/internal/models"
)

// mimeTable is the curated extension table. The platform table is only
// consulted for extensions not listed here.
var mimeTable = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".m4a":  "audio/mp4",
	".wma":  "audio/x-ms-wma",
	".opus": "audio/opus",
	".aiff": "audio/aiff",
	".alac": "audio/alac",
	".ac3":  "audio/ac3",
	".amr":  "audio/amr",
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".vob":  "video/mpeg",
	".ogv":  "video/ogg",
	".mts":  "video/mp2t",
	".m2ts": "video/mp2t",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rtf":  "application/rtf",
	".epub": "application/epub+zip",
	".tex":  "text/x-tex",
	".org":  "text/org",
	".rst":  "text/x-rst",
	".adoc": "text/asciidoc",
}

// documentPrefixes are the MIME prefixes classified as documents.
var documentPrefixes = []string{
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

// Detect returns the MIME type for a file path based on its extension.
// The curated table wins over the platform table so results stay identical
// across hosts; it never fails, unknown extensions map to
// application/octet-stream.
func Detect(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "application/octet-stream"
	}
	if t, ok := mimeTable[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip parameters such as "; charset=utf-8".
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}

// Category classifies a MIME type into a coarse category.
func Category(mimeType string) models.Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.CategoryImage
	case strings.HasPrefix(mimeType, "audio/"):
		return models.CategoryAudio
	case strings.HasPrefix(mimeType, "video/"):
		return models.CategoryVideo
	}
	for _, prefix := range documentPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return models.CategoryDocument
		}
	}
	return models.CategoryUnknown
}

// Extension tables for CategoryByExtension. These mirror the MIME-based
// classification; detector_test asserts the two stay in agreement.
var (
	imageExts = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
		"webp": true, "tiff": true, "tif": true, "svg": true, "heic": true,
		"heif": true, "avif": true,
	}
	audioExts = map[string]bool{
		"mp3": true, "wav": true, "ogg": true, "flac": true, "aac": true,
		"m4a": true, "wma": true, "opus": true, "aiff": true, "alac": true,
		"ac3": true, "amr": true,
	}
	videoExts = map[string]bool{
		"mp4": true, "avi": true, "mov": true, "wmv": true, "mkv": true,
		"webm": true, "flv": true, "m4v": true, "mpeg": true, "mpg": true,
		"3gp": true, "vob": true, "ogv": true, "mts": true, "m2ts": true,
	}
	documentExts = map[string]bool{
		"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
		"ppt": true, "pptx": true, "txt": true, "rtf": true, "odt": true,
		"ods": true, "odp": true, "csv": true, "html": true, "htm": true,
		"md": true, "json": true, "xml": true, "epub": true, "tex": true,
		"org": true, "rst": true, "adoc": true,
	}
	archiveExts = map[string]bool{
		"zip": true, "rar": true, "7z": true, "tar": true, "gz": true,
		"bz2": true,
	}
)

// CategoryByExtension classifies a filename by extension alone, without
// consulting the MIME table. Used by history listings.
func CategoryByExtension(filename string) models.Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch {
	case ext == "":
		return models.CategoryUnknown
	case imageExts[ext]:
		return models.CategoryImage
	case audioExts[ext]:
		return models.CategoryAudio
	case videoExts[ext]:
		return models.CategoryVideo
	case documentExts[ext]:
		return models.CategoryDocument
	case archiveExts[ext]:
		return models.CategoryArchive
	}
	return models.CategoryUnknown
}

// Extension returns the lowercase file extension without the leading dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// KnownExtensions returns every extension present in the extension tables.
func KnownExtensions() []string {
	var exts []string
	for _, table := range []map[string]bool{imageExts, audioExts, videoExts, documentExts, archiveExts} {
		for ext := range table {
			exts = append(exts, ext)
		}
	}
	return exts
}
