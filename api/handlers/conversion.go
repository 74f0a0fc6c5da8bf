package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/internal/service/conversion"
	"github.com/avallone/convertd/pkg/logger"
)

type ConversionHandler struct {
	service conversion.Service
	logger  logger.Logger
}

func NewConversionHandler(service conversion.Service, logger logger.Logger) *ConversionHandler {
	return &ConversionHandler{
		service: service,
		logger:  logger,
	}
}

// Convert accepts a multipart batch and converts every file to the requested
// target format. The request blocks until the whole batch has finished.
func (h *ConversionHandler) Convert(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	targetFormat := c.PostForm("target_format")
	if targetFormat == "" {
		h.handleError(c, http.StatusBadRequest, "Target format is required", nil)
		return
	}

	opts, err := parseOptions(c)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid conversion options", err)
		return
	}

	resp, err := h.service.ConvertBatch(c.Request.Context(), files, targetFormat, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, conversion.ErrNoFiles) || errors.Is(err, conversion.ErrNoTargetFormat) {
			status = http.StatusBadRequest
		}
		h.handleError(c, status, "Failed to convert files", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Probe returns the metadata of a single upload without converting it.
func (h *ConversionHandler) Probe(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	file.Close()

	meta, err := h.service.ProbeFile(c.Request.Context(), header)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to probe file", err)
		return
	}

	c.JSON(http.StatusOK, meta)
}

// Formats returns the supported format lists per category.
func (h *ConversionHandler) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.service.Formats()})
}

// DownloadFile serves one converted file as an attachment.
func (h *ConversionHandler) DownloadFile(c *gin.Context) {
	sessionID := c.Param("sessionId")
	filename := c.Param("filename")

	path, err := h.service.FilePath(sessionID, filename)
	if err != nil {
		h.handleError(c, http.StatusNotFound, "File not found", err)
		return
	}

	c.FileAttachment(path, filename)
}

// DownloadArchive zips the session's output files and serves the archive.
func (h *ConversionHandler) DownloadArchive(c *gin.Context) {
	sessionID := c.Param("sessionId")

	path, err := h.service.Archive(sessionID)
	if err != nil {
		h.handleError(c, http.StatusNotFound, "Failed to build archive", err)
		return
	}

	c.FileAttachment(path, fmt.Sprintf("converted_%s.zip", sessionID))
}

// ClearSession removes the session directory and its archive.
func (h *ConversionHandler) ClearSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if err := h.service.Clear(sessionID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to clear session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Session cleared",
		"sessionId": sessionID,
	})
}

func (h *ConversionHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}

// Wire shapes of the per-category option bags the client posts as JSON form
// fields. Sub-features arrive as {enabled, ...} objects and are ignored
// unless enabled.
type imageOptionsPayload struct {
	Quality int `json:"quality"`
	Resize  struct {
		Enabled    bool    `json:"enabled"`
		Type       string  `json:"type"` // "percentage" or "dimensions"
		Percentage float64 `json:"percentage"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
	} `json:"resize"`
	Rotate struct {
		Enabled bool    `json:"enabled"`
		Angle   float64 `json:"angle"`
	} `json:"rotate"`
	Flip struct {
		Enabled   bool   `json:"enabled"`
		Direction string `json:"direction"`
	} `json:"flip"`
	Filter struct {
		Enabled bool   `json:"enabled"`
		Type    string `json:"type"`
	} `json:"filter"`
}

type audioOptionsPayload struct {
	Bitrate    string `json:"bitrate"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Volume     struct {
		Enabled bool    `json:"enabled"`
		Value   float64 `json:"value"` // dB
	} `json:"volume"`
	Normalize bool `json:"normalize"`
	Trim      struct {
		Enabled bool `json:"enabled"`
		Start   int  `json:"start"` // ms
		End     int  `json:"end"`
	} `json:"trim"`
}

type videoOptionsPayload struct {
	VideoBitrate string `json:"video_bitrate"`
	AudioBitrate string `json:"audio_bitrate"`
	Resolution   string `json:"resolution"`
	FPS          int    `json:"fps"`
	Rotate       struct {
		Enabled bool `json:"enabled"`
		Angle   int  `json:"angle"`
	} `json:"rotate"`
	Codec        string `json:"codec"`
	Preset       string `json:"preset"`
	NoAudio      bool   `json:"no_audio"`
	ExtractAudio bool   `json:"extract_audio"`
	Trim         struct {
		Enabled bool    `json:"enabled"`
		Start   float64 `json:"start"` // seconds
		End     float64 `json:"end"`
	} `json:"trim"`
}

type documentOptionsPayload struct {
	PreserveMetadata *bool          `json:"preserve_metadata"`
	PaperSize        string         `json:"paper_size"`
	Margins          map[string]int `json:"margins"`
	Font             string         `json:"font"`
	FontSize         int            `json:"font_size"`
	TOC              bool           `json:"toc"`
	Template         string         `json:"template"`
	EncryptedPDF     struct {
		Enabled  bool   `json:"enabled"`
		Password string `json:"password"`
	} `json:"encrypted_pdf"`
}

// parseOptions decodes the optional per-category option form fields.
func parseOptions(c *gin.Context) (models.Options, error) {
	var opts models.Options

	if raw := c.PostForm("image_options"); raw != "" {
		var p imageOptionsPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return opts, fmt.Errorf("image_options: %w", err)
		}
		opts.Image.Quality = p.Quality
		if p.Resize.Enabled {
			if p.Resize.Type == "percentage" && p.Resize.Percentage > 0 {
				opts.Image.ResizePercent = p.Resize.Percentage / 100
			} else if p.Resize.Width > 0 && p.Resize.Height > 0 {
				opts.Image.ResizeWidth = p.Resize.Width
				opts.Image.ResizeHeight = p.Resize.Height
			}
		}
		if p.Rotate.Enabled {
			opts.Image.Rotate = p.Rotate.Angle
		}
		if p.Flip.Enabled {
			opts.Image.Flip = p.Flip.Direction
		}
		if p.Filter.Enabled {
			opts.Image.Filter = p.Filter.Type
		}
	}

	if raw := c.PostForm("audio_options"); raw != "" {
		var p audioOptionsPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return opts, fmt.Errorf("audio_options: %w", err)
		}
		opts.Audio.Bitrate = p.Bitrate
		opts.Audio.SampleRate = p.SampleRate
		opts.Audio.Channels = p.Channels
		opts.Audio.Normalize = p.Normalize
		if p.Volume.Enabled {
			opts.Audio.VolumeDB = p.Volume.Value
		}
		if p.Trim.Enabled {
			opts.Audio.TrimStartMs = p.Trim.Start
			opts.Audio.TrimEndMs = p.Trim.End
		}
	}

	if raw := c.PostForm("video_options"); raw != "" {
		var p videoOptionsPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return opts, fmt.Errorf("video_options: %w", err)
		}
		opts.Video.VideoBitrate = p.VideoBitrate
		opts.Video.AudioBitrate = p.AudioBitrate
		opts.Video.Resolution = p.Resolution
		opts.Video.FPS = p.FPS
		opts.Video.Codec = p.Codec
		opts.Video.Preset = p.Preset
		opts.Video.NoAudio = p.NoAudio
		opts.Video.ExtractAudio = p.ExtractAudio
		if p.Rotate.Enabled {
			opts.Video.Rotate = p.Rotate.Angle
		}
		if p.Trim.Enabled {
			opts.Video.TrimStart = p.Trim.Start
			opts.Video.TrimEnd = p.Trim.End
		}
	}

	// Metadata preservation defaults to on even without an options bag.
	opts.Document.PreserveMetadata = true
	if raw := c.PostForm("document_options"); raw != "" {
		var p documentOptionsPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return opts, fmt.Errorf("document_options: %w", err)
		}
		if p.PreserveMetadata != nil {
			opts.Document.PreserveMetadata = *p.PreserveMetadata
		}
		opts.Document.PaperSize = p.PaperSize
		opts.Document.Margins = p.Margins
		opts.Document.Font = p.Font
		opts.Document.FontSize = p.FontSize
		opts.Document.TOC = p.TOC
		opts.Document.Template = p.Template
		if p.EncryptedPDF.Enabled {
			opts.Document.EncryptedPDF = true
			opts.Document.Password = p.EncryptedPDF.Password
		}
	}

	return opts, nil
}
