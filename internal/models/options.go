package models

// Options carries the per-category option structs for one conversion batch.
// It is constructed once at the HTTP boundary from the client-supplied JSON
// bags and passed by value into converter calls; each converter honors only
// the struct for its own category.
type Options struct {
	Image    ImageOptions
	Audio    AudioOptions
	Video    VideoOptions
	Document DocumentOptions
}

// ImageOptions control image conversions. Zero values mean "leave unchanged".
type ImageOptions struct {
	Quality       int     // 1-100, encoder quality for lossy formats
	ResizePercent float64 // 0 < p <= 1 scales both dimensions
	ResizeWidth   int     // exact dimensions, both must be > 0
	ResizeHeight  int
	Rotate        float64 // degrees, counter-clockwise
	Flip          string  // "horizontal" or "vertical"
	Filter        string  // blur, sharpen, grayscale, contour, detail, edge_enhance, emboss
}

// AudioOptions control audio conversions.
type AudioOptions struct {
	Bitrate     string  // e.g. "192k"
	SampleRate  int     // e.g. 44100
	Channels    int     // 1 = mono, 2 = stereo
	VolumeDB    float64 // gain in dB, may be negative
	Normalize   bool    // apply loudness normalization
	TrimStartMs int
	TrimEndMs   int // trim applied only when end > start
}

// VideoOptions control video conversions.
type VideoOptions struct {
	VideoBitrate string
	AudioBitrate string
	Resolution   string // "WIDTHxHEIGHT"
	FPS          int
	Rotate       int // 90, 180 or 270
	Codec        string
	Preset       string // x264/x265 preset, defaults to "medium"
	NoAudio      bool
	ExtractAudio bool
	TrimStart    float64 // seconds
	TrimEnd      float64
}

// DocumentOptions control document conversions. Most fields only apply to the
// pandoc path; the PDF fields apply to encrypted-PDF extraction.
type DocumentOptions struct {
	PreserveMetadata bool
	PaperSize        string
	Margins          map[string]int // mm per side: top, right, bottom, left
	Font             string
	FontSize         int
	TOC              bool
	Template         string
	EncryptedPDF     bool
	Password         string
}
