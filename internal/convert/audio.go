package convert

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// AudioConverter transcodes audio through ffmpeg.
type AudioConverter struct {
	log   logger.Logger
	tools Tools
}

func NewAudioConverter(log logger.Logger, tools Tools) *AudioConverter {
	return &AudioConverter{log: log.Named("audio"), tools: tools}
}

const defaultAudioBitrate = "192k"

var (
	audioInputFormats  = []string{"mp3", "wav", "ogg", "flac", "aac", "m4a", "wma", "aiff", "alac", "opus", "ac3", "amr"}
	audioOutputFormats = []string{"mp3", "wav", "ogg", "flac", "aac", "m4a", "opus"}
)

func (c *AudioConverter) SupportedInputFormats() []string {
	return append([]string(nil), audioInputFormats...)
}

func (c *AudioConverter) SupportedOutputFormats() []string {
	return append([]string(nil), audioOutputFormats...)
}

func (c *AudioConverter) Convert(ctx context.Context, input, output string, opts models.Options) bool {
	o := opts.Audio

	args := []string{"-y", "-i", input}

	bitrate := o.Bitrate
	if bitrate == "" {
		bitrate = defaultAudioBitrate
	}
	args = append(args, "-b:a", bitrate)

	if o.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(o.SampleRate))
	}
	if o.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(o.Channels))
	}

	var filters []string
	if o.VolumeDB != 0 {
		filters = append(filters, fmt.Sprintf("volume=%gdB", o.VolumeDB))
	}
	if o.Normalize {
		filters = append(filters, "loudnorm")
	}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}

	if o.TrimEndMs > o.TrimStartMs {
		args = append(args,
			"-ss", formatSeconds(float64(o.TrimStartMs)/1000),
			"-to", formatSeconds(float64(o.TrimEndMs)/1000),
		)
	}

	args = append(args, output)

	return runFFmpeg(ctx, c.log, c.tools.FFmpeg, args)
}

func (c *AudioConverter) Probe(ctx context.Context, input string) models.Metadata {
	meta := models.Metadata{}

	out := runFFprobe(ctx, c.log, c.tools.FFprobe, input)
	if out == nil {
		return meta
	}

	meta["format"] = out.Format.FormatName
	meta["duration"] = parseFloat(out.Format.Duration)
	meta["size"] = parseInt(out.Format.Size)
	meta["bitrate"] = parseInt(out.Format.BitRate)

	if s := out.stream("audio"); s != nil {
		meta["codec"] = s.CodecName
		meta["sample_rate"] = parseInt(s.SampleRate)
		meta["channels"] = s.Channels
	}
	return meta
}

// formatSeconds renders a duration in seconds without scientific notation.
func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}
