package convert

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// VideoConverter transcodes video through ffmpeg. GIF output uses the
// two-pass palettegen/paletteuse pipeline for acceptable quality.
type VideoConverter struct {
	log   logger.Logger
	tools Tools
}

func NewVideoConverter(log logger.Logger, tools Tools) *VideoConverter {
	return &VideoConverter{log: log.Named("video"), tools: tools}
}

const (
	defaultVideoBitrate = "1500k"
	defaultPreset       = "medium"
)

var (
	videoInputFormats  = []string{"mp4", "avi", "mov", "wmv", "flv", "mkv", "webm", "m4v", "mpeg", "mpg", "3gp", "vob", "ogv", "mts", "m2ts"}
	videoOutputFormats = []string{"mp4", "avi", "mov", "mkv", "webm", "gif", "mp3", "ogg"}

	// 90/180/270 degree rotations expressed as transpose filter chains.
	rotateFilters = map[int]string{
		90:  "transpose=1",
		180: "transpose=1,transpose=1",
		270: "transpose=2",
	}
)

func (c *VideoConverter) SupportedInputFormats() []string {
	return append([]string(nil), videoInputFormats...)
}

func (c *VideoConverter) SupportedOutputFormats() []string {
	return append([]string(nil), videoOutputFormats...)
}

func (c *VideoConverter) Convert(ctx context.Context, input, output string, opts models.Options) bool {
	o := opts.Video
	outputFormat := strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))

	if o.ExtractAudio {
		return c.extractAudio(ctx, input, output, outputFormat, o)
	}
	if outputFormat == "gif" {
		return c.convertGIF(ctx, input, output, o)
	}

	args := []string{"-y"}
	if o.TrimEnd > o.TrimStart {
		args = append(args, "-ss", formatSeconds(o.TrimStart), "-to", formatSeconds(o.TrimEnd))
	}
	args = append(args, "-i", input)

	audioOnly := outputFormat == "mp3" || outputFormat == "ogg" || outputFormat == "wav" || outputFormat == "flac"

	if audioOnly {
		args = append(args, "-vn")
	} else {
		var vf []string
		if o.Resolution != "" {
			vf = append(vf, "scale="+strings.ReplaceAll(o.Resolution, "x", ":"))
		}
		if filter, ok := rotateFilters[o.Rotate]; ok {
			vf = append(vf, filter)
		}
		if len(vf) > 0 {
			args = append(args, "-vf", strings.Join(vf, ","))
		}

		if o.FPS > 0 {
			args = append(args, "-r", strconv.Itoa(o.FPS))
		}

		bitrate := o.VideoBitrate
		if bitrate == "" {
			bitrate = defaultVideoBitrate
		}
		args = append(args, "-b:v", bitrate)

		codec := o.Codec
		if codec == "" {
			switch outputFormat {
			case "mp4":
				codec = "libx264"
			case "webm":
				codec = "libvpx-vp9"
			}
		}
		if codec != "" {
			args = append(args, "-c:v", codec)
		}

		if codec == "libx264" || codec == "libx265" {
			preset := o.Preset
			if preset == "" {
				preset = defaultPreset
			}
			args = append(args, "-preset", preset)
		}
	}

	if o.NoAudio {
		args = append(args, "-an")
	} else {
		if o.AudioBitrate != "" {
			args = append(args, "-b:a", o.AudioBitrate)
		}
		switch outputFormat {
		case "mp3":
			args = append(args, "-c:a", "libmp3lame")
		case "ogg":
			args = append(args, "-c:a", "libvorbis")
		}
	}

	args = append(args, output)
	return runFFmpeg(ctx, c.log, c.tools.FFmpeg, args)
}

func (c *VideoConverter) extractAudio(ctx context.Context, input, output, outputFormat string, o models.VideoOptions) bool {
	args := []string{"-y", "-i", input, "-vn"}
	if outputFormat == "m4a" || outputFormat == "aac" {
		args = append(args, "-acodec", "copy")
	} else {
		args = append(args, "-acodec", "libmp3lame")
	}
	if o.AudioBitrate != "" {
		args = append(args, "-b:a", o.AudioBitrate)
	}
	args = append(args, output)
	return runFFmpeg(ctx, c.log, c.tools.FFmpeg, args)
}

func (c *VideoConverter) convertGIF(ctx context.Context, input, output string, o models.VideoOptions) bool {
	var filters []string
	if o.Resolution != "" {
		filters = append(filters, "scale="+strings.ReplaceAll(o.Resolution, "x", ":"))
	} else {
		filters = append(filters, "scale=320:-1")
	}
	if o.FPS > 0 {
		filters = append(filters, "fps="+strconv.Itoa(o.FPS))
	} else {
		filters = append(filters, "fps=10")
	}
	chain := strings.Join(filters, ",")

	var trim []string
	if o.TrimEnd > o.TrimStart {
		trim = []string{"-ss", formatSeconds(o.TrimStart), "-to", formatSeconds(o.TrimEnd)}
	}

	palette := output + ".palette.png"
	defer os.Remove(palette)

	paletteArgs := []string{"-y", "-i", input}
	paletteArgs = append(paletteArgs, trim...)
	paletteArgs = append(paletteArgs, "-vf", chain+",palettegen", palette)
	if !runFFmpeg(ctx, c.log, c.tools.FFmpeg, paletteArgs) {
		return false
	}

	gifArgs := []string{"-y", "-i", input}
	gifArgs = append(gifArgs, trim...)
	gifArgs = append(gifArgs, "-i", palette, "-lavfi", chain+"[x];[x][1:v]paletteuse", output)
	return runFFmpeg(ctx, c.log, c.tools.FFmpeg, gifArgs)
}

func (c *VideoConverter) Probe(ctx context.Context, input string) models.Metadata {
	meta := models.Metadata{}

	out := runFFprobe(ctx, c.log, c.tools.FFprobe, input)
	if out == nil {
		return meta
	}

	meta["format"] = out.Format.FormatName
	meta["duration"] = parseFloat(out.Format.Duration)
	meta["size"] = parseInt(out.Format.Size)
	meta["bitrate"] = parseInt(out.Format.BitRate)

	if v := out.stream("video"); v != nil {
		meta["width"] = v.Width
		meta["height"] = v.Height
		meta["fps"] = parseFrameRate(v.FrameRate)
		meta["video_codec"] = v.CodecName
	}
	if a := out.stream("audio"); a != nil {
		meta["audio_codec"] = a.CodecName
		meta["audio_channels"] = a.Channels
		meta["audio_sample_rate"] = parseInt(a.SampleRate)
	}
	return meta
}
