package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"

	"github.com/avallone/convertd/pkg/logger"
)

// runFFmpeg executes ffmpeg with the given arguments. The context bounds the
// invocation: when it expires the process is killed, so a hung encode cannot
// pin a worker slot.
func runFFmpeg(ctx context.Context, log logger.Logger, ffmpegPath string, args []string) bool {
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error("ffmpeg failed",
			logger.Strings("args", args),
			logger.String("stderr", tail(stderr.String(), 2048)),
			logger.Error(err),
		)
		return false
	}
	return true
}

// tail returns at most the last n bytes of s. ffmpeg puts the useful
// diagnostic at the end of its stderr output.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ffprobe JSON output shapes. Only the fields we report are decoded.
type probeOutput struct {
	Format  probeFormat  `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	FrameRate  string `json:"r_frame_rate"`
}

// runFFprobe probes a media file and decodes the JSON report. Returns nil on
// any failure.
func runFFprobe(ctx context.Context, log logger.Logger, ffprobePath, input string) *probeOutput {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		input,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Warn("ffprobe failed",
			logger.String("input", input),
			logger.String("stderr", tail(stderr.String(), 1024)),
			logger.Error(err),
		)
		return nil
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		log.Warn("failed to decode ffprobe output",
			logger.String("input", input),
			logger.Error(err),
		)
		return nil
	}
	return &out
}

func (p *probeOutput) stream(codecType string) *probeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == codecType {
			return &p.Streams[i]
		}
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseFrameRate converts ffprobe's "num/den" frame rate notation.
func parseFrameRate(s string) float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return parseFloat(s)
	}
	num := parseFloat(parts[0])
	den := parseFloat(parts[1])
	if den == 0 {
		return 0
	}
	return num / den
}
