// Command convert is a local batch converter sharing the server's pipeline:
//
//	convert -target pdf -out ./out report.docx notes.md
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/avallone/convertd/config"
	"github.com/avallone/convertd/internal/convert"
	"github.com/avallone/convertd/internal/dispatch"
	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

func main() {
	target := flag.String("target", "", "target format, e.g. pdf, png, mp3 (required)")
	outDir := flag.String("out", ".", "output directory")
	quality := flag.Int("quality", 0, "image quality 1-100")
	resolution := flag.String("resolution", "", "video resolution, e.g. 1280x720")
	bitrate := flag.String("bitrate", "", "audio bitrate, e.g. 192k")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *target == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: convert -target FORMAT [-out DIR] FILE...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(
		logger.WithLevel(level),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log, flag.Args(), *target, *outDir, models.Options{
		Image: models.ImageOptions{Quality: *quality},
		Audio: models.AudioOptions{Bitrate: *bitrate},
		Video: models.VideoOptions{Resolution: *resolution},
	}); err != nil {
		fmt.Fprintln(os.Stderr, "convert:", err)
		os.Exit(1)
	}
}

func run(log logger.Logger, inputs []string, target, outDir string, opts models.Options) error {
	cfg := config.Get()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	// Dispatch removes its input files after the batch, so the originals are
	// staged into a scratch directory first.
	staging, err := os.MkdirTemp("", "convertd-cli-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	target = strings.ToLower(strings.TrimPrefix(target, "."))
	jobs := make([]models.ConversionJob, 0, len(inputs))
	for i, input := range inputs {
		staged := filepath.Join(staging, fmt.Sprintf("%d_%s", i, filepath.Base(input)))
		if err := copyFile(input, staged); err != nil {
			return fmt.Errorf("failed to stage %s: %w", input, err)
		}

		base := filepath.Base(input)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		outputName := stem + "." + target
		jobs = append(jobs, models.ConversionJob{
			InputPath:      staged,
			OutputPath:     filepath.Join(outDir, outputName),
			OutputFilename: outputName,
			TargetFormat:   target,
			Options:        opts,
		})
	}

	router := convert.NewRouter(log, convert.Tools{
		FFmpeg:  cfg.FFmpegPath,
		FFprobe: cfg.FFprobePath,
		Pandoc:  cfg.PandocPath,
	})
	dispatcher := dispatch.NewDispatcher(log, router, cfg.MaxWorkers, cfg.ConvertTimeout)
	results := dispatcher.Dispatch(context.Background(), jobs)

	failed := 0
	for i, result := range results {
		if result.Success {
			fmt.Printf("ok\t%s -> %s\n", inputs[i], jobs[i].OutputPath)
		} else {
			failed++
			fmt.Printf("FAIL\t%s: %s\n", inputs[i], result.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
