package convert

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// ImageConverter converts between raster image formats in-process using the
// imaging library. No external tool is involved.
type ImageConverter struct {
	log logger.Logger
}

func NewImageConverter(log logger.Logger) *ImageConverter {
	return &ImageConverter{log: log.Named("image")}
}

var imageFormats = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff"}

func (c *ImageConverter) SupportedInputFormats() []string {
	return append([]string(nil), imageFormats...)
}

func (c *ImageConverter) SupportedOutputFormats() []string {
	return append([]string(nil), imageFormats...)
}

// Convolution kernels for the named filters.
var (
	kernelEmboss = [9]float64{
		-1, -1, 0,
		-1, 1, 1,
		0, 1, 1,
	}
	kernelEdgeEnhance = [9]float64{
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0,
	}
	kernelContour = [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}
)

func (c *ImageConverter) Convert(ctx context.Context, input, output string, opts models.Options) bool {
	if ctx.Err() != nil {
		return false
	}

	img, err := imaging.Open(input, imaging.AutoOrientation(true))
	if err != nil {
		c.log.Error("failed to open image",
			logger.String("input", input),
			logger.Error(err),
		)
		return false
	}

	o := opts.Image

	switch {
	case o.ResizePercent > 0 && o.ResizePercent <= 1:
		w := int(float64(img.Bounds().Dx()) * o.ResizePercent)
		h := int(float64(img.Bounds().Dy()) * o.ResizePercent)
		if w > 0 && h > 0 {
			img = imaging.Resize(img, w, h, imaging.Lanczos)
		}
	case o.ResizeWidth > 0 && o.ResizeHeight > 0:
		img = imaging.Resize(img, o.ResizeWidth, o.ResizeHeight, imaging.Lanczos)
	}

	if o.Rotate != 0 {
		img = imaging.Rotate(img, o.Rotate, color.White)
	}

	switch o.Flip {
	case "horizontal":
		img = imaging.FlipH(img)
	case "vertical":
		img = imaging.FlipV(img)
	}

	if o.Filter != "" {
		img = applyFilter(img, o.Filter)
	}

	format, err := imaging.FormatFromFilename(output)
	if err != nil {
		c.log.Error("unsupported image output format",
			logger.String("output", output),
			logger.Error(err),
		)
		return false
	}

	// JPEG has no alpha channel: flatten onto white.
	if format == imaging.JPEG {
		bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}

	var encodeOpts []imaging.EncodeOption
	if o.Quality > 0 && o.Quality <= 100 {
		encodeOpts = append(encodeOpts, imaging.JPEGQuality(o.Quality))
	}

	if err := imaging.Save(img, output, encodeOpts...); err != nil {
		c.log.Error("failed to save image",
			logger.String("output", output),
			logger.Error(err),
		)
		return false
	}
	return true
}

func applyFilter(img image.Image, name string) *image.NRGBA {
	switch name {
	case "blur":
		return imaging.Blur(img, 2.5)
	case "sharpen":
		return imaging.Sharpen(img, 2.0)
	case "grayscale":
		return imaging.Grayscale(img)
	case "contour":
		return imaging.Convolve3x3(img, kernelContour, nil)
	case "detail":
		return imaging.Sharpen(img, 0.8)
	case "edge_enhance":
		return imaging.Convolve3x3(img, kernelEdgeEnhance, nil)
	case "emboss":
		return imaging.Convolve3x3(img, kernelEmboss, nil)
	}
	return imaging.Clone(img)
}

func (c *ImageConverter) Probe(ctx context.Context, input string) models.Metadata {
	meta := models.Metadata{}

	f, err := os.Open(input)
	if err != nil {
		c.log.Warn("failed to open image for probing",
			logger.String("input", input),
			logger.Error(err),
		)
		return meta
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		c.log.Warn("failed to decode image config",
			logger.String("input", input),
			logger.Error(err),
		)
		return meta
	}
	meta["width"] = cfg.Width
	meta["height"] = cfg.Height
	meta["format"] = format

	if strings.EqualFold(filepath.Ext(input), ".jpg") || strings.EqualFold(filepath.Ext(input), ".jpeg") ||
		strings.EqualFold(filepath.Ext(input), ".tif") || strings.EqualFold(filepath.Ext(input), ".tiff") {
		if _, err := f.Seek(0, 0); err == nil {
			if x, err := exif.Decode(f); err == nil {
				for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.Make, exif.Model, exif.Orientation} {
					if tag, err := x.Get(field); err == nil {
						meta[strings.ToLower(string(field))] = tag.String()
					}
				}
			}
		}
	}

	return meta
}
