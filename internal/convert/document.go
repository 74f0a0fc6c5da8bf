package convert

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/avallone/convertd/internal/models"
	"github.com/avallone/convertd/pkg/logger"
)

// DocumentConverter handles document conversions. PDF extraction, the plain
// text family (txt/md/html) and the structured family (csv/json/xml) run
// in-process; everything else falls back to pandoc.
type DocumentConverter struct {
	log    logger.Logger
	tools  Tools
	pandoc bool // pandoc binary resolved at construction
}

func NewDocumentConverter(log logger.Logger, tools Tools) *DocumentConverter {
	c := &DocumentConverter{log: log.Named("document"), tools: tools}
	if _, err := exec.LookPath(tools.Pandoc); err == nil {
		c.pandoc = true
	} else {
		log.Warn("pandoc not found, office and e-book conversions disabled",
			logger.String("pandoc", tools.Pandoc),
		)
	}
	return c
}

// Format families. The supported-format lists below are built from these same
// sets, so the advertised catalog always matches what Convert dispatches on.
var (
	textFamily       = map[string]bool{"txt": true, "md": true, "markdown": true, "html": true, "htm": true}
	structuredFamily = map[string]bool{"csv": true, "json": true, "xml": true}
	officeFamily     = map[string]bool{"docx": true, "odt": true, "rtf": true}
	pandocExtraIn    = []string{"docx", "odt", "rtf", "epub", "tex", "org", "rst"}
	pandocExtraOut   = []string{"pdf", "docx", "odt", "rtf", "epub", "tex", "org", "rst", "adoc"}
)

func (c *DocumentConverter) SupportedInputFormats() []string {
	formats := []string{"pdf", "txt", "md", "markdown", "html", "htm", "csv", "json", "xml"}
	if c.pandoc {
		formats = append(formats, pandocExtraIn...)
	}
	return formats
}

func (c *DocumentConverter) SupportedOutputFormats() []string {
	formats := []string{"txt", "md", "markdown", "html", "csv", "json", "xml"}
	if c.pandoc {
		formats = append(formats, pandocExtraOut...)
	}
	return formats
}

func (c *DocumentConverter) Convert(ctx context.Context, input, output string, opts models.Options) bool {
	src := formatOf(input)
	dst := formatOf(output)

	switch {
	case src == "pdf" && textFamily[dst]:
		return c.extractPDF(input, output, dst, opts.Document)

	case dst == "pdf":
		return c.convertWithPandoc(ctx, input, output, opts.Document)

	case officeFamily[src] && officeFamily[dst]:
		return c.convertWithPandoc(ctx, input, output, opts.Document)

	case structuredFamily[src] && structuredFamily[dst]:
		return c.convertStructured(input, output, src, dst)

	case textFamily[src] && textFamily[dst]:
		return c.convertText(input, output, src, dst)

	default:
		return c.convertWithPandoc(ctx, input, output, opts.Document)
	}
}

// extractPDF pulls the plain text out of a PDF and renders it as txt,
// markdown or HTML.
func (c *DocumentConverter) extractPDF(input, output, dst string, o models.DocumentOptions) bool {
	f, err := os.Open(input)
	if err != nil {
		c.log.Error("failed to open pdf", logger.String("input", input), logger.Error(err))
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		c.log.Error("failed to stat pdf", logger.String("input", input), logger.Error(err))
		return false
	}

	var reader *pdf.Reader
	if o.EncryptedPDF {
		reader, err = pdf.NewReaderEncrypted(f, st.Size(), func() string { return o.Password })
	} else {
		reader, err = pdf.NewReader(f, st.Size())
	}
	if err != nil {
		c.log.Error("failed to read pdf", logger.String("input", input), logger.Error(err))
		return false
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		c.log.Error("failed to extract pdf text", logger.String("input", input), logger.Error(err))
		return false
	}
	raw, err := io.ReadAll(textReader)
	if err != nil {
		c.log.Error("failed to read pdf text", logger.String("input", input), logger.Error(err))
		return false
	}

	var content string
	switch dst {
	case "md", "markdown":
		content = "# Converted document\n\n" + string(raw)
	case "html":
		content = "<html><body><pre>" + html.EscapeString(string(raw)) + "</pre></body></html>"
	default:
		content = string(raw)
	}

	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		c.log.Error("failed to write output", logger.String("output", output), logger.Error(err))
		return false
	}
	return true
}

// convertWithPandoc shells out to pandoc for conversions with no in-process
// path: office formats, e-books and anything producing PDF.
func (c *DocumentConverter) convertWithPandoc(ctx context.Context, input, output string, o models.DocumentOptions) bool {
	if !c.pandoc {
		c.log.Warn("conversion requires pandoc",
			logger.String("input", input),
			logger.String("output", output),
		)
		return false
	}

	args := []string{input, "-o", output}

	if o.PreserveMetadata {
		args = append(args, "--standalone")
	}
	if o.PaperSize != "" {
		args = append(args, "-V", "papersize="+o.PaperSize)
	}
	if o.Font != "" {
		args = append(args, "-V", "mainfont="+o.Font)
	}
	if o.FontSize > 0 {
		args = append(args, "-V", "fontsize="+strconv.Itoa(o.FontSize)+"pt")
	}
	if o.Template != "" {
		args = append(args, "--template", o.Template)
	}
	if o.TOC {
		args = append(args, "--toc")
	}
	for _, side := range []string{"top", "right", "bottom", "left"} {
		if mm, ok := o.Margins[side]; ok {
			args = append(args, "-V", fmt.Sprintf("margin-%s=%dmm", side, mm))
		}
	}

	cmd := exec.CommandContext(ctx, c.tools.Pandoc, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.log.Error("pandoc failed",
			logger.Strings("args", args),
			logger.String("stderr", tail(stderr.String(), 2048)),
			logger.Error(err),
		)
		return false
	}
	return true
}

func (c *DocumentConverter) Probe(ctx context.Context, input string) models.Metadata {
	meta := models.Metadata{}
	format := formatOf(input)
	meta["format"] = format

	if st, err := os.Stat(input); err == nil {
		meta["size"] = st.Size()
		meta["modified"] = st.ModTime().Unix()
	}

	if format == "pdf" {
		f, reader, err := pdf.Open(input)
		if err != nil {
			// NewReader refuses encrypted files without a password.
			if strings.Contains(err.Error(), "encrypted") {
				meta["encrypted"] = true
			} else {
				c.log.Warn("failed to probe pdf", logger.String("input", input), logger.Error(err))
			}
			return meta
		}
		defer f.Close()
		meta["pages"] = reader.NumPage()
		meta["encrypted"] = false
	}

	return meta
}

// formatOf returns the lowercase extension without the dot.
func formatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
