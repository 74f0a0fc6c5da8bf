package convert

import (
	"bytes"
	"html"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"

	"github.com/avallone/convertd/pkg/logger"
)

// convertText handles the plain text family (txt, md, html) entirely
// in-process.
func (c *DocumentConverter) convertText(input, output, src, dst string) bool {
	raw, err := os.ReadFile(input)
	if err != nil {
		c.log.Error("failed to read input", logger.String("input", input), logger.Error(err))
		return false
	}
	content := string(raw)

	if src == "markdown" {
		src = "md"
	}
	if src == "htm" {
		src = "html"
	}
	if dst == "markdown" {
		dst = "md"
	}
	if dst == "htm" {
		dst = "html"
	}

	var result string
	switch {
	case src == dst:
		result = content

	case src == "md" && dst == "html":
		result, err = markdownToHTML(raw)

	case src == "html" && dst == "md":
		result, err = htmlToMarkdown(content)

	case src == "html" && dst == "txt":
		result, err = htmlToText(content)

	case src == "md" && dst == "txt":
		var rendered string
		rendered, err = markdownToHTML(raw)
		if err == nil {
			result, err = htmlToText(rendered)
		}

	case src == "txt" && dst == "html":
		result = "<html><body><pre>" + html.EscapeString(content) + "</pre></body></html>"

	case src == "txt" && dst == "md":
		result = textToMarkdown(content)

	default:
		c.log.Warn("unsupported text conversion",
			logger.String("source", src),
			logger.String("target", dst),
		)
		return false
	}
	if err != nil {
		c.log.Error("text conversion failed",
			logger.String("source", src),
			logger.String("target", dst),
			logger.Error(err),
		)
		return false
	}

	if err := os.WriteFile(output, []byte(result), 0o644); err != nil {
		c.log.Error("failed to write output", logger.String("output", output), logger.Error(err))
		return false
	}
	return true
}

func markdownToHTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func htmlToMarkdown(content string) (string, error) {
	conv := md.NewConverter("", true, nil)
	return conv.ConvertString(content)
}

func htmlToText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Text()), nil
}

// textToMarkdown promotes the first non-empty line to a heading and keeps the
// rest verbatim.
func textToMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines[i] = "# " + line
		break
	}
	return strings.Join(lines, "\n")
}
