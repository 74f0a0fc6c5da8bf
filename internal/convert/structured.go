package convert

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/avallone/convertd/pkg/logger"
)

// convertStructured handles the structured data family (csv, json, xml).
// Every conversion pivots through an in-memory JSON representation, and all
// emitted output is deterministic: CSV columns and XML elements derived from
// maps are ordered by sorted key.
func (c *DocumentConverter) convertStructured(input, output, src, dst string) bool {
	raw, err := os.ReadFile(input)
	if err != nil {
		c.log.Error("failed to read input", logger.String("input", input), logger.Error(err))
		return false
	}

	var result []byte
	switch src + ">" + dst {
	case "csv>json":
		result, err = csvToJSON(raw)
	case "json>csv":
		result, err = jsonToCSV(raw)
	case "xml>json":
		result, err = xmlToJSON(raw)
	case "json>xml":
		result, err = jsonToXML(raw)
	case "csv>xml":
		if result, err = csvToJSON(raw); err == nil {
			result, err = jsonToXML(result)
		}
	case "xml>csv":
		if result, err = xmlToJSON(raw); err == nil {
			result, err = jsonToCSV(result)
		}
	case "csv>csv", "json>json", "xml>xml":
		result = raw
	default:
		c.log.Warn("unsupported structured conversion",
			logger.String("source", src),
			logger.String("target", dst),
		)
		return false
	}
	if err != nil {
		c.log.Error("structured conversion failed",
			logger.String("source", src),
			logger.String("target", dst),
			logger.Error(err),
		)
		return false
	}

	if err := os.WriteFile(output, result, 0o644); err != nil {
		c.log.Error("failed to write output", logger.String("output", output), logger.Error(err))
		return false
	}
	return true
}

// csvToJSON turns a CSV file with a header row into a JSON array of objects.
func csvToJSON(data []byte) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return json.MarshalIndent([]any{}, "", "  ")
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return json.MarshalIndent(rows, "", "  ")
}

// jsonToCSV turns a JSON array of objects into CSV. The header is the sorted
// union of all keys seen across the rows.
func jsonToCSV(data []byte) ([]byte, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("csv output requires a json array of objects: %w", err)
	}

	seen := map[string]bool{}
	var header []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				header = append(header, key)
			}
		}
	}
	sort.Strings(header)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, name := range header {
			if value, ok := row[name]; ok && value != nil {
				record[i] = scalarString(value)
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// xmlNode is the generic decoding target for arbitrary XML documents.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

// xmlToJSON maps an XML document onto JSON. Attributes land under
// "@attributes", text content under "#text" when a node also has children,
// and repeated sibling tags collapse into arrays.
func xmlToJSON(data []byte) ([]byte, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	doc := map[string]any{root.XMLName.Local: nodeToValue(root)}
	return json.MarshalIndent(doc, "", "  ")
}

func nodeToValue(node xmlNode) any {
	text := strings.TrimSpace(node.Content)
	if len(node.Attrs) == 0 && len(node.Nodes) == 0 {
		return text
	}

	obj := map[string]any{}
	if len(node.Attrs) > 0 {
		attrs := map[string]any{}
		for _, attr := range node.Attrs {
			attrs[attr.Name.Local] = attr.Value
		}
		obj["@attributes"] = attrs
	}
	for _, child := range node.Nodes {
		value := nodeToValue(child)
		name := child.XMLName.Local
		switch existing := obj[name].(type) {
		case nil:
			obj[name] = value
		case []any:
			obj[name] = append(existing, value)
		default:
			obj[name] = []any{existing, value}
		}
	}
	if text != "" {
		obj["#text"] = text
	}
	return obj
}

// jsonToXML renders arbitrary JSON as XML. A top-level object with a single
// key uses that key as the root element, anything else is wrapped in <root>.
func jsonToXML(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	rootName := "root"
	if obj, ok := doc.(map[string]any); ok && len(obj) == 1 {
		for key, value := range obj {
			rootName = key
			doc = value
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeXMLValue(&buf, rootName, doc, 0)
	return buf.Bytes(), nil
}

func writeXMLValue(buf *bytes.Buffer, name string, value any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := value.(type) {
	case map[string]any:
		fmt.Fprintf(buf, "%s<%s>\n", indent, name)
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writeXMLValue(buf, key, v[key], depth+1)
		}
		fmt.Fprintf(buf, "%s</%s>\n", indent, name)
	case []any:
		for _, item := range v {
			writeXMLValue(buf, name, item, depth)
		}
	default:
		var text string
		if v != nil {
			text = scalarString(v)
		}
		fmt.Fprintf(buf, "%s<%s>%s</%s>\n", indent, name, xmlEscape(text), name)
	}
}

// scalarString renders a decoded JSON scalar, trimming the trailing ".0" that
// %v would print for whole-number floats.
func scalarString(value any) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
