// Package parse classifies and parses heterogeneous input documents into
// a uniform row representation. Three formats are recognized: a JSON
// array of objects, a delimited table with a header row, and
// section/key-value configuration. Classification failures and malformed
// documents produce descriptive errors; there is no silent misparse.
//
// The package is a stateless collaborator of the pipeline: callers use
// parsed rows to seed record payloads.
package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pelletier/go-toml/v2"
)

// Format identifies the recognized document formats.
type Format int

const (
	FormatUnknown Format = iota
	FormatObjects        // JSON array of objects
	FormatTable          // delimited table with header row
	FormatConfig         // section/key-value configuration
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatObjects:
		return "objects"
	case FormatTable:
		return "table"
	case FormatConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ErrUnknownFormat means the content matched none of the recognized
// formats.
var ErrUnknownFormat = errors.New("unrecognized document format")

// RowError reports a tabular row whose field count disagrees with the
// header.
type RowError struct {
	Row  int // 1-based data row number, excluding the header
	Want int
	Got  int
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("row %d has %d fields, header has %d", e.Row, e.Got, e.Want)
}

// Document is the uniform result of parsing: one map per logical row.
type Document struct {
	Format Format
	Rows   []map[string]any
}

// Parse classifies content as one of the recognized formats and parses
// it. Gzip-compressed input is decompressed first; non-UTF-8 input is
// rejected with the detected charset named.
func Parse(content []byte) (*Document, error) {
	text, err := decode(content)
	if err != nil {
		return nil, err
	}

	switch classify(text) {
	case FormatObjects:
		return parseObjects(text)
	case FormatConfig:
		return parseConfig(text)
	case FormatTable:
		return parseTable(text)
	default:
		return nil, ErrUnknownFormat
	}
}

// parseObjects decodes a JSON array of objects.
func parseObjects(content []byte) (*Document, error) {
	var rows []map[string]any
	if err := sonic.Unmarshal(content, &rows); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return &Document{Format: FormatObjects, Rows: rows}, nil
}

// parseConfig decodes section/key-value configuration. Top-level bare
// keys become one unnamed row; each section becomes a row carrying its
// section name under the "section" key.
func parseConfig(content []byte) (*Document, error) {
	var tree map[string]any
	if err := toml.Unmarshal(content, &tree); err != nil {
		return nil, fmt.Errorf("config parse error: %w", err)
	}

	doc := &Document{Format: FormatConfig}
	bare := map[string]any{}
	for key, val := range tree {
		section, ok := val.(map[string]any)
		if !ok {
			bare[key] = val
			continue
		}
		row := map[string]any{"section": key}
		for k, v := range section {
			row[k] = v
		}
		doc.Rows = append(doc.Rows, row)
	}
	if len(bare) > 0 {
		doc.Rows = append(doc.Rows, bare)
	}
	return doc, nil
}

// parseTable decodes a delimited table. The first row is the header;
// every data row must match its field count exactly.
func parseTable(content []byte) (*Document, error) {
	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.Comma = detectDelimiter(string(content))
	reader.FieldsPerRecord = -1 // validated below for exact diagnostics
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table parse error: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("table has no header row")
	}

	header := records[0]
	doc := &Document{Format: FormatTable}
	for i, fields := range records[1:] {
		if len(fields) != len(header) {
			return nil, &RowError{Row: i + 1, Want: len(header), Got: len(fields)}
		}
		row := make(map[string]any, len(header))
		for j, name := range header {
			row[name] = fields[j]
		}
		doc.Rows = append(doc.Rows, row)
	}
	return doc, nil
}
