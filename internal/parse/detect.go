package parse

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/saintfish/chardet"
)

// decode normalizes raw content to UTF-8 text: gzip-compressed input is
// transparently decompressed, and non-UTF-8 text is rejected with the
// detected charset named rather than misparsed.
func decode(content []byte) ([]byte, error) {
	if mimetype.Detect(content).Is("application/gzip") {
		zr, err := gzip.NewReader(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("gzip content unreadable: %w", err)
		}
		defer zr.Close()
		content, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip decompression failed: %w", err)
		}
	}

	if !utf8.Valid(content) {
		charset := "unknown"
		if res, err := chardet.NewTextDetector().DetectBest(content); err == nil {
			charset = res.Charset
		}
		return nil, fmt.Errorf("content is not valid UTF-8 (detected charset %s)", charset)
	}
	return content, nil
}

// classify guesses the document format from its shape. It only picks a
// candidate; the actual parser still validates and reports errors.
func classify(content []byte) Format {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return FormatUnknown
	}

	if text[0] == '{' {
		return FormatObjects
	}
	if text[0] == '[' {
		// Either a JSON array or a section header: arrays open into a
		// value (or close immediately), section headers into a bare name.
		rest := strings.TrimSpace(text[1:])
		if rest == "" {
			return FormatUnknown
		}
		switch {
		case rest[0] == '{' || rest[0] == '[' || rest[0] == '"' || rest[0] == ']',
			rest[0] == '-' || (rest[0] >= '0' && rest[0] <= '9'):
			return FormatObjects
		default:
			return FormatConfig
		}
	}

	if looksLikeConfig(text) {
		return FormatConfig
	}
	if detectDelimiter(text) != 0 {
		return FormatTable
	}
	return FormatUnknown
}

// looksLikeConfig reports whether the text resembles section/key-value
// configuration: key=value lines, optionally under [section] headers.
func looksLikeConfig(text string) bool {
	kv := 0
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			kv++
			continue
		}
		if strings.Contains(line, "=") {
			kv++
		}
	}
	return lines > 0 && kv == lines
}

// detectDelimiter picks the delimiter splitting the header line into the
// most fields, or 0 when no candidate appears.
func detectDelimiter(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	best := rune(0)
	bestCount := 0
	for _, d := range []rune{',', '\t', ';', '|'} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
