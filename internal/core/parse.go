package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseOptions controls header validation.
type ParseOptions struct {
	// RequiredHeaders must all appear in the header row.
	RequiredHeaders []string
}

// ParseFile reads the CSV at path and parses it with Parse. Open and read
// failures are returned as *FileReadError.
func ParseFile(path string, opts ParseOptions) ([]FlatRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return Parse(bytes.NewReader(data), opts)
}

// Parse splits CSV text into flat records.
//
// The first non-blank line is the header. Every later line is split on
// commas and zipped with the headers by position; headers and values are
// trimmed. Quoting is not supported, so a comma always separates fields.
// Blank lines produce no record, missing trailing fields are left out of the
// record and fields beyond the header are ignored.
func Parse(r io.Reader, opts ParseOptions) ([]FlatRecord, error) {
	// Strips a leading BOM and replaces invalid UTF-8 with U+FFFD.
	decoded := transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &ParseError{Msg: "empty file: no header row"}
	}

	headers := splitTrimmed(lines[headerIdx])
	if missing := missingHeaders(headers, opts.RequiredHeaders); len(missing) > 0 {
		return nil, &ParseError{
			Line: headerIdx + 1,
			Msg:  "missing required column(s): " + strings.Join(missing, ", "),
		}
	}

	var records []FlatRecord
	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		values := splitTrimmed(line)
		n := min(len(headers), len(values))

		record := make(FlatRecord, n)
		for i := 0; i < n; i++ {
			record[i] = Field{Key: headers[i], Value: values[i]}
		}
		records = append(records, record)
	}

	return records, nil
}

func splitTrimmed(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func missingHeaders(headers, required []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var missing []string
	for _, req := range required {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	return missing
}
