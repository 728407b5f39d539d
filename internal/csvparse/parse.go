// Package csvparse reads and writes the comma-separated exports used by the
// conversation review tools.
//
// The reader is deliberately lenient: a double quote toggles quoted mode
// anywhere in a field, so exports with stray quotes still parse into rows
// instead of failing. Rows are never validated here; callers drop rows that do
// not fit their schema.
package csvparse

import (
	"io"
	"strings"
)

// Parse splits text into rows of fields.
//
// Inside quotes, commas and newlines are literal and "" is an escaped quote.
// Outside quotes, ',' ends a field, '\n' ends a row and a '\r' directly before
// '\n' is dropped. A blank line yields a row with one empty field. A final row
// without a trailing newline is still emitted.
func Parse(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case c == '"' && inQuotes && i+1 < len(text) && text[i+1] == '"':
			field.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			row = append(row, field.String())
			field.Reset()
		case c == '\n' && !inQuotes:
			row = append(row, field.String())
			field.Reset()
			rows = append(rows, row)
			row = nil
		case c == '\r' && !inQuotes && i+1 < len(text) && text[i+1] == '\n':
			continue
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		rows = append(rows, row)
	}

	return rows
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}
