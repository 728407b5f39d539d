package csvparse

import (
	"io"
	"strings"
)

// Escape quotes a field when it contains a comma, a quote or a line break,
// doubling embedded quotes. Other fields are returned unchanged.
func Escape(field string) string {
	if !strings.ContainsAny(field, ",\"\r\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Render formats rows as CSV text. Every row ends with '\n'.
func Render(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		writeRow(&b, row)
	}
	return b.String()
}

// Write renders rows to w.
func Write(w io.Writer, rows [][]string) error {
	_, err := io.WriteString(w, Render(rows))
	return err
}

func writeRow(b *strings.Builder, row []string) {
	for i, field := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(field))
	}
	b.WriteByte('\n')
}
