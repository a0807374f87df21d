package codec

import (
	"strings"

	"github.com/madcok-co/bridgekit/pkg/value"
)

// DecodeCSV parses a comma-separated payload into an array of row
// objects keyed by the header row. The first line is always the header.
// Cells are trimmed of surrounding whitespace and quotes; blank lines
// are skipped; rows shorter than the header get null for the missing
// trailing fields instead of failing.
func DecodeCSV(data []byte) (value.Value, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return value.Array(), nil
	}

	headers := splitCSVLine(lines[0])
	rows := make([]value.Value, 0, len(lines)-1)

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitCSVLine(line)
		row := value.Object()
		for i, h := range headers {
			if i < len(cells) {
				row.Set(h, value.String(cells[i]))
			} else {
				row.Set(h, value.Null())
			}
		}
		rows = append(rows, row)
	}

	return value.Array(rows...), nil
}

// EncodeCSV serializes an array of records. The header row comes from
// the first record's own field names, not a configured schema. An empty
// array encodes to an empty string, not a header-only output.
func EncodeCSV(v value.Value) ([]byte, error) {
	if v.Kind() != value.KindArray || v.Len() == 0 {
		return []byte(""), nil
	}

	headers := v.Index(0).Keys()

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteCSVCell(h))
	}

	for _, row := range v.Items() {
		b.WriteByte('\n')
		for i, h := range headers {
			if i > 0 {
				b.WriteByte(',')
			}
			cell, _ := row.Get(h)
			b.WriteString(quoteCSVCell(value.CoerceString(cell)))
		}
	}

	return []byte(b.String()), nil
}

// splitCSVLine splits on commas with minimal quote awareness: a cell
// wrapped in double quotes may contain commas, and doubled quotes
// unescape to one.
func splitCSVLine(line string) []string {
	var cells []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

// quoteCSVCell quotes a cell only when it needs it.
func quoteCSVCell(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
