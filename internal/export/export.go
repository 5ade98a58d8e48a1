// Package export transforms in-memory records into downloadable CSV, JSON
// and Excel 2003 SpreadsheetML documents. All transforms are pure: records
// in, text out.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Column pairs a record key with its display label.
type Column struct {
	Key   string
	Label string
}

// Record is a single exportable row.
type Record map[string]any

// ToCSV renders records as CSV. Every field is quoted, rows are joined by
// a single newline and there is no trailing newline. Missing keys render as
// empty fields.
func ToCSV(records []Record, columns []Column) string {
	var b strings.Builder

	writeRow := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	writeRow(header)

	for _, rec := range records {
		b.WriteByte('\n')
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = stringify(rec[c.Key])
		}
		writeRow(row)
	}

	return b.String()
}

// ToJSON renders records as an indented JSON array restricted to the given
// columns, keyed by column label.
func ToJSON(records []Record, columns []Column) (string, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(columns))
		for _, c := range columns {
			row[c.Label] = rec[c.Key]
		}
		rows = append(rows, row)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling export rows: %w", err)
	}
	return string(out), nil
}

// ToExcelXML renders records as an Excel 2003 SpreadsheetML workbook with a
// single worksheet. Numeric values keep the Number cell type; everything
// else exports as String.
func ToExcelXML(records []Record, columns []Column, sheetName string) string {
	if sheetName == "" {
		sheetName = "Export"
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"` + "\n")
	b.WriteString(` xmlns:ss="urn:schemas-microsoft-com:office:spreadsheet">` + "\n")
	fmt.Fprintf(&b, ` <Worksheet ss:Name="%s">`+"\n", xmlEscape(sheetName))
	b.WriteString("  <Table>\n")

	b.WriteString("   <Row>\n")
	for _, c := range columns {
		fmt.Fprintf(&b, `    <Cell><Data ss:Type="String">%s</Data></Cell>`+"\n", xmlEscape(c.Label))
	}
	b.WriteString("   </Row>\n")

	for _, rec := range records {
		b.WriteString("   <Row>\n")
		for _, c := range columns {
			v := rec[c.Key]
			if isNumeric(v) {
				fmt.Fprintf(&b, `    <Cell><Data ss:Type="Number">%s</Data></Cell>`+"\n", stringify(v))
			} else {
				fmt.Fprintf(&b, `    <Cell><Data ss:Type="String">%s</Data></Cell>`+"\n", xmlEscape(stringify(v)))
			}
		}
		b.WriteString("   </Row>\n")
	}

	b.WriteString("  </Table>\n")
	b.WriteString(" </Worksheet>\n")
	b.WriteString("</Workbook>\n")
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		// Avoid exponent notation and trailing zeros for whole numbers.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
