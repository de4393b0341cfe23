package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"padronizador/internal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type LoadOptions struct {
	// Sheet selects the worksheet of an xlsx source. Empty means the first.
	Sheet string
}

// LoadTable parses an uploaded spreadsheet or CSV file. It returns either a
// complete table or an error wrapping ErrLoad, never a partial table.
func LoadTable(name string, content []byte, opts LoadOptions) (internal.Table, error) {
	if len(content) == 0 {
		return internal.Table{}, fmt.Errorf("%w: %s is empty", ErrLoad, name)
	}
	format, err := DetectFormat(name, content)
	if err != nil {
		return internal.Table{}, err
	}

	switch format {
	case internal.FormatCSV:
		return parseCSV(content)
	case internal.FormatXLSX:
		return parseXLSX(content, opts.Sheet)
	default:
		return internal.Table{}, ErrUnsupportedFormat
	}
}

func parseCSV(content []byte) (internal.Table, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
		if err != nil {
			return internal.Table{}, fmt.Errorf("%w: decode csv: %w", ErrLoad, err)
		}
		content = decoded
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return internal.Table{}, fmt.Errorf("%w: read csv: %w", ErrLoad, err)
	}
	return buildTable(records)
}

func parseXLSX(content []byte, sheet string) (internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.Table{}, fmt.Errorf("%w: open xlsx: %w", ErrLoad, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return internal.Table{}, fmt.Errorf("%w: workbook has no sheets", ErrLoad)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return internal.Table{}, fmt.Errorf("%w: sheet %q not found", ErrLoad, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return internal.Table{}, fmt.Errorf("%w: read sheet %q: %w", ErrLoad, sheet, err)
	}
	return buildTable(rows)
}

// buildTable turns raw records into a Table using the first non-blank record
// as the header. Blank records are dropped, empty header cells become
// "Unnamed: <i>", repeated names get a ".<n>" suffix, and short records are
// padded with nil cells.
func buildTable(records [][]string) (internal.Table, error) {
	records = dropBlankRecords(records)
	if len(records) == 0 {
		return internal.Table{}, fmt.Errorf("%w: no header row", ErrLoad)
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	if width == 0 {
		return internal.Table{}, fmt.Errorf("%w: no columns", ErrLoad)
	}

	columns := headerNames(records[0], width)
	rows := make([]internal.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(internal.Row, len(columns))
		for i, name := range columns {
			if i < len(rec) && rec[i] != "" {
				row[name] = rec[i]
			} else {
				row[name] = nil
			}
		}
		rows = append(rows, row)
	}

	return internal.Table{Columns: columns, Rows: rows}, nil
}

func dropBlankRecords(records [][]string) [][]string {
	out := make([][]string, 0, len(records))
	for _, rec := range records {
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

func headerNames(header []string, width int) []string {
	seen := map[string]int{}
	out := make([]string, 0, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			if _, dup := seen[name]; !dup {
				break
			}
			seen[base]++
			name = fmt.Sprintf("%s.%d", base, seen[base])
		}
		seen[name] = 0
		out = append(out, name)
	}
	return out
}
