package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"padronizador/internal"
)

const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DetectFormat picks the loader for an upload. The file extension decides
// when it is known; otherwise the content is sniffed.
func DetectFormat(name string, content []byte) (internal.SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".xlsx", ".xlsm":
		return internal.FormatXLSX, nil
	case ".csv":
		return internal.FormatCSV, nil
	case ".xls", ".ods", ".pdf", ".json":
		return "", ErrUnsupportedFormat
	}

	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		switch {
		case m.Is(XLSXMimeType):
			return internal.FormatXLSX, nil
		case m.Is("text/csv"), m.Is("text/plain"):
			return internal.FormatCSV, nil
		}
	}
	return "", ErrUnsupportedFormat
}

type ColumnSuggestion struct {
	Index int
	Name  string
	// FewColumns is set when the table has fewer than three columns, in which
	// case the first column is suggested instead of the third.
	FewColumns bool
}

// SuggestColumn proposes the column most likely to hold names: the third
// one when there are at least three, else the first.
func SuggestColumn(columns []string) ColumnSuggestion {
	if len(columns) == 0 {
		return ColumnSuggestion{Index: -1, FewColumns: true}
	}
	idx := 0
	if len(columns) >= 3 {
		idx = 2
	}
	return ColumnSuggestion{Index: idx, Name: columns[idx], FewColumns: len(columns) < 3}
}
