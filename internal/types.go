package internal

// Row maps a column name to its cell value. A cell is nil when the source
// cell was empty, otherwise a string or another scalar read from the source.
type Row map[string]any

// Table is an ordered set of rows sharing the same column set. Columns keeps
// the header order of the source so exports reproduce it.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

func (t Table) Len() int {
	return len(t.Rows)
}

// Head returns a table holding at most n leading rows. Rows are shared with t.
func (t Table) Head(n int) Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Column returns the values of one column in row order.
func (t Table) Column(name string) []any {
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[name])
	}
	return out
}

type SourceFormat string

const (
	FormatXLSX SourceFormat = "xlsx"
	FormatCSV  SourceFormat = "csv"
)

type CellOutcome string

const (
	OutcomeBlank      CellOutcome = "blank"
	OutcomeException  CellOutcome = "exception"
	OutcomeNormalized CellOutcome = "normalized"
	OutcomeEmptied    CellOutcome = "emptied"
)

type LengthStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

type CellSample struct {
	Row      int    `json:"row"`
	Original string `json:"original"`
	Result   string `json:"result"`
}

type RunSummary struct {
	TraceID            string       `json:"traceId"`
	FileName           string       `json:"fileName"`
	Column             string       `json:"column"`
	Rows               int          `json:"rows"`
	Changed            int          `json:"changed"`
	BlankPreserved     int          `json:"blankPreserved"`
	ExceptionPreserved int          `json:"exceptionPreserved"`
	EmptiedByFilter    int          `json:"emptiedByFilter"`
	Normalized         int          `json:"normalized"`
	NameLength         LengthStats  `json:"nameLength"`
	Samples            []CellSample `json:"samples"`
	DurationMs         int64        `json:"durationMs"`
}
