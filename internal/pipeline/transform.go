package pipeline

import (
	"fmt"

	"padronizador/internal"
)

// TransformColumn returns a copy of table whose column cells are replaced by
// their normalized form. Every other cell, the row order and the row count
// are left as they were; table itself is not modified.
func TransformColumn(table internal.Table, column string) (internal.Table, error) {
	out, _, err := TransformColumnWithReport(table, column)
	return out, err
}

// TransformColumnWithReport is TransformColumn plus the outcome of each row,
// indexed like table.Rows.
func TransformColumnWithReport(table internal.Table, column string) (internal.Table, []internal.CellOutcome, error) {
	if !table.HasColumn(column) {
		return internal.Table{}, nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}

	columns := make([]string, len(table.Columns))
	copy(columns, table.Columns)

	rows := make([]internal.Row, 0, len(table.Rows))
	outcomes := make([]internal.CellOutcome, 0, len(table.Rows))
	for _, src := range table.Rows {
		row := make(internal.Row, len(src))
		for k, v := range src {
			row[k] = v
		}
		value, outcome := defaultNormalizer.NormalizeCell(src[column])
		row[column] = value
		rows = append(rows, row)
		outcomes = append(outcomes, outcome)
	}

	return internal.Table{Columns: columns, Rows: rows}, outcomes, nil
}
