package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrLoad              = errors.New("could not read the file")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format (expected .xlsx or .csv)", ErrLoad)
	ErrMissingColumn     = errors.New("column not found")
)
