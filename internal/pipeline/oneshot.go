package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"padronizador/internal"
)

// LoadTableFromFile reads a local xlsx or csv file.
func LoadTableFromFile(path string, opts LoadOptions) (internal.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.Table{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return LoadTable(filepath.Base(path), blob, opts)
}
