package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"padronizador/internal"
	"padronizador/internal/config"
	"padronizador/internal/logging"
)

// Request carries everything one normalization needs. Nothing is kept
// between requests.
type Request struct {
	FileName string
	Content  []byte
	Sheet    string
	// Column is the target column. Empty means the suggested column.
	Column string
}

type Result struct {
	Original   internal.Table
	Normalized internal.Table
	Outcomes   []internal.CellOutcome
	Summary    internal.RunSummary
}

type ProcessingService struct {
	cfg config.Config
	log logging.Logger
}

func NewProcessingService(cfg config.Config, log logging.Logger) *ProcessingService {
	if log == nil {
		log = logging.Nop()
	}
	return &ProcessingService{cfg: cfg, log: log}
}

// Load parses the request file without transforming it.
func (s *ProcessingService) Load(ctx context.Context, req Request) (internal.Table, error) {
	if err := ctx.Err(); err != nil {
		return internal.Table{}, err
	}
	table, err := LoadTable(req.FileName, req.Content, LoadOptions{Sheet: req.Sheet})
	if err != nil {
		s.log.Warn("load failed", "file", req.FileName, "error", err)
		return internal.Table{}, err
	}
	return table, nil
}

func (s *ProcessingService) Process(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	traceID := uuid.NewString()

	original, err := s.Load(ctx, req)
	if err != nil {
		return Result{}, err
	}

	column := req.Column
	if strings.TrimSpace(column) == "" {
		column = SuggestColumn(original.Columns).Name
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	normalized, outcomes, err := TransformColumnWithReport(original, column)
	if err != nil {
		s.log.Warn("transform failed", "trace_id", traceID, "file", req.FileName, "column", column, "error", err)
		return Result{}, err
	}

	summary := Summarize(original, normalized, column, outcomes, s.cfg.SampleRows)
	summary.TraceID = traceID
	summary.FileName = req.FileName
	summary.DurationMs = time.Since(start).Milliseconds()

	s.log.Info("column normalized",
		"trace_id", traceID,
		"file", req.FileName,
		"column", column,
		"rows", summary.Rows,
		"changed", summary.Changed,
		"blank", summary.BlankPreserved,
		"exception", summary.ExceptionPreserved,
		"emptied", summary.EmptiedByFilter,
		"duration_ms", summary.DurationMs,
	)

	return Result{Original: original, Normalized: normalized, Outcomes: outcomes, Summary: summary}, nil
}

// Export renders the normalized table as the downloadable workbook.
func (s *ProcessingService) Export(result Result) ([]byte, error) {
	blob, err := ExportTable(result.Normalized, s.cfg.ExportSheetName)
	if err != nil {
		s.log.Error("export failed", "trace_id", result.Summary.TraceID, "error", err)
		return nil, err
	}
	return blob, nil
}
