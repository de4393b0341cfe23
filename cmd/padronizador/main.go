package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"padronizador/internal"
	"padronizador/internal/config"
	"padronizador/internal/logging"
	"padronizador/internal/pipeline"
	"padronizador/internal/util"
	"padronizador/internal/web"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "columns":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input xlsx or csv path")
		sheet := fs.String("sheet", "", "sheet name (xlsx only)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		table, err := pipeline.LoadTableFromFile(*input, pipeline.LoadOptions{Sheet: *sheet})
		must(err)
		suggestion := pipeline.SuggestColumn(table.Columns)
		for i, col := range table.Columns {
			marker := " "
			if i == suggestion.Index {
				marker = "*"
			}
			fmt.Printf("%s %d %s\n", marker, i, col)
		}
		if suggestion.FewColumns {
			fmt.Println("warning: fewer than 3 columns, check the suggested column")
		}
	case "preview":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input xlsx or csv path")
		sheet := fs.String("sheet", "", "sheet name (xlsx only)")
		rows := fs.Int("rows", cfg.PreviewRows, "rows to print")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		table, err := pipeline.LoadTableFromFile(*input, pipeline.LoadOptions{Sheet: *sheet})
		must(err)
		fmt.Printf("rows=%d columns=%d\n", table.Len(), len(table.Columns))
		printTable(table.Head(*rows))
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input xlsx or csv path")
		column := fs.String("column", "", "column holding the names (default: suggested column)")
		sheet := fs.String("sheet", "", "sheet name (xlsx only)")
		output := fs.String("output", "", "output xlsx path (default: OUTPUT_DIR/EXPORT_FILE_NAME)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		out := *output
		if strings.TrimSpace(out) == "" {
			out = filepath.Join(cfg.OutputDir, cfg.ExportFileName)
		}

		log := cliLogger(cfg)
		summary, err := runFile(context.Background(), cfg, log, *input, *sheet, *column, out)
		closeErr := log.Close()
		must(err)
		must(closeErr)

		fmt.Printf("run done column=%s rows=%d changed=%d blank=%d exception=%d emptied=%d output=%s\n",
			summary.Column, summary.Rows, summary.Changed, summary.BlankPreserved, summary.ExceptionPreserved, summary.EmptiedByFilter, out)
		for _, sample := range summary.Samples {
			fmt.Printf("  %d: %q -> %q\n", sample.Row, sample.Original, sample.Result)
		}
	case "rules":
		for i, name := range pipeline.DefaultRules().Names() {
			fmt.Printf("%d. %s\n", i+1, name)
		}
	case "serve":
		must(serve(cfg))
	default:
		usage()
		os.Exit(1)
	}
}

// runFile normalizes one local file into out. Errors are returned so the
// caller can flush the logger before exiting.
func runFile(ctx context.Context, cfg config.Config, log logging.Logger, input, sheet, column, out string) (internal.RunSummary, error) {
	content, err := os.ReadFile(input)
	if err != nil {
		log.Warn("read failed", "file", input, "error", err)
		return internal.RunSummary{}, err
	}

	svc := pipeline.NewProcessingService(cfg, log)
	result, err := svc.Process(ctx, pipeline.Request{
		FileName: filepath.Base(input),
		Content:  content,
		Sheet:    sheet,
		Column:   column,
	})
	if err != nil {
		return internal.RunSummary{}, err
	}
	if err := pipeline.ExportTableToFile(result.Normalized, cfg.ExportSheetName, out); err != nil {
		log.Error("export failed", "trace_id", result.Summary.TraceID, "output", out, "error", err)
		return internal.RunSummary{}, err
	}
	return result.Summary, nil
}

func serve(cfg config.Config) error {
	log, err := logging.New(logging.Options{File: cfg.LogFile, JSON: cfg.LogJSON})
	if err != nil {
		return err
	}
	defer log.Close()

	srv, err := web.NewServer(cfg, log)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return srv.Run(ctx)
}

// cliLogger keeps stdout for command output unless LOG_FILE is set.
func cliLogger(cfg config.Config) logging.Logger {
	if cfg.LogFile == "" {
		return logging.Nop()
	}
	log, err := logging.New(logging.Options{File: cfg.LogFile, JSON: cfg.LogJSON})
	must(err)
	return log
}

func printTable(table internal.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		cells := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			if v := row[col]; !util.IsNull(v) {
				cells[i] = util.CoerceText(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

func usage() {
	fmt.Println("usage: padronizador <command>")
	fmt.Println("commands:")
	fmt.Println("  columns --input=FILE [--sheet=S]")
	fmt.Println("  preview --input=FILE [--sheet=S] [--rows=10]")
	fmt.Println("  run --input=FILE [--column=NAME] [--sheet=S] [--output=OUT.xlsx]")
	fmt.Println("  rules")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
