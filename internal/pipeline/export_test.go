package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"padronizador/internal"
)

func TestExportTable(t *testing.T) {
	table := internal.Table{
		Columns: []string{"Processo", "Nome", "Vara"},
		Rows: []internal.Row{
			{"Processo": "0001", "Nome": "JOAO CESAR", "Vara": "1ª"},
			{"Processo": "0002", "Nome": "", "Vara": nil},
			{"Processo": "0003", "Nome": "ANA", "Vara": 3},
		},
	}
	blob, err := ExportTable(table, "Padronizado")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Padronizado"}) {
		t.Fatalf("sheets=%v", got)
	}
	rows, err := f.GetRows("Padronizado")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], []string{"Processo", "Nome", "Vara"}) {
		t.Fatalf("header=%v", rows[0])
	}
	if !reflect.DeepEqual(rows[1], []string{"0001", "JOAO CESAR", "1ª"}) {
		t.Fatalf("row1=%v", rows[1])
	}
	if rows[2][0] != "0002" {
		t.Fatalf("row2=%v", rows[2])
	}
	for _, v := range rows[2][1:] {
		if v != "" {
			t.Fatalf("blank cells should stay empty: %v", rows[2])
		}
	}
	if rows[3][2] != "3" {
		t.Fatalf("row3=%v", rows[3])
	}
}

func TestExportTableToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "result.xlsx")
	table := internal.Table{Columns: []string{"Nome"}, Rows: []internal.Row{{"Nome": "ANA"}}}
	if err := ExportTableToFile(table, "Padronizado", out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatal(err)
	}
}
