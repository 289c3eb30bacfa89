package upload

import (
	"strings"
	"testing"
)

var testHeader = []string{"Cod", "ItensPeriodo", "Segmentos", "FilePaths", "Jan/25", "Fev/25"}

func testLayout() sheetLayout {
	return parseHeaderRow(testHeader)
}

func TestValidateSheetRowsBuildsStagedRows(t *testing.T) {
	rows := [][]string{
		testHeader,
		{"1001", "Receita de Servicos", "Empresas I", "/uploads/jan.xlsx", "150000", ""},
		{"", "", "", "", "", ""},
		{"1002", "Despesa Fixa", "Varejo", "/uploads/jan.xlsx", "1.234,56", "-10"},
	}
	staged, perr := validateSheetRows("RESULTADO", rows, testLayout())
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if len(staged) != 2 {
		t.Fatalf("expected 2 staged rows (empty row skipped), got %d", len(staged))
	}
	first := staged[0]
	if first.Cod != 1001 || first.Segmentos != "Empresas I" || first.SheetName != "RESULTADO" {
		t.Fatalf("unexpected staged row: %+v", first)
	}
	if first.Values["Jan/25"] != 150000 {
		t.Fatalf("expected Jan/25=150000, got %v", first.Values["Jan/25"])
	}
	if first.Values["Fev/25"] != 0 {
		t.Fatalf("expected empty cell to coerce to zero, got %v", first.Values["Fev/25"])
	}
	if staged[1].Values["Jan/25"] != 1234.56 {
		t.Fatalf("expected pt-BR number 1.234,56 to parse as 1234.56, got %v", staged[1].Values["Jan/25"])
	}
}

func TestValidateSheetRowsRejectsUnknownSegment(t *testing.T) {
	rows := [][]string{
		testHeader,
		{"1001", "Receita", "Empresas IV", "/uploads/x.xlsx", "10", "20"},
	}
	_, perr := validateSheetRows("CONTABIL", rows, testLayout())
	if perr == nil {
		t.Fatal("expected a segment enum error")
	}
	if perr.Severity != "critical" {
		t.Fatalf("expected critical severity, got %s", perr.Severity)
	}
	if perr.Context["row"] != 2 {
		t.Fatalf("expected 1-indexed spreadsheet row 2, got %v", perr.Context["row"])
	}
	if perr.Context["value"] != "Empresas IV" {
		t.Fatalf("expected offending value in context, got %v", perr.Context["value"])
	}
	if !strings.Contains(perr.Message, "one of [") {
		t.Fatalf("expected enumerated constraint in message, got %q", perr.Message)
	}
}

func TestValidateSheetRowsRejectsNonIntegerCod(t *testing.T) {
	rows := [][]string{
		testHeader,
		{"10x1", "Receita", "Varejo", "/uploads/x.xlsx", "10", "20"},
	}
	_, perr := validateSheetRows("RESULTADO", rows, testLayout())
	if perr == nil {
		t.Fatal("expected a Cod type error")
	}
	if perr.Context["field"] != "Cod" || perr.Context["expected"] != "type of int" {
		t.Fatalf("unexpected context: %v", perr.Context)
	}
}

func TestValidateSheetRowsRejectsNonNumericMeasure(t *testing.T) {
	rows := [][]string{
		testHeader,
		{"1001", "Receita", "Varejo", "/uploads/x.xlsx", "10", "n/a"},
	}
	_, perr := validateSheetRows("FICTICIO", rows, testLayout())
	if perr == nil {
		t.Fatal("expected a non-numeric measure error")
	}
	ctx := perr.Context
	if ctx["sheet"] != "FICTICIO" || ctx["row"] != 2 || ctx["column"] != "Fev/25" || ctx["value"] != "n/a" {
		t.Fatalf("expected sheet/row/column/value in context, got %v", ctx)
	}
}

func TestValidateSheetRowsReportsFirstFailurePerRow(t *testing.T) {
	// both the segment and a measure are broken; business columns are
	// checked first, so the segment error wins
	rows := [][]string{
		testHeader,
		{"1001", "Receita", "Nope", "/uploads/x.xlsx", "abc", "10"},
	}
	_, perr := validateSheetRows("RESULTADO", rows, testLayout())
	if perr == nil {
		t.Fatal("expected an error")
	}
	if perr.Context["field"] != "Segmentos" {
		t.Fatalf("expected the Segmentos failure to be reported first, got %v", perr.Context)
	}
}

func TestParseMeasure(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"150000", 150000},
		{"-12.5", -12.5},
		{"1.234,56", 1234.56},
		{"1.000.000,00", 1000000},
		{"0", 0},
	}
	for _, c := range cases {
		got, err := parseMeasure(c.in)
		if err != nil {
			t.Fatalf("parseMeasure(%q) failed: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("parseMeasure(%q) = %v, expected %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"abc", "n/a", "12,34,56", "NaN", "Inf"} {
		if _, err := parseMeasure(bad); err == nil {
			t.Fatalf("expected parseMeasure(%q) to fail", bad)
		}
	}
}
