package upload

import (
	"testing"
	"time"
)

func TestParseDateHeader(t *testing.T) {
	cases := []struct {
		header string
		year   int
		month  time.Month
	}{
		{"Jan/25", 2025, time.January},
		{"jan/25", 2025, time.January},
		{"Fev/24", 2024, time.February},
		{"Dez/2024", 2024, time.December},
		{"Mai/2030", 2030, time.May},
		{" Set/25 ", 2025, time.September},
	}
	for _, c := range cases {
		d, err := ParseDateHeader(c.header)
		if err != nil {
			t.Fatalf("ParseDateHeader(%q) failed: %v", c.header, err)
		}
		if d.Year() != c.year || d.Month() != c.month || d.Day() != 1 {
			t.Fatalf("ParseDateHeader(%q) = %v, expected %04d-%02d-01", c.header, d, c.year, c.month)
		}
	}
}

func TestParseDateHeaderRejectsNonDates(t *testing.T) {
	for _, h := range []string{"", "Cod", "Foo/25", "Jan-25", "Janeiro/25", "Jan/253", "Jan/25/01", "13/25"} {
		if IsDateHeader(h) {
			t.Fatalf("expected %q to be rejected as a date header", h)
		}
	}
}

func TestParseDateHeaderIsIdempotent(t *testing.T) {
	first, err := ParseDateHeader("Jan/25")
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	second, err := ParseDateHeader("Jan/25")
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("parsing the same header twice gave %v then %v", first, second)
	}
	if got := first.Format("2006-01-02"); got != "2025-01-01" {
		t.Fatalf("expected Jan/25 to resolve to 2025-01-01, got %s", got)
	}
}

func TestParseHeaderRowClassification(t *testing.T) {
	layout := parseHeaderRow([]string{"Cod", "ItensPeriodo", "Segmentos", "FilePaths", "Jan/25", "Fev/25", "Observacao", ""})

	if len(layout.businessCols) != 4 {
		t.Fatalf("expected 4 business columns, got %d", len(layout.businessCols))
	}
	if idx := layout.businessCols["Segmentos"]; idx != 2 {
		t.Fatalf("expected Segmentos at index 2, got %d", idx)
	}
	if len(layout.dateCols) != 2 {
		t.Fatalf("expected 2 date columns, got %d", len(layout.dateCols))
	}
	if layout.dateCols[0].Header != "Jan/25" || layout.dateCols[0].Index != 4 {
		t.Fatalf("unexpected first date column: %+v", layout.dateCols[0])
	}
	if missing := layout.missingBusinessHeaders(); len(missing) != 0 {
		t.Fatalf("expected no missing business headers, got %v", missing)
	}
}

func TestMissingBusinessHeaders(t *testing.T) {
	layout := parseHeaderRow([]string{"Cod", "Segmentos", "Jan/25"})
	missing := layout.missingBusinessHeaders()
	if len(missing) != 2 || missing[0] != "ItensPeriodo" || missing[1] != "FilePaths" {
		t.Fatalf("expected [ItensPeriodo FilePaths], got %v", missing)
	}
}

func TestUnionDateHeadersIsChronological(t *testing.T) {
	layouts := map[string]sheetLayout{
		"RESULTADO": parseHeaderRow([]string{"Cod", "ItensPeriodo", "Segmentos", "FilePaths", "Mar/25", "Jan/25"}),
		"CONTABIL":  parseHeaderRow([]string{"Cod", "ItensPeriodo", "Segmentos", "FilePaths", "Jan/25", "Dez/24"}),
	}
	union := unionDateHeaders(layouts)
	expected := []string{"Dez/24", "Jan/25", "Mar/25"}
	if len(union) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, union)
	}
	for i := range expected {
		if union[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, union)
		}
	}
}

func TestMissingSheets(t *testing.T) {
	found := map[string][][]string{
		"RESULTADO": nil,
		"FICTICIO":  nil,
	}
	missing := missingSheets(found)
	if len(missing) != 2 || missing[0] != "CONTABIL" || missing[1] != "GERENCIAL" {
		t.Fatalf("expected [CONTABIL GERENCIAL], got %v", missing)
	}

	found["CONTABIL"] = nil
	found["GERENCIAL"] = nil
	if missing := missingSheets(found); len(missing) != 0 {
		t.Fatalf("expected no missing sheets, got %v", missing)
	}
}
