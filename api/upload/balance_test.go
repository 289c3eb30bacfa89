package upload

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestFindImbalancesFlagsBrokenTriple(t *testing.T) {
	// RESULTADO=150000 vs CONTABIL+FICTICIO=145000 -> diff 5000
	totals := []balanceTotals{
		{Cod: 1001, Segmento: "Empresas I", DateHeader: "Jan/25", Resultado: dec(150000), Contabil: dec(100000), Ficticio: dec(45000)},
	}
	imbalances := findImbalances(totals)
	if len(imbalances) != 1 {
		t.Fatalf("expected 1 imbalance, got %d", len(imbalances))
	}
	im := imbalances[0]
	if im.Cod != 1001 || im.Segmento != "Empresas I" || im.DateHeader != "Jan/25" {
		t.Fatalf("unexpected imbalance identity: %+v", im)
	}
	if !im.Diff.Equal(dec(5000)) {
		t.Fatalf("expected diff 5000, got %s", im.Diff)
	}
}

func TestFindImbalancesPassesBalancedTriple(t *testing.T) {
	// 150000 = 100000 + 50000
	totals := []balanceTotals{
		{Cod: 1001, Segmento: "Empresas I", DateHeader: "Jan/25", Resultado: dec(150000), Contabil: dec(100000), Ficticio: dec(50000)},
	}
	if imbalances := findImbalances(totals); len(imbalances) != 0 {
		t.Fatalf("expected no imbalances, got %v", imbalances)
	}
}

func TestFindImbalancesRespectsTolerance(t *testing.T) {
	within := balanceTotals{Cod: 1, Segmento: "Varejo", DateHeader: "Jan/25",
		Resultado: dec(100.01), Contabil: dec(100), Ficticio: dec(0)}
	beyond := balanceTotals{Cod: 2, Segmento: "Varejo", DateHeader: "Jan/25",
		Resultado: dec(100.02), Contabil: dec(100), Ficticio: dec(0)}

	imbalances := findImbalances([]balanceTotals{within, beyond})
	if len(imbalances) != 1 {
		t.Fatalf("expected only the beyond-tolerance triple, got %d", len(imbalances))
	}
	if imbalances[0].Cod != 2 {
		t.Fatalf("expected cod 2 flagged, got %d", imbalances[0].Cod)
	}
}

func TestFindImbalancesSortsByDescendingAbsDiff(t *testing.T) {
	totals := []balanceTotals{
		{Cod: 1, Segmento: "Varejo", DateHeader: "Jan/25", Resultado: dec(110), Contabil: dec(100), Ficticio: dec(0)},
		{Cod: 2, Segmento: "Varejo", DateHeader: "Jan/25", Resultado: dec(0), Contabil: dec(5000), Ficticio: dec(0)},
		{Cod: 3, Segmento: "Varejo", DateHeader: "Jan/25", Resultado: dec(600), Contabil: dec(100), Ficticio: dec(0)},
	}
	imbalances := findImbalances(totals)
	if len(imbalances) != 3 {
		t.Fatalf("expected 3 imbalances, got %d", len(imbalances))
	}
	if imbalances[0].Cod != 2 || imbalances[1].Cod != 3 || imbalances[2].Cod != 1 {
		t.Fatalf("expected order by |diff| desc (2,3,1), got (%d,%d,%d)",
			imbalances[0].Cod, imbalances[1].Cod, imbalances[2].Cod)
	}
}

func TestBalanceErrorCarriesFormattedImbalances(t *testing.T) {
	imbalances := findImbalances([]balanceTotals{
		{Cod: 1001, Segmento: "Empresas I", DateHeader: "Jan/25", Resultado: dec(150000), Contabil: dec(100000), Ficticio: dec(45000)},
	})
	perr := balanceError(imbalances)
	if perr.Severity != "critical" {
		t.Fatalf("expected critical severity, got %s", perr.Severity)
	}
	if !strings.Contains(perr.Message, "1 combination") {
		t.Fatalf("expected imbalance count in message, got %q", perr.Message)
	}
	entries, ok := perr.Context["imbalances"].([]map[string]interface{})
	if !ok || len(entries) != 1 {
		t.Fatalf("expected one imbalance entry in context, got %v", perr.Context["imbalances"])
	}
	if entries[0]["diff"] != "R$ 5.000,00" {
		t.Fatalf("expected formatted diff R$ 5.000,00, got %v", entries[0]["diff"])
	}
}

func TestFormatCurrencyBRL(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{5000, "R$ 5.000,00"},
		{0, "R$ 0,00"},
		{0.5, "R$ 0,50"},
		{999, "R$ 999,00"},
		{1000, "R$ 1.000,00"},
		{1234567.89, "R$ 1.234.567,89"},
		{-45000, "-R$ 45.000,00"},
	}
	for _, c := range cases {
		if got := FormatCurrencyBRL(dec(c.in)); got != c.want {
			t.Fatalf("FormatCurrencyBRL(%v) = %q, expected %q", c.in, got, c.want)
		}
	}
}
