package upload

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ConsolidaFin/api/constants"
	"ConsolidaFin/internal/config"
)

// balanceTotals carries the per-sheet sums for one (cod, segment, date)
// triple as aggregated from the staging table.
type balanceTotals struct {
	Cod        int64
	Segmento   string
	DateHeader string
	Resultado  decimal.Decimal
	Contabil   decimal.Decimal
	Ficticio   decimal.Decimal
}

// Imbalance is one triple violating RESULTADO = CONTABIL + FICTICIO beyond
// the fixed tolerance.
type Imbalance struct {
	Cod        int64
	Segmento   string
	DateHeader string
	Resultado  decimal.Decimal
	Contabil   decimal.Decimal
	Ficticio   decimal.Decimal
	Diff       decimal.Decimal
}

var balanceTolerance = decimal.RequireFromString(config.BalanceTolerance)

// CheckBalance aggregates the complete staged artifact and fails the upload
// if any (cod, segment, date) triple is imbalanced. The returned error
// carries the full imbalance list, uncapped, sorted by descending |diff|.
func CheckBalance(ctx context.Context, pool *pgxpool.Pool, table string, dateHeaders []string) *PipelineError {
	var totals []balanceTotals
	for _, header := range dateHeaders {
		rows, err := queryBalanceTotals(ctx, pool, table, header)
		if err != nil {
			return Critical(constants.ErrInternalServer, "balance aggregation failed: "+err.Error(), nil)
		}
		totals = append(totals, rows...)
	}

	imbalances := findImbalances(totals)
	if len(imbalances) == 0 {
		return nil
	}
	return balanceError(imbalances)
}

func queryBalanceTotals(ctx context.Context, pool *pgxpool.Pool, table, header string) ([]balanceTotals, error) {
	col := pgx.Identifier{header}.Sanitize()
	sql := fmt.Sprintf(`
		SELECT cod, segmentos,
			COALESCE(SUM(CASE WHEN sheet_name = 'RESULTADO' THEN %[1]s ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sheet_name = 'CONTABIL' THEN %[1]s ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN sheet_name = 'FICTICIO' THEN %[1]s ELSE 0 END), 0)
		FROM %[2]s
		WHERE sheet_name IN ('RESULTADO', 'CONTABIL', 'FICTICIO')
		GROUP BY cod, segmentos`,
		col, pgx.Identifier{table}.Sanitize())

	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []balanceTotals
	for rows.Next() {
		var (
			t                             balanceTotals
			resultado, contabil, ficticio float64
		)
		if err := rows.Scan(&t.Cod, &t.Segmento, &resultado, &contabil, &ficticio); err != nil {
			return nil, err
		}
		t.DateHeader = header
		t.Resultado = decimal.NewFromFloat(resultado)
		t.Contabil = decimal.NewFromFloat(contabil)
		t.Ficticio = decimal.NewFromFloat(ficticio)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// findImbalances applies the tolerance to each triple and sorts the
// offenders by descending absolute difference.
func findImbalances(totals []balanceTotals) []Imbalance {
	var out []Imbalance
	for _, t := range totals {
		diff := t.Resultado.Sub(t.Contabil.Add(t.Ficticio))
		if diff.Abs().GreaterThan(balanceTolerance) {
			out = append(out, Imbalance{
				Cod:        t.Cod,
				Segmento:   t.Segmento,
				DateHeader: t.DateHeader,
				Resultado:  t.Resultado,
				Contabil:   t.Contabil,
				Ficticio:   t.Ficticio,
				Diff:       diff,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Diff.Abs().GreaterThan(out[j].Diff.Abs())
	})
	return out
}

func balanceError(imbalances []Imbalance) *PipelineError {
	entries := make([]map[string]interface{}, len(imbalances))
	for i, im := range imbalances {
		entries[i] = map[string]interface{}{
			"cod":       im.Cod,
			"segmento":  im.Segmento,
			"date":      im.DateHeader,
			"resultado": FormatCurrencyBRL(im.Resultado),
			"contabil":  FormatCurrencyBRL(im.Contabil),
			"ficticio":  FormatCurrencyBRL(im.Ficticio),
			"diff":      FormatCurrencyBRL(im.Diff),
		}
	}
	return Critical(
		fmt.Sprintf("Balance check failed: RESULTADO does not equal CONTABIL + FICTICIO for %d combination(s)", len(imbalances)),
		"Each listed (cod, segment, date) must satisfy RESULTADO = CONTABIL + FICTICIO within R$ 0,01",
		map[string]interface{}{
			"count":      len(imbalances),
			"imbalances": entries,
		},
	)
}

// FormatCurrencyBRL renders a decimal as Brazilian currency text,
// e.g. 5000 -> "R$ 5.000,00".
func FormatCurrencyBRL(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart := s[:len(s)-3]
	fracPart := s[len(s)-2:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "R$ " + strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
