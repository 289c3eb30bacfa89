package upload

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ConsolidaFin/api/constants"
)

// StagedRow is one validated business row, tagged with its sheet and
// carrying a value per date header present in that sheet.
type StagedRow struct {
	Cod          int64
	ItensPeriodo string
	Segmentos    string
	FilePaths    string
	SheetName    string
	Values       map[string]float64
}

// cellAt returns the trimmed cell at idx, tolerating short rows.
func cellAt(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// validateSheetRows builds staged rows for one sheet. The first schema or
// numeric violation is fatal and aborts the whole upload; fields are checked
// in business-column order first, then measure cells in column order. Row
// numbers in errors are 1-indexed to match the spreadsheet, with the header
// occupying row 1.
func validateSheetRows(sheetName string, rows [][]string, layout sheetLayout) ([]StagedRow, *PipelineError) {
	staged := make([]StagedRow, 0, len(rows))
	for i, row := range rows {
		if i == 0 || allEmptyRow(row) {
			continue
		}
		rowNum := i + 1

		codRaw := cellAt(row, layout.businessCols[constants.HeaderCod])
		cod, err := strconv.ParseInt(codRaw, 10, 64)
		if err != nil {
			return nil, rowSchemaError(sheetName, rowNum, constants.HeaderCod, codRaw, "type of int")
		}

		itens := cellAt(row, layout.businessCols[constants.HeaderItensPeriodo])
		if itens == "" {
			return nil, rowSchemaError(sheetName, rowNum, constants.HeaderItensPeriodo, itens, "type of string")
		}

		segmento := cellAt(row, layout.businessCols[constants.HeaderSegmentos])
		if !isValidSegment(segmento) {
			return nil, rowSchemaError(sheetName, rowNum, constants.HeaderSegmentos, segmento,
				"one of ["+strings.Join(constants.Segments, ", ")+"]")
		}

		filePaths := cellAt(row, layout.businessCols[constants.HeaderFilePaths])
		if filePaths == "" {
			return nil, rowSchemaError(sheetName, rowNum, constants.HeaderFilePaths, filePaths, "type of string")
		}

		values := make(map[string]float64, len(layout.dateCols))
		for _, dc := range layout.dateCols {
			raw := cellAt(row, dc.Index)
			v, err := parseMeasure(raw)
			if err != nil {
				return nil, Critical(
					fmt.Sprintf("Sheet %s row %d has a non-numeric value %q in column %s", sheetName, rowNum, raw, dc.Header),
					err.Error(),
					map[string]interface{}{
						"sheet":  sheetName,
						"row":    rowNum,
						"column": dc.Header,
						"value":  raw,
					},
				)
			}
			values[dc.Header] = v
		}

		staged = append(staged, StagedRow{
			Cod:          cod,
			ItensPeriodo: itens,
			Segmentos:    segmento,
			FilePaths:    filePaths,
			SheetName:    sheetName,
			Values:       values,
		})
	}
	return staged, nil
}

func rowSchemaError(sheet string, rowNum int, field, value, expected string) *PipelineError {
	return Critical(
		fmt.Sprintf("Sheet %s row %d: field %s has value %q, expected %s", sheet, rowNum, field, value, expected),
		"",
		map[string]interface{}{
			"sheet":    sheet,
			"row":      rowNum,
			"field":    field,
			"value":    value,
			"expected": expected,
		},
	)
}

func isValidSegment(s string) bool {
	for _, seg := range constants.Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// parseMeasure coerces a measure cell to a float. Empty cells are
// legitimately absent and default to zero; anything non-empty must parse as
// a finite number, in plain or pt-BR ("1.234,56") notation.
func parseMeasure(raw string) (float64, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		norm := strings.ReplaceAll(strings.ReplaceAll(t, ".", ""), ",", ".")
		f, err = strconv.ParseFloat(norm, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", raw)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %q is not a finite number", raw)
	}
	return f, nil
}
