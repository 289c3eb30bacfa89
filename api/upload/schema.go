package upload

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"ConsolidaFin/api/constants"
)

// monthsPtBR maps Brazilian three-letter month abbreviations to calendar
// months. Date headers use these, lowercased, e.g. "Jan/25" or "Dez/2024".
var monthsPtBR = map[string]time.Month{
	"jan": time.January,
	"fev": time.February,
	"mar": time.March,
	"abr": time.April,
	"mai": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"set": time.September,
	"out": time.October,
	"nov": time.November,
	"dez": time.December,
}

var dateHeaderRe = regexp.MustCompile(`^([A-Za-z\x{00C0}-\x{00FF}]{3})/([0-9]{2}|[0-9]{4})$`)

// IsDateHeader reports whether a trimmed header names a date/measure column.
func IsDateHeader(header string) bool {
	_, err := ParseDateHeader(header)
	return err == nil
}

// ParseDateHeader converts a date header into the first day of its month.
// A 2-digit year is taken in the 2000s; a 4-digit year is used as given.
func ParseDateHeader(header string) (time.Time, error) {
	m := dateHeaderRe.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return time.Time{}, fmt.Errorf("header %q does not match Mmm/yy or Mmm/yyyy", header)
	}
	month, ok := monthsPtBR[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("header %q has unknown month %q", header, m[1])
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, err
	}
	if len(m[2]) == 2 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
}

// dateColumn is one detected date/measure column within a sheet.
type dateColumn struct {
	Header string
	Index  int
}

// sheetLayout is the classified header row of one accepted sheet: where the
// four business columns sit and which columns carry measures.
type sheetLayout struct {
	businessCols map[string]int
	dateCols     []dateColumn
}

var businessHeaders = []string{
	constants.HeaderCod,
	constants.HeaderItensPeriodo,
	constants.HeaderSegmentos,
	constants.HeaderFilePaths,
}

// parseHeaderRow classifies every header: date headers become measure
// columns, the four fixed business headers are matched exactly, anything
// else is ignored.
func parseHeaderRow(headers []string) sheetLayout {
	layout := sheetLayout{businessCols: make(map[string]int)}
	for idx, raw := range headers {
		h := strings.TrimSpace(raw)
		if h == "" {
			continue
		}
		if IsDateHeader(h) {
			layout.dateCols = append(layout.dateCols, dateColumn{Header: h, Index: idx})
			continue
		}
		for _, b := range businessHeaders {
			if h == b {
				layout.businessCols[b] = idx
				break
			}
		}
	}
	return layout
}

// missingBusinessHeaders lists required business headers absent from the
// layout, in canonical order.
func (l sheetLayout) missingBusinessHeaders() []string {
	var missing []string
	for _, b := range businessHeaders {
		if _, ok := l.businessCols[b]; !ok {
			missing = append(missing, b)
		}
	}
	return missing
}

// unionDateHeaders merges the date columns of every processed sheet into the
// single staging schema, ordered chronologically. The staging table is
// single-schema, so this union must exist before the table is created.
func unionDateHeaders(layouts map[string]sheetLayout) []string {
	seen := make(map[string]bool)
	var headers []string
	for _, layout := range layouts {
		for _, dc := range layout.dateCols {
			if !seen[dc.Header] {
				seen[dc.Header] = true
				headers = append(headers, dc.Header)
			}
		}
	}
	sort.Slice(headers, func(i, j int) bool {
		di, _ := ParseDateHeader(headers[i])
		dj, _ := ParseDateHeader(headers[j])
		if di.Equal(dj) {
			return headers[i] < headers[j]
		}
		return di.Before(dj)
	})
	return headers
}

// missingSheets returns required sheet names absent from the workbook, in
// the order RequiredSheets declares them.
func missingSheets(found map[string][][]string) []string {
	var missing []string
	for _, name := range constants.RequiredSheets {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
