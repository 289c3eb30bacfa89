package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"ConsolidaFin/api/constants"
)

// readWorkbook loads every required sheet from the uploaded workbook as raw
// string rows. Sheets outside the required set are skipped entirely, even
// if malformed. The missing-sheet check happens after the whole file is
// read, so callers get every missing name at once.
func readWorkbook(file multipart.File, filename string) (map[string][][]string, *PipelineError) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, Critical(constants.ErrWorkbookOpenFailed, err.Error(), nil)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	default:
		return nil, Critical(constants.ErrUnsupportedFileType, "", map[string]interface{}{
			"filename": filename,
		})
	}
}

func readXLSX(data []byte) (map[string][][]string, *PipelineError) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, Critical(constants.ErrWorkbookOpenFailed, err.Error(), nil)
	}
	defer f.Close()

	sheets := make(map[string][][]string)
	for _, name := range f.GetSheetList() {
		if !isRequiredSheet(name) {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, Critical(constants.ErrWorkbookOpenFailed, err.Error(), map[string]interface{}{
				"sheet": name,
			})
		}
		sheets[name] = rows
	}
	return sheets, nil
}

func readXLS(data []byte) (map[string][][]string, *PipelineError) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, Critical(constants.ErrWorkbookOpenFailed, err.Error(), nil)
	}

	sheets := make(map[string][][]string)
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil || !isRequiredSheet(sheet.Name) {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			vals := make([]string, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				vals[c] = row.Col(c)
			}
			rows = append(rows, vals)
		}
		sheets[sheet.Name] = rows
	}
	return sheets, nil
}

func isRequiredSheet(name string) bool {
	for _, s := range constants.RequiredSheets {
		if name == s {
			return true
		}
	}
	return false
}

// allEmptyRow reports whether every cell in the row is blank.
func allEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
