// Package artifact loads a downloaded export into a table, whatever format
// the portal produced.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"portalfetch/csv"
	"portalfetch/models"
)

// ErrParse marks artifacts that could not be read as a table.
var ErrParse = errors.New("cannot parse artifact")

// Format is the parser chosen for an artifact.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// Detect picks the parser from the file extension. Anything that is not a
// spreadsheet is treated as delimited text.
func Detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Load reads the first sheet (or the whole text file) at path. The first row
// becomes the header and short rows are padded to the widest row.
func Load(path string) (*models.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch Detect(path) {
	case FormatXLSX:
		records, err = readXLSX(path)
	case FormatXLS:
		records, err = readXLS(path)
	default:
		records, err = csv.ReadCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrParse, filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w %s: no rows", ErrParse, filepath.Base(path))
	}
	return models.NewTable(records), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// readXLS reads the legacy BIFF format. The xls package panics on some
// malformed files, so panics are turned into errors.
func readXLS(path string) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	return records, nil
}
