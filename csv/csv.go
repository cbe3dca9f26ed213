// Package csv reads delimited artifacts and writes the normalized output file.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portalfetch/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads data from a CSV file. Rows may have differing lengths and
// stray quotes are tolerated, since portal exports are not strict RFC 4180.
func ReadCSV(filePath string) ([][]string, error) {
	// Read the whole file so a leading BOM can be dropped
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	// Create CSV reader
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// Read all records
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV file: %w", err)
	}

	return records, nil
}

// ReadTable reads a CSV file into a table whose header is the first record
func ReadTable(filePath string) (*models.Table, error) {
	records, err := ReadCSV(filePath)
	if err != nil {
		return nil, err
	}
	return models.NewTable(records), nil
}

// IsEmptyRow reports whether every cell of the row is blank
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DropEmptyRows removes rows in which every cell is blank and returns how
// many were removed. The header is never dropped.
func DropEmptyRows(table *models.Table) int {
	kept := table.Rows[:0]
	for _, row := range table.Rows {
		if !IsEmptyRow(row) {
			kept = append(kept, row)
		}
	}
	dropped := len(table.Rows) - len(kept)
	table.Rows = kept
	return dropped
}

// WriteToCSV writes the table to options.Directory/options.Filename,
// replacing any previous file at that path
func WriteToCSV(table *models.Table, options models.WriteOptions) (string, error) {
	// Create directory if it doesn't exist
	if options.Directory != "" {
		if err := os.MkdirAll(options.Directory, 0755); err != nil {
			return "", fmt.Errorf("error creating directory: %w", err)
		}
	}

	// Ensure .csv extension
	filename := options.Filename
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		filename = filename + ".csv"
	}
	fullPath := filepath.Join(options.Directory, filename)

	// Write next to the target and rename, so readers never see a half-written file
	file, err := os.CreateTemp(filepath.Dir(fullPath), "."+filename+".*")
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	tmpPath := file.Name()
	defer os.Remove(tmpPath)

	if err := writeTable(file, table); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing CSV file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return "", fmt.Errorf("error replacing CSV file: %w", err)
	}

	return fullPath, nil
}

func writeTable(file *os.File, table *models.Table) error {
	// Create CSV writer
	writer := csv.NewWriter(file)

	// Write headers if provided
	if len(table.Columns) > 0 {
		if err := writer.Write(table.Columns); err != nil {
			return fmt.Errorf("error writing headers to CSV: %w", err)
		}
	}

	// Write data rows
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("error writing data to CSV: %w", err)
	}

	return nil
}
