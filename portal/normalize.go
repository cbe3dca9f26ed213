package portal

import (
	"fmt"
	"os"
	"path/filepath"

	"portalfetch/artifact"
	"portalfetch/csv"
	"portalfetch/models"
)

// NormalizeStats describes one normalization.
type NormalizeStats struct {
	Output      string
	RowsRead    int
	RowsWritten int
	RowsDropped int
}

// Normalize loads the artifact, drops fully empty rows and writes the
// result to outputPath as CSV, replacing any earlier output.
func Normalize(artifactPath, outputPath string) (*models.Table, NormalizeStats, error) {
	var stats NormalizeStats

	table, err := artifact.Load(artifactPath)
	if err != nil {
		return nil, stats, err
	}
	stats.RowsRead = len(table.Rows)
	stats.RowsDropped = csv.DropEmptyRows(table)
	stats.RowsWritten = len(table.Rows)

	dir, name := filepath.Split(outputPath)
	path, err := csv.WriteToCSV(table, models.WriteOptions{Directory: dir, Filename: name})
	if err != nil {
		return nil, stats, fmt.Errorf("error saving cleaned file: %w", err)
	}
	stats.Output = path
	return table, stats, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating download directory: %w", err)
	}
	return nil
}
