package scan

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"

	scanner "github.com/batchkit/batchkit/scan"
	"github.com/batchkit/batchkit/types"
)

// exportTable writes base.xlsx, falling back to base.csv when the workbook
// cannot be written. It returns the path that was written.
func exportTable(ctx context.Context, base string, entries []types.FileEntry) (string, error) {
	logger := log.WithFunc("cmd.scan")
	xlsx := base + ".xlsx"
	err := scanner.ExportXLSX(xlsx, entries)
	if err == nil {
		logger.Infof(ctx, "Excel exported: %s", xlsx)
		return xlsx, nil
	}
	logger.Warnf(ctx, "Excel export failed: %v, trying CSV instead", err)

	csv := base + ".csv"
	if err := scanner.ExportCSV(csv, entries); err != nil {
		return "", fmt.Errorf("CSV export failed: %w", err)
	}
	logger.Infof(ctx, "CSV exported: %s", csv)
	return csv, nil
}
