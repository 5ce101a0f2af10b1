package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/xuri/excelize/v2"

	"github.com/batchkit/batchkit/types"
	"github.com/batchkit/batchkit/utils"
)

const sheetName = "Sheet1"

// MaxWordRows caps the table of a Word export; larger scans get a
// truncation note instead of the remaining rows.
const MaxWordRows = 2000

// Columns is the header shared by the tabular exports.
var Columns = []string{"title", "extension", "path", "relative_path", "folder", "size_bytes", "created", "modified"}

// WordColumns is the narrower header of the Word table.
var WordColumns = []string{"title", "extension", "relative_path", "folder", "size_bytes", "modified"}

// ExportJSON writes entries as an indented JSON array.
func ExportJSON(path string, entries []types.FileEntry) error {
	if entries == nil {
		entries = []types.FileEntry{}
	}
	if err := utils.AtomicWriteJSON(path, entries); err != nil {
		return fmt.Errorf("export json %s: %w", path, err)
	}
	return nil
}

// ExportXLSX writes entries to the first sheet of a new workbook.
func ExportXLSX(path string, entries []types.FileEntry) error {
	wb := excelize.NewFile()
	defer wb.Close() //nolint:errcheck

	sw, err := wb.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("export xlsx %s: %w", path, err)
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export xlsx %s: header: %w", path, err)
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2) //nolint:mnd
		if err != nil {
			return fmt.Errorf("export xlsx %s: %w", path, err)
		}
		row := []any{e.Title, e.Ext(), e.Path, e.RelativePath, e.Folder, e.SizeBytes, e.Created, e.Modified}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export xlsx %s: row %d: %w", path, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export xlsx %s: flush: %w", path, err)
	}

	if err := utils.AtomicWriteStream(path, 0o644, func(w io.Writer) error {
		_, err := wb.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("export xlsx %s: %w", path, err)
	}
	return nil
}

// ExportCSV writes entries as comma-separated values with a header row.
func ExportCSV(path string, entries []types.FileEntry) error {
	err := utils.AtomicWriteStream(path, 0o644, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(Columns); err != nil {
			return err
		}
		for _, e := range entries {
			rec := []string{e.Title, e.Ext(), e.Path, e.RelativePath, e.Folder,
				strconv.FormatInt(e.SizeBytes, 10), e.Created, e.Modified}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("export csv %s: %w", path, err)
	}
	return nil
}

// ExportDOCX writes a Word report: heading, scan date, file count and a
// table of at most MaxWordRows entries.
func ExportDOCX(path string, entries []types.FileEntry) error {
	return exportDOCX(path, entries, time.Now(), MaxWordRows)
}

func exportDOCX(path string, entries []types.FileEntry, now time.Time, maxRows int) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Folder scan").Size("32").Bold()
	doc.AddParagraph().AddText("Date: " + now.Local().Format(types.TimeLayout))
	doc.AddParagraph().AddText(fmt.Sprintf("Number of files: %d", len(entries)))

	rows := entries
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	tbl := doc.AddTable(len(rows)+1, len(WordColumns), 0, nil)
	for i, c := range WordColumns {
		tbl.TableRows[0].TableCells[i].AddParagraph().AddText(c).Bold()
	}
	for i, e := range rows {
		cells := tbl.TableRows[i+1].TableCells
		for j, v := range []string{e.Title, e.Ext(), e.RelativePath, e.Folder, strconv.FormatInt(e.SizeBytes, 10), e.Modified} {
			cells[j].AddParagraph().AddText(v)
		}
	}
	if len(entries) > maxRows {
		doc.AddParagraph().AddText(fmt.Sprintf("... truncated: only the first %d rows are included in this document", maxRows))
	}

	if err := utils.AtomicWriteStream(path, 0o644, func(w io.Writer) error {
		_, err := doc.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("export docx %s: %w", path, err)
	}
	return nil
}
