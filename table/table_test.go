package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeffname,image_url\nfoo,http://a/x.png\nbar,http://a/y.png\nbaz\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "image_url"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []string{"baz", ""}, tbl.Rows[2])

	urls, err := tbl.Column("image_url")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/x.png", "http://a/y.png", ""}, urls)
}

func TestReadCSVWideRow(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "column_2"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.Rows)
}

func TestReadEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestColumnNotFound(t *testing.T) {
	tbl := &Table{Columns: []string{"a", "b"}}
	_, err := tbl.Column("url")
	require.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), "a, b")
}

func TestGuessURLColumn(t *testing.T) {
	tbl := &Table{Columns: []string{"id", "Photo URL", "url2"}}
	col, err := tbl.GuessURLColumn()
	require.NoError(t, err)
	assert.Equal(t, "Photo URL", col)

	_, err = (&Table{Columns: []string{"id"}}).GuessURLColumn()
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestPreview(t *testing.T) {
	tbl := &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}, {"2"}, {"3"}}}
	assert.Len(t, tbl.Preview(2), 2)
	assert.Len(t, tbl.Preview(10), 3)
	assert.Empty(t, tbl.Preview(-1))
}

func TestUniqueNonEmpty(t *testing.T) {
	in := []string{"http://b", "", "  ", "http://a", "http://b", " http://a ", "http://c"}
	assert.Equal(t, []string{"http://b", "http://a", "http://c"}, UniqueNonEmpty(in))
	assert.Empty(t, UniqueNonEmpty([]string{"", " "}))
	assert.Empty(t, UniqueNonEmpty(nil))
}

func TestReadByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "urls.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte("url\nhttp://a\n"), 0o644))
	tbl, err := Read(csvPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"http://a"}}, tbl.Rows)

	txtPath := filepath.Join(dir, "urls.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("url\n"), 0o644))
	_, err = Read(txtPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"sku", "url"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"1", "http://a/x.png"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{"2", "http://a/x.png"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A4", &[]any{"3", "http://a/y.png"}))
	path := filepath.Join(t.TempDir(), "urls.xlsx")
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "url"}, tbl.Columns)

	col, err := tbl.Column("url")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a/x.png", "http://a/y.png"}, UniqueNonEmpty(col))
}
