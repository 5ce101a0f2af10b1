package scan

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/batchkit/batchkit/metrics"
	"github.com/batchkit/batchkit/progress"
	scanProgress "github.com/batchkit/batchkit/progress/scan"
	"github.com/batchkit/batchkit/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixture(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(root, "b.TXT"), "bb")
	writeFile(t, filepath.Join(root, "a.pdf"), "a")
	writeFile(t, filepath.Join(root, "sub", "notes"), "notes")
	writeFile(t, filepath.Join(root, "sub", "deep", ".hidden"), "")
	writeFile(t, filepath.Join(root, "sub", "deep", "x.tar.gz"), "xyz")
	return root
}

func relPaths(entries []types.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = filepath.ToSlash(e.RelativePath)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := fixture(t)
	m := metrics.New()

	var dirs []string
	var done scanProgress.Event
	tracker := progress.NewTracker(func(e scanProgress.Event) {
		switch e.Phase {
		case scanProgress.PhaseDir:
			dirs = append(dirs, e.Dir)
		case scanProgress.PhaseDone:
			done = e
		}
	})

	entries, err := Walk(context.Background(), root, Options{Metrics: m}, tracker)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "b.TXT", "sub/notes", "sub/deep/.hidden", "sub/deep/x.tar.gz"}, relPaths(entries))
	assert.Len(t, dirs, 3)
	assert.Equal(t, 3, done.Dirs)
	assert.Equal(t, 5, done.Files)

	b := entries[1]
	assert.Equal(t, "b.TXT", b.Title)
	require.NotNil(t, b.Extension)
	assert.Equal(t, "txt", *b.Extension)
	assert.Equal(t, filepath.Join(root, "b.TXT"), b.Path)
	assert.Equal(t, root, b.Folder)
	assert.EqualValues(t, 2, b.SizeBytes)
	_, err = time.ParseInLocation(types.TimeLayout, b.Modified, time.Local)
	assert.NoError(t, err)
	_, err = time.ParseInLocation(types.TimeLayout, b.Created, time.Local)
	assert.NoError(t, err)

	assert.Nil(t, entries[2].Extension)
	assert.Nil(t, entries[3].Extension)
	assert.Equal(t, "gz", entries[4].Ext())
	assert.Equal(t, filepath.Join(root, "sub", "deep"), entries[4].Folder)
}

func TestWalkRootErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Walk(context.Background(), filepath.Join(dir, "missing"), Options{}, nil)
	assert.Error(t, err)

	file := filepath.Join(dir, "f")
	writeFile(t, file, "x")
	_, err = Walk(context.Background(), file, Options{}, nil)
	assert.ErrorContains(t, err, "not a directory")
}

func TestWalkEmptyDir(t *testing.T) {
	entries, err := Walk(context.Background(), t.TempDir(), Options{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestWalkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, fixture(t), Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalkSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := fixture(t)
	outside := filepath.Join(filepath.Dir(root), "outside")
	writeFile(t, filepath.Join(outside, "o.png"), "o")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "sub", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "broken")))

	entries, err := Walk(context.Background(), root, Options{}, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = Walk(context.Background(), root, Options{FollowSymlinks: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, relPaths(entries), "linked/o.png")
	assert.Len(t, entries, 6)
}

func TestBaseName(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	assert.Equal(t, "scan_ProjetX_20240309_070501", BaseName("/data/BU/ProjetX/", now))
}

func TestExports(t *testing.T) {
	root := fixture(t)
	entries, err := Walk(context.Background(), root, Options{}, nil)
	require.NoError(t, err)
	out := t.TempDir()

	jsonPath := filepath.Join(out, "scan.json")
	require.NoError(t, ExportJSON(jsonPath, entries))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 5)
	assert.Nil(t, decoded[2]["extension"])
	assert.Contains(t, decoded[2], "extension")
	assert.Equal(t, "pdf", decoded[0]["extension"])

	csvPath := filepath.Join(out, "scan.csv")
	require.NoError(t, ExportCSV(csvPath, entries))
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "2", records[2][5])

	xlsxPath := filepath.Join(out, "scan.xlsx")
	require.NoError(t, ExportXLSX(xlsxPath, entries))
	wb, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer wb.Close() //nolint:errcheck
	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "a.pdf", rows[1][0])
}

func TestExportJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, ExportJSON(path, nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))
}

func readDOCX(t *testing.T, path string) (*docx.Table, []string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	info, err := f.Stat()
	require.NoError(t, err)
	doc, err := docx.Parse(f, info.Size())
	require.NoError(t, err)

	var tbl *docx.Table
	var paras []string
	for _, item := range doc.Document.Body.Items {
		switch o := item.(type) {
		case *docx.Table:
			tbl = o
		case *docx.Paragraph:
			paras = append(paras, o.String())
		}
	}
	require.NotNil(t, tbl)
	return tbl, paras
}

func TestExportDOCX(t *testing.T) {
	entries, err := Walk(context.Background(), fixture(t), Options{}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scan.docx")
	require.NoError(t, ExportDOCX(path, entries))

	tbl, paras := readDOCX(t, path)
	require.Len(t, tbl.TableRows, 6)
	assert.Len(t, tbl.TableRows[0].TableCells, len(WordColumns))
	assert.Equal(t, "title", tbl.TableRows[0].TableCells[0].Paragraphs[0].String())
	assert.Equal(t, "a.pdf", tbl.TableRows[1].TableCells[0].Paragraphs[0].String())
	assert.Contains(t, paras, "Number of files: 5")
	for _, p := range paras {
		assert.NotContains(t, p, "truncated")
	}
}

func TestExportDOCXTruncates(t *testing.T) {
	entries := make([]types.FileEntry, 7)
	for i := range entries {
		entries[i] = types.FileEntry{Title: fmt.Sprintf("f%d", i), RelativePath: fmt.Sprintf("f%d", i)}
	}
	path := filepath.Join(t.TempDir(), "big.docx")
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	require.NoError(t, exportDOCX(path, entries, now, 3))

	tbl, paras := readDOCX(t, path)
	assert.Len(t, tbl.TableRows, 4)
	assert.Contains(t, paras, "Number of files: 7")
	assert.Contains(t, paras, "Date: 2024-03-09 07:05:01")
	last := paras[len(paras)-1]
	assert.True(t, strings.HasPrefix(last, "... truncated: only the first 3 rows"), last)
}
