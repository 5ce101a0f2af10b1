package fetch

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batchkit/batchkit/config"
	pipeline "github.com/batchkit/batchkit/fetch"
	"github.com/batchkit/batchkit/table"
)

func countingPipeline(calls *atomic.Int32) *pipeline.Pipeline {
	return pipeline.New(pipeline.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		calls.Add(1)
		return []byte("img:" + url), nil
	}), pipeline.Options{})
}

func testConfig(t *testing.T) *config.Config {
	conf := config.DefaultConfig()
	conf.RootDir = t.TempDir()
	return conf
}

func TestFetchTableNoURLs(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		column string
	}{
		{"empty cells", "name,url\na,\nb,\n", "url"},
		{"whitespace cells", "name,url\na,   \nb,\t\nc, \t \n", "url"},
		{"header only", "name,image_url\n", ""},
		{"guessed column", "name,image_url\na,\" \"\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := table.ReadCSV(strings.NewReader(tt.csv))
			require.NoError(t, err)

			var calls atomic.Int32
			out := filepath.Join(t.TempDir(), "images.zip")
			err = fetchTable(t.Context(), testConfig(t), countingPipeline(&calls), tbl, "input.csv", tt.column, out)
			require.ErrorIs(t, err, pipeline.ErrNoURLs)
			assert.Zero(t, calls.Load())
			assert.NoFileExists(t, out)
		})
	}
}

func TestFetchTableWritesArchive(t *testing.T) {
	tbl, err := table.ReadCSV(strings.NewReader("url\nhttp://x/a\n \nhttp://x/a\nhttp://x/b\n"))
	require.NoError(t, err)

	var calls atomic.Int32
	out := filepath.Join(t.TempDir(), "out", "images.zip")
	require.NoError(t, fetchTable(t.Context(), testConfig(t), countingPipeline(&calls), tbl, "input.csv", "", out))
	assert.EqualValues(t, 2, calls.Load())
	assert.FileExists(t, out)
}

func TestSelectURLsMissingColumn(t *testing.T) {
	tbl, err := table.ReadCSV(strings.NewReader("name\na\n"))
	require.NoError(t, err)

	_, _, err = selectURLs(tbl, "")
	require.ErrorIs(t, err, table.ErrColumnNotFound)
	_, _, err = selectURLs(tbl, "link")
	require.ErrorIs(t, err, table.ErrColumnNotFound)
}
