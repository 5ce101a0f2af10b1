package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	m := New()
	m.ObserveFetch(10*time.Millisecond, 3, nil)
	m.ObserveFetch(20*time.Millisecond, 5, nil)
	m.ObserveFetch(time.Second, 0, errors.New("HTTP 404"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.FetchBytes))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(time.Second, 1, nil)
	m.SetArchiveEntries(3)
	m.AddScannedFiles(2)
	m.ObserveRefine(OutcomeSuccess)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.SetArchiveEntries(2)
	m.ObserveRefine(OutcomeInvalidJSON)
	path := filepath.Join(t.TempDir(), "batchkit.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "batchkit_archive_entries 2")
	assert.Contains(t, string(data), `batchkit_refined_segments_total{outcome="invalid_json"} 1`)
}
