package json

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters struct {
	Hits map[string]int `json:"hits"`
}

func (c *counters) Init() {
	if c.Hits == nil {
		c.Hits = make(map[string]int)
	}
}

func newTestStore(t *testing.T) (*Store[counters], string) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "counters.json")
	s, _ := Open[counters](file, filepath.Join(dir, "counters.lock"))
	return s, file
}

func TestWithMissingFileInitializes(t *testing.T) {
	s, file := newTestStore(t)
	require.NoError(t, s.With(t.Context(), func(c *counters) error {
		assert.NotNil(t, c.Hits)
		assert.Empty(t, c.Hits)
		return nil
	}))
	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err), "With must not create the file")
}

func TestUpdatePersists(t *testing.T) {
	s, file := newTestStore(t)
	require.NoError(t, s.Update(t.Context(), func(c *counters) error {
		c.Hits["a"] = 1
		return nil
	}))
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hits":{"a":1}}`, string(raw))
}

func TestUpdateErrorDiscards(t *testing.T) {
	s, _ := newTestStore(t)
	boom := errors.New("boom")
	err := s.Update(t.Context(), func(c *counters) error {
		c.Hits["a"] = 1
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, s.With(t.Context(), func(c *counters) error {
		assert.Empty(t, c.Hits)
		return nil
	}))
}

func TestConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(t.Context(), func(c *counters) error {
				c.Hits["n"]++
				return nil
			}))
		}()
	}
	wg.Wait()
	require.NoError(t, s.With(t.Context(), func(c *counters) error {
		assert.Equal(t, 20, c.Hits["n"])
		return nil
	}))
}

func TestTryLockWriteRead(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := t.Context()
	ok, err := s.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Write(func(c *counters) error {
		c.Hits["gc"] = 2
		return nil
	}))
	require.NoError(t, s.Read(func(c *counters) error {
		assert.Equal(t, 2, c.Hits["gc"])
		return nil
	}))
	require.NoError(t, s.Unlock(ctx))
}

func TestCorruptFile(t *testing.T) {
	s, file := newTestStore(t)
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o644))
	err := s.With(t.Context(), func(*counters) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
