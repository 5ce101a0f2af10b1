// Package archive holds fetched payloads in memory and serializes them as a
// zip stream once a run is complete.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/batchkit/batchkit/utils"
)

const (
	// DefaultName is the file name offered for the emitted archive.
	DefaultName = "images.zip"
	// MIMEType is the media type of the emitted archive.
	MIMEType = "application/zip"

	entryPrefix = "image_"
	entryExt    = ".png"
)

// entryTime is stamped on every entry so identical inputs serialize to
// identical bytes.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// EntryName returns the name of the n-th entry (1-based): image_0001.png.
// Widths beyond four digits grow naturally.
func EntryName(n int) string {
	return fmt.Sprintf("%s%04d%s", entryPrefix, n, entryExt)
}

// Entry is one named payload.
type Entry struct {
	Name string
	Data []byte
}

// Archive is an ordered in-memory collection of entries. It is owned by a
// single writer until it is emitted; it is not safe for concurrent Add.
type Archive struct {
	entries []Entry
	size    int64
}

// New returns an empty Archive.
func New() *Archive {
	return &Archive{}
}

// Add appends an entry. Names are not checked for duplicates.
func (a *Archive) Add(name string, data []byte) {
	a.entries = append(a.entries, Entry{Name: name, Data: data})
	a.size += int64(len(data))
}

// Entries returns the entries in insertion order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len is the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Size is the total payload size in bytes, before zip framing.
func (a *Archive) Size() int64 { return a.size }

// WriteTo serializes the archive as a zip stream. Entries are stored
// uncompressed. An empty archive yields a valid zero-entry zip.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, e := range a.entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Store,
			Modified: entryTime,
		})
		if err != nil {
			return cw.n, fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return cw.n, fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close zip: %w", err)
	}
	return cw.n, nil
}

// Bytes serializes the archive into memory.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile emits the archive to path atomically.
func (a *Archive) WriteFile(path string) error {
	return utils.AtomicWriteStream(path, 0o644, func(w io.Writer) error {
		_, err := a.WriteTo(w)
		return err
	})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
