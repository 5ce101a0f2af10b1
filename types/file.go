package types

// TimeLayout formats FileEntry timestamps in local time.
const TimeLayout = "2006-01-02 15:04:05"

// FileEntry describes one regular file found by a directory scan.
type FileEntry struct {
	Title        string  `json:"title"`
	Extension    *string `json:"extension"` // lower-case, no dot; null when the name has none
	Path         string  `json:"path"`
	RelativePath string  `json:"relative_path"`
	Folder       string  `json:"folder"`
	SizeBytes    int64   `json:"size_bytes"`
	Created      string  `json:"created"`
	Modified     string  `json:"modified"`
}

// Ext returns the extension or "" when there is none.
func (f FileEntry) Ext() string {
	if f.Extension == nil {
		return ""
	}
	return *f.Extension
}
