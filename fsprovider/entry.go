package fsprovider

import (
	"encoding/json"
	"time"
)

// Kind classifies the object a path points at.
type Kind int

const (
	KindMissing Kind = iota
	KindFile
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "missing"
	}
}

// EntryInfo describes a single object. Path is the canonical logical path,
// Size is zero for directories and LastModified is in epoch milliseconds.
type EntryInfo struct {
	Path         string
	Kind         Kind
	Size         int64
	LastModified int64
}

// Exists reports whether the entry describes an existing object.
func (e EntryInfo) Exists() bool {
	return e.Kind != KindMissing
}

// IsDirectory reports whether the entry is a directory.
func (e EntryInfo) IsDirectory() bool {
	return e.Kind == KindDirectory
}

// ModTime returns LastModified as a time.Time.
func (e EntryInfo) ModTime() time.Time {
	return time.UnixMilli(e.LastModified)
}

// MarshalJSON encodes a missing entry as null and any other entry as
// {path, size, lastModified, isDirectory}.
func (e EntryInfo) MarshalJSON() ([]byte, error) {
	if !e.Exists() {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Path         string `json:"path"`
		Size         int64  `json:"size"`
		LastModified int64  `json:"lastModified"`
		IsDirectory  bool   `json:"isDirectory"`
	}{e.Path, e.Size, e.LastModified, e.IsDirectory()})
}

// BrowseResult describes a path and, for directories, one level of
// children. Children keep the order the backend listed them in.
type BrowseResult struct {
	FullPath  string         `json:"fullPath,omitempty"`
	Exists    bool           `json:"exists"`
	Directory bool           `json:"directory"`
	Size      int64          `json:"size"`
	Children  []BrowseResult `json:"children,omitempty"`
}

// FileEntry is one file reported by Enumerate.
type FileEntry struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
}
