// Package fsprovider defines the storage provider contract consumed by a
// host runtime. A provider scopes every operation to a root chosen at
// construction and speaks in forward-slash logical paths relative to it.
package fsprovider

import "io"

// Provider is the interface that wraps the filesystem verbs a host can
// drive against a storage backend.
type Provider interface {
	// Stat describes the object at path. A missing object is reported as
	// an EntryInfo of KindMissing with a nil error.
	Stat(path string) (EntryInfo, error)

	// SetLastModified sets the modification time (epoch milliseconds) of
	// the object at path, keeping its access time. It returns false when
	// the object is missing or the backend cannot change times.
	SetLastModified(path string, lastModified int64) (bool, error)

	// Browse describes path and, for a directory, its direct children.
	Browse(path string) (BrowseResult, error)

	// Enumerate lists every file below path. It returns a nil slice when
	// path does not exist. If firstNonEmpty is set the walk may stop after
	// the first file with a non-zero size.
	Enumerate(path string, firstNonEmpty bool) ([]FileEntry, error)

	// DeleteRecursive removes path and everything below it. The returned
	// count is best effort.
	DeleteRecursive(path string) (int, error)

	// Move renames from to to. It returns false when from does not exist.
	Move(from, to string) (bool, error)

	// Read streams the file at path into w. A positive limit caps the
	// number of bytes written.
	Read(path string, w io.Writer, limit int64) error

	// Write replaces the file at path with the content of r, creating
	// parent directories as needed.
	Write(path string, r io.Reader) error

	// Close releases any resources held by the provider.
	Close() error
}
