package smbprovider

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// SMBSession abstracts an authenticated SMB session.
type SMBSession interface {
	// Mount mounts a share and returns an SMBShare interface.
	Mount(shareName string) (SMBShare, error)
	// Logoff ends the session.
	Logoff() error
}

// SMBShare is the set of primitives the provider needs from a mounted
// share. Names are share-relative, backslash separated, with "" for the
// share root.
type SMBShare interface {
	// OpenFile opens a file with the specified flags and permissions.
	OpenFile(name string, flag int, perm fs.FileMode) (SMBFile, error)
	// Stat returns file info for the specified path. A missing path
	// yields an error matching fs.ErrNotExist.
	Stat(name string) (fs.FileInfo, error)
	// ReadDir lists the direct children of a directory, excluding "."
	// and "..", in the order the server returned them.
	ReadDir(name string) ([]fs.FileInfo, error)
	// Mkdir creates a directory.
	Mkdir(name string, perm fs.FileMode) error
	// Remove removes a file or empty directory.
	Remove(name string) error
	// Rename renames a file or directory.
	Rename(oldname, newname string) error
	// Chtimes changes the access and modification times of a file.
	// A zero atime leaves the access time unchanged.
	Chtimes(name string, atime, mtime time.Time) error
	// Umount unmounts the share.
	Umount() error
}

// SMBFile abstracts an open file handle.
type SMBFile interface {
	io.Reader
	io.Writer
	io.Closer
	// Stat returns file information.
	Stat() (fs.FileInfo, error)
}

// ConnectionFactory establishes an authenticated session and mounts the
// configured share.
type ConnectionFactory interface {
	// CreateConnection creates a new SMB connection using the provided config.
	CreateConnection(ctx context.Context, config *Config) (SMBSession, SMBShare, error)
}

// accessTimer is implemented by file infos that know the last access time.
type accessTimer interface {
	AccessTime() time.Time
}

// accessTime returns the last access time of info, or the zero time when
// the backend does not report it.
func accessTime(info fs.FileInfo) time.Time {
	if at, ok := info.(accessTimer); ok {
		return at.AccessTime()
	}
	return time.Time{}
}
