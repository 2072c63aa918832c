package smbprovider

import (
	"context"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// NewFileSystemFactory returns a ConnectionFactory whose share is backed
// by fsys instead of a network server. Share-relative names are mapped
// onto "/"-rooted paths of fsys, so any absfs implementation (memfs,
// osfs) can stand in for an SMB share.
func NewFileSystemFactory(fsys absfs.FileSystem) ConnectionFactory {
	return &fileSystemFactory{fsys: fsys}
}

type fileSystemFactory struct {
	fsys absfs.FileSystem
}

func (f *fileSystemFactory) CreateConnection(ctx context.Context, config *Config) (SMBSession, SMBShare, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	session := &fileSystemSession{fsys: f.fsys}
	share, err := session.Mount(config.Share)
	if err != nil {
		return nil, nil, err
	}
	return session, share, nil
}

type fileSystemSession struct {
	fsys absfs.FileSystem
}

func (s *fileSystemSession) Mount(shareName string) (SMBShare, error) {
	return &fileSystemShare{fsys: s.fsys}, nil
}

func (s *fileSystemSession) Logoff() error { return nil }

type fileSystemShare struct {
	fsys absfs.FileSystem

	mu        sync.RWMutex
	unmounted bool
}

// abs maps a share-relative name onto a path of the backing filesystem.
func (sh *fileSystemShare) abs(name string) (string, error) {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if sh.unmounted {
		return "", ErrConnectionClosed
	}
	return path.Clean("/" + strings.ReplaceAll(name, `\`, "/")), nil
}

func (sh *fileSystemShare) OpenFile(name string, flag int, perm fs.FileMode) (SMBFile, error) {
	p, err := sh.abs(name)
	if err != nil {
		return nil, err
	}
	f, err := sh.fsys.OpenFile(p, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (sh *fileSystemShare) Stat(name string) (fs.FileInfo, error) {
	p, err := sh.abs(name)
	if err != nil {
		return nil, err
	}
	return sh.fsys.Stat(p)
}

func (sh *fileSystemShare) ReadDir(name string) ([]fs.FileInfo, error) {
	p, err := sh.abs(name)
	if err != nil {
		return nil, err
	}

	dir, err := sh.fsys.OpenFile(p, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	infos, err := dir.Readdir(-1)
	if err != nil {
		return nil, err
	}

	out := make([]fs.FileInfo, 0, len(infos))
	for _, info := range infos {
		if info.Name() == "." || info.Name() == ".." {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

func (sh *fileSystemShare) Mkdir(name string, perm fs.FileMode) error {
	p, err := sh.abs(name)
	if err != nil {
		return err
	}
	return sh.fsys.Mkdir(p, perm)
}

func (sh *fileSystemShare) Remove(name string) error {
	p, err := sh.abs(name)
	if err != nil {
		return err
	}
	return sh.fsys.Remove(p)
}

func (sh *fileSystemShare) Rename(oldname, newname string) error {
	from, err := sh.abs(oldname)
	if err != nil {
		return err
	}
	to, err := sh.abs(newname)
	if err != nil {
		return err
	}
	return sh.fsys.Rename(from, to)
}

// Chtimes resolves a zero atime to the current access time, or to the
// modification time when the backing filesystem does not track it.
func (sh *fileSystemShare) Chtimes(name string, atime, mtime time.Time) error {
	p, err := sh.abs(name)
	if err != nil {
		return err
	}
	if atime.IsZero() {
		info, err := sh.fsys.Stat(p)
		if err != nil {
			return err
		}
		if atime = accessTime(info); atime.IsZero() {
			atime = info.ModTime()
		}
	}
	return sh.fsys.Chtimes(p, atime, mtime)
}

func (sh *fileSystemShare) Umount() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.unmounted = true
	return nil
}
