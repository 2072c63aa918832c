package smbprovider

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/absfs/smbprovider/fsprovider"
)

// Read streams the contents of the file at name into w. A positive limit
// caps the number of bytes copied; zero or less copies the whole file.
// Reading a directory or a missing path fails with ErrNotFound.
func (p *Provider) Read(name string, w io.Writer, limit int64) (err error) {
	defer p.observe("read", time.Now(), &err)

	share, t, kind, _, err := p.open("read", name)
	if err != nil {
		return err
	}
	if kind != fsprovider.KindFile {
		return wrapPathError("read", name, ErrNotFound)
	}

	f, err := share.OpenFile(t.name, os.O_RDONLY, 0)
	if err != nil {
		return wrapPathError("read", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = wrapPathError("read", name, cerr)
		}
	}()

	var src io.Reader = f
	if limit > 0 {
		src = io.LimitReader(f, limit)
	}

	n, err := io.CopyBuffer(w, src, make([]byte, p.config.ReadBufferSize))
	p.observeBytes("read", n)
	if err != nil {
		return wrapPathError("read", name, err)
	}
	return nil
}

// Write replaces the file at name with everything read from r, creating
// missing parent directories first.
func (p *Provider) Write(name string, r io.Reader) (err error) {
	defer p.observe("write", time.Now(), &err)

	t, err := p.resolve("write", name)
	if err != nil {
		return err
	}
	if t.name == "" {
		return wrapPathError("write", name, ErrInvalidPath)
	}

	share, err := p.sessions.get()
	if err != nil {
		return wrapPathError("write", name, err)
	}

	if err := p.mkdirAll(share, path.Dir(t.full)); err != nil {
		return wrapPathError("write", name, err)
	}

	f, err := share.OpenFile(t.name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return wrapPathError("write", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = wrapPathError("write", name, cerr)
		}
	}()

	n, err := io.CopyBuffer(f, r, make([]byte, p.config.WriteBufferSize))
	p.observeBytes("write", n)
	if err != nil {
		return wrapPathError("write", name, err)
	}
	return nil
}

// mkdirAll creates the directory at full, a path as produced by the
// resolver, along with any missing parents.
func (p *Provider) mkdirAll(share SMBShare, full string) error {
	name := p.paths.sharePath(full)
	if name == "" {
		return nil
	}

	info, err := share.Stat(name)
	if err == nil {
		if !info.IsDir() {
			return ErrNotDirectory
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := p.mkdirAll(share, path.Dir(full)); err != nil {
		return err
	}

	if err := share.Mkdir(name, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}
