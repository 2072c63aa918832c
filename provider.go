package smbprovider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"time"

	"github.com/absfs/smbprovider/fsprovider"
)

// Provider implements fsprovider.Provider on top of one SMB share.
type Provider struct {
	config   *Config
	paths    *resolver
	sessions *sessionManager
	log      Logger
	metrics  Metrics
}

// Ensure Provider implements fsprovider.Provider.
var _ fsprovider.Provider = (*Provider)(nil)

func init() {
	fsprovider.Register("smb", Open)
}

// Open is the host entry point: it decodes the configuration map and
// connects a provider scoped to root.
func Open(root string, config map[string]any) (fsprovider.Provider, error) {
	cfg, err := DecodeConfig(config)
	if err != nil {
		return nil, err
	}
	return New(root, cfg)
}

// New connects to the share described by config and returns a provider
// scoped to root.
func New(root string, config *Config) (*Provider, error) {
	return NewWithFactory(root, config, &RealConnectionFactory{})
}

// NewWithFactory is New with a custom connection factory.
func NewWithFactory(root string, config *Config, factory ConnectionFactory) (*Provider, error) {
	if config == nil || factory == nil {
		return nil, ErrInvalidConfig
	}

	// Set defaults and validate
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := validatePath(root); err != nil {
		return nil, fmt.Errorf("%w: root %q", ErrInvalidConfig, root)
	}

	log := config.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	sessions, err := newSessionManager(context.Background(), config, factory, log)
	if err != nil {
		return nil, fmt.Errorf("smb provider: %w", err)
	}

	return &Provider{
		config:   config,
		paths:    newResolver(config.Host, config.Share, config.ProviderRoot, root),
		sessions: sessions,
		log:      log,
		metrics:  config.Metrics,
	}, nil
}

// target is a caller path resolved into every form the provider needs.
type target struct {
	logical LogicalPath
	full    string // provider root + adapter root + logical, forward slashes
	name    string // share-relative name handed to the SMB client
}

func (p *Provider) resolve(op, name string) (target, error) {
	if err := validatePath(name); err != nil {
		return target{}, wrapPathError(op, name, err)
	}

	full := p.paths.fullPath(name)
	t := target{
		logical: ParseLogicalPath(name),
		full:    full,
		name:    p.paths.sharePath(full),
	}

	p.log.Debug(op,
		"path", name,
		"full_path", full,
		"smb_path", p.paths.protocolPath(full))

	return t, nil
}

// child returns the target for a direct child of t.
func (p *Provider) child(t target, name string) target {
	full := joinFull(t.full, name)
	return target{
		logical: ParseLogicalPath(p.paths.logical(full)),
		full:    full,
		name:    p.paths.sharePath(full),
	}
}

// classify stats name once and reports whether it is a file, a directory
// or missing.
func classify(share SMBShare, name string) (fsprovider.Kind, fs.FileInfo, error) {
	info, err := share.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotDirectory) {
			return fsprovider.KindMissing, nil, nil
		}
		return fsprovider.KindMissing, nil, err
	}
	if info.IsDir() {
		return fsprovider.KindDirectory, info, nil
	}
	return fsprovider.KindFile, info, nil
}

// open resolves name, fetches the share and classifies the target.
func (p *Provider) open(op, name string) (SMBShare, target, fsprovider.Kind, fs.FileInfo, error) {
	t, err := p.resolve(op, name)
	if err != nil {
		return nil, t, fsprovider.KindMissing, nil, err
	}

	share, err := p.sessions.get()
	if err != nil {
		return nil, t, fsprovider.KindMissing, nil, wrapPathError(op, name, err)
	}

	kind, info, err := classify(share, t.name)
	if err != nil {
		return nil, t, kind, nil, wrapPathError(op, name, err)
	}
	return share, t, kind, info, nil
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Stat describes the object at name. Missing objects are reported with
// KindMissing and a nil error.
func (p *Provider) Stat(name string) (entry fsprovider.EntryInfo, err error) {
	defer p.observe("stat", time.Now(), &err)

	_, t, kind, info, err := p.open("stat", name)
	if err != nil {
		return fsprovider.EntryInfo{}, err
	}

	entry = fsprovider.EntryInfo{Path: t.logical.String(), Kind: kind}
	switch kind {
	case fsprovider.KindFile:
		entry.Size = info.Size()
		entry.LastModified = millis(info.ModTime())
	case fsprovider.KindDirectory:
		entry.LastModified = millis(info.ModTime())
	}
	return entry, nil
}

// SetLastModified sets the modification time of name to lastModified
// epoch milliseconds, keeping the access time.
func (p *Provider) SetLastModified(name string, lastModified int64) (ok bool, err error) {
	defer p.observe("set_last_modified", time.Now(), &err)

	share, t, kind, info, err := p.open("chtimes", name)
	if err != nil {
		return false, err
	}
	if kind == fsprovider.KindMissing {
		return false, nil
	}

	err = share.Chtimes(t.name, accessTime(info), time.UnixMilli(lastModified))
	if errors.Is(err, ErrUnsupported) {
		p.log.Warn("backend refused to change times", "path", t.logical.String(), "error", err)
		return false, nil
	}
	if err != nil {
		return false, wrapPathError("chtimes", name, err)
	}
	return true, nil
}

// Browse describes name and, for a directory, its direct children.
func (p *Provider) Browse(name string) (res fsprovider.BrowseResult, err error) {
	defer p.observe("browse", time.Now(), &err)

	share, t, kind, info, err := p.open("browse", name)
	if err != nil {
		return fsprovider.BrowseResult{}, err
	}

	switch kind {
	case fsprovider.KindMissing:
		return fsprovider.BrowseResult{Exists: false}, nil
	case fsprovider.KindFile:
		return fsprovider.BrowseResult{
			FullPath: t.logical.String(),
			Exists:   true,
			Size:     info.Size(),
		}, nil
	}

	infos, err := share.ReadDir(t.name)
	if err != nil {
		return fsprovider.BrowseResult{}, wrapPathError("browse", name, err)
	}

	children := make([]fsprovider.BrowseResult, 0, len(infos))
	for _, ci := range infos {
		c := fsprovider.BrowseResult{
			FullPath:  t.logical.Join(ci.Name()).String(),
			Exists:    true,
			Directory: ci.IsDir(),
		}
		if !ci.IsDir() {
			c.Size = ci.Size()
		}
		children = append(children, c)
	}

	return fsprovider.BrowseResult{
		FullPath:  t.logical.String(),
		Exists:    true,
		Directory: true,
		Children:  children,
	}, nil
}

// Enumerate lists every file below name with paths relative to the
// provider root. It returns nil when name does not exist. With
// firstNonEmpty the walk stops after the first file holding data.
func (p *Provider) Enumerate(name string, firstNonEmpty bool) (entries []fsprovider.FileEntry, err error) {
	defer p.observe("enumerate", time.Now(), &err)

	share, t, kind, info, err := p.open("enumerate", name)
	if err != nil {
		return nil, err
	}

	switch kind {
	case fsprovider.KindMissing:
		return nil, nil
	case fsprovider.KindFile:
		return []fsprovider.FileEntry{fileEntry(t, info)}, nil
	}

	entries = []fsprovider.FileEntry{}
	_, err = p.walk(share, t, func(ft target, fi fs.FileInfo) bool {
		entries = append(entries, fileEntry(ft, fi))
		return firstNonEmpty && fi.Size() > 0
	})
	if err != nil {
		return nil, wrapPathError("enumerate", name, err)
	}
	return entries, nil
}

func fileEntry(t target, info fs.FileInfo) fsprovider.FileEntry {
	return fsprovider.FileEntry{
		Path:         t.logical.String(),
		Size:         info.Size(),
		LastModified: millis(info.ModTime()),
	}
}

// walk visits every file below dir depth first, in listing order. visit
// returns true to stop the walk, in which case walk reports stopped.
func (p *Provider) walk(share SMBShare, dir target, visit func(target, fs.FileInfo) bool) (stopped bool, err error) {
	infos, err := share.ReadDir(dir.name)
	if err != nil {
		return false, err
	}

	for _, info := range infos {
		c := p.child(dir, info.Name())
		if info.IsDir() {
			stopped, err = p.walk(share, c, visit)
		} else {
			stopped = visit(c, info)
		}
		if stopped || err != nil {
			return stopped, err
		}
	}
	return false, nil
}

// DeleteRecursive removes name and everything below it. It returns 1 for
// a single file and 0 otherwise; the number of files removed from a
// directory tree is only logged.
func (p *Provider) DeleteRecursive(name string) (n int, err error) {
	defer p.observe("delete_recursive", time.Now(), &err)

	share, t, kind, _, err := p.open("delete", name)
	if err != nil {
		return 0, err
	}

	switch kind {
	case fsprovider.KindMissing:
		return 0, nil
	case fsprovider.KindFile:
		if err := share.Remove(t.name); err != nil {
			return 0, wrapPathError("delete", name, err)
		}
		return 1, nil
	}

	removed, err := p.removeTree(share, t)
	p.log.Debug("removed directory tree", "path", t.logical.String(), "files", removed)
	if err != nil {
		return 0, wrapPathError("delete", name, err)
	}
	return 0, nil
}

// removeTree deletes the contents of dir and then dir itself. The share
// root is emptied but never removed.
func (p *Provider) removeTree(share SMBShare, dir target) (int, error) {
	infos, err := share.ReadDir(dir.name)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, info := range infos {
		c := p.child(dir, info.Name())
		if info.IsDir() {
			n, err := p.removeTree(share, c)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}
		if err := share.Remove(c.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return count, err
		}
		count++
	}

	if dir.name == "" {
		return count, nil
	}
	if err := share.Remove(dir.name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return count, err
	}
	return count, nil
}

// Move renames from to to. It returns false if from does not exist and
// true without touching the share when both name the same object. A
// destination directory receives the source under its base name; a
// destination file is replaced by a source file.
func (p *Provider) Move(from, to string) (ok bool, err error) {
	defer p.observe("move", time.Now(), &err)

	share, src, kind, _, err := p.open("move", from)
	if err != nil {
		return false, err
	}
	if kind == fsprovider.KindMissing {
		return false, nil
	}

	dst, err := p.resolve("move", to)
	if err != nil {
		return false, err
	}
	if src.logical == dst.logical {
		return true, nil
	}

	dkind, _, err := classify(share, dst.name)
	if err != nil {
		return false, wrapPathError("move", to, err)
	}
	if dkind == fsprovider.KindDirectory {
		dst = p.child(dst, src.logical.Base())
		if src.logical == dst.logical {
			return true, nil
		}
		if dkind, _, err = classify(share, dst.name); err != nil {
			return false, wrapPathError("move", to, err)
		}
	}

	switch {
	case dkind == fsprovider.KindFile && kind == fsprovider.KindFile:
		if err := share.Remove(dst.name); err != nil {
			return false, wrapPathError("move", to, err)
		}
	case dkind == fsprovider.KindMissing:
		if err := p.mkdirAll(share, path.Dir(dst.full)); err != nil {
			return false, wrapPathError("move", to, err)
		}
	}

	if err := share.Rename(src.name, dst.name); err != nil {
		return false, wrapPathError("move", from, err)
	}
	return true, nil
}

// Close releases the SMB session.
func (p *Provider) Close() error {
	return p.sessions.Close()
}
