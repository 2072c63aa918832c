package smbprovider

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockBackend is an in-memory share used in tests. It records every
// primitive the provider issues and can inject errors per path or per
// operation.
type MockBackend struct {
	mu sync.RWMutex

	// files maps "/"-rooted clean paths to entries; "/" is the share root
	files map[string]*mockEntry

	errorOnPath map[string]error
	errorOnOp   map[string]error

	// operation tracking (separate mutex to avoid lock contention)
	opMu       sync.Mutex
	operations []MockOperation
}

type mockEntry struct {
	name    string
	content []byte
	isDir   bool
	modTime time.Time
	atime   time.Time
}

// MockOperation records one primitive issued against the backend.
type MockOperation struct {
	Op   string
	Path string
	Args []any
}

// NewMockBackend creates a backend holding an empty share root.
func NewMockBackend() *MockBackend {
	now := time.Now()
	return &MockBackend{
		files: map[string]*mockEntry{
			"/": {name: "/", isDir: true, modTime: now, atime: now},
		},
		errorOnPath: make(map[string]error),
		errorOnOp:   make(map[string]error),
	}
}

// AddFile stores a file, creating missing parent directories.
func (m *MockBackend) AddFile(name string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = normalizeMockPath(name)
	now := time.Now()
	m.files[name] = &mockEntry{
		name:    path.Base(name),
		content: append([]byte(nil), content...),
		modTime: now,
		atime:   now,
	}
	m.ensureParentDirs(name)
}

// AddDir stores a directory, creating missing parent directories.
func (m *MockBackend) AddDir(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = normalizeMockPath(name)
	now := time.Now()
	m.files[name] = &mockEntry{name: path.Base(name), isDir: true, modTime: now, atime: now}
	m.ensureParentDirs(name)
}

// SetTimes overrides the access and modification times of an entry.
func (m *MockBackend) SetTimes(name string, atime, mtime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.files[normalizeMockPath(name)]; ok {
		e.atime = atime
		e.modTime = mtime
	}
}

// Times returns the access and modification times of an entry.
func (m *MockBackend) Times(name string) (atime, mtime time.Time, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.files[normalizeMockPath(name)]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return e.atime, e.modTime, true
}

// SetError makes every operation on name fail with err.
func (m *MockBackend) SetError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorOnPath[normalizeMockPath(name)] = err
}

// SetOperationError makes every op ("stat", "open", "readdir", "mkdir",
// "remove", "rename", "chtimes", "read", "write", "close") fail with err.
func (m *MockBackend) SetOperationError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorOnOp[op] = err
}

// ClearErrors removes all injected errors.
func (m *MockBackend) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorOnPath = make(map[string]error)
	m.errorOnOp = make(map[string]error)
}

// GetOperations returns all recorded operations.
func (m *MockBackend) GetOperations() []MockOperation {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	ops := make([]MockOperation, len(m.operations))
	copy(ops, m.operations)
	return ops
}

// CountOperations returns how many times op was issued.
func (m *MockBackend) CountOperations(op string) int {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	n := 0
	for _, o := range m.operations {
		if o.Op == op {
			n++
		}
	}
	return n
}

// ClearOperations clears the operation history.
func (m *MockBackend) ClearOperations() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.operations = nil
}

// GetFile returns a copy of a file's content.
func (m *MockBackend) GetFile(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.files[normalizeMockPath(name)]; ok && !e.isDir {
		return append([]byte(nil), e.content...), true
	}
	return nil, false
}

// Exists reports whether name is present, and whether it is a directory.
func (m *MockBackend) Exists(name string) (exists, isDir bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.files[normalizeMockPath(name)]
	if !ok {
		return false, false
	}
	return true, e.isDir
}

func (m *MockBackend) recordOp(op, name string, args ...any) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.operations = append(m.operations, MockOperation{Op: op, Path: name, Args: args})
}

// checkError returns the injected error for op or name; callers hold mu.
func (m *MockBackend) checkError(op, name string) error {
	if err, ok := m.errorOnOp[op]; ok {
		return err
	}
	if err, ok := m.errorOnPath[name]; ok {
		return err
	}
	return nil
}

func (m *MockBackend) ensureParentDirs(p string) {
	dir := path.Dir(p)
	if dir == p || dir == "/" {
		return
	}
	if _, ok := m.files[dir]; !ok {
		now := time.Now()
		m.files[dir] = &mockEntry{name: path.Base(dir), isDir: true, modTime: now, atime: now}
		m.ensureParentDirs(dir)
	}
}

func (m *MockBackend) hasChildren(dir string) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range m.files {
		if p != dir && strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// normalizeMockPath maps a share-relative name ("" or `a\b`) or a
// slash path onto the backend key.
func normalizeMockPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Clean("/" + p)
}

// MockSession implements SMBSession.
type MockSession struct {
	backend   *MockBackend
	mu        sync.Mutex
	loggedOff bool
}

// Mount returns a share view of the backend.
func (s *MockSession) Mount(shareName string) (SMBShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loggedOff {
		return nil, ErrConnectionClosed
	}

	s.backend.mu.RLock()
	err := s.backend.checkError("mount", shareName)
	s.backend.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	s.backend.recordOp("mount", shareName)
	return &MockShare{backend: s.backend, shareName: shareName}, nil
}

// Logoff ends the session.
func (s *MockSession) Logoff() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loggedOff {
		return nil
	}
	s.loggedOff = true
	s.backend.recordOp("logoff", "")
	return nil
}

// MockShare implements SMBShare against a MockBackend.
type MockShare struct {
	backend   *MockBackend
	shareName string

	mu        sync.Mutex
	unmounted bool
}

func (sh *MockShare) mounted() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.unmounted {
		return ErrConnectionClosed
	}
	return nil
}

// OpenFile opens name. Creating a file requires its parent to exist.
func (sh *MockShare) OpenFile(name string, flag int, perm fs.FileMode) (SMBFile, error) {
	if err := sh.mounted(); err != nil {
		return nil, err
	}

	b := sh.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	name = normalizeMockPath(name)
	if err := b.checkError("open", name); err != nil {
		return nil, err
	}
	b.recordOp("open", name, flag, perm)

	e, exists := b.files[name]
	if !exists {
		if flag&os.O_CREATE == 0 {
			return nil, fs.ErrNotExist
		}
		parent, ok := b.files[path.Dir(name)]
		if !ok || !parent.isDir {
			return nil, fs.ErrNotExist
		}
		now := time.Now()
		e = &mockEntry{name: path.Base(name), modTime: now, atime: now}
		b.files[name] = e
	} else if flag&os.O_EXCL != 0 && flag&os.O_CREATE != 0 {
		return nil, fs.ErrExist
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0
	if e.isDir && writable {
		return nil, ErrUnsupported
	}
	if writable && flag&os.O_TRUNC != 0 {
		e.content = nil
		e.modTime = time.Now()
	}

	return &MockFile{backend: b, path: name, entry: e, writable: writable}, nil
}

// Stat returns the entry at name.
func (sh *MockShare) Stat(name string) (fs.FileInfo, error) {
	if err := sh.mounted(); err != nil {
		return nil, err
	}

	b := sh.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	name = normalizeMockPath(name)
	if err := b.checkError("stat", name); err != nil {
		return nil, err
	}
	b.recordOp("stat", name)

	e, ok := b.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return e.info(), nil
}

// ReadDir lists the direct children of name sorted by name.
func (sh *MockShare) ReadDir(name string) ([]fs.FileInfo, error) {
	if err := sh.mounted(); err != nil {
		return nil, err
	}

	b := sh.backend
	b.mu.RLock()
	defer b.mu.RUnlock()

	name = normalizeMockPath(name)
	if err := b.checkError("readdir", name); err != nil {
		return nil, err
	}
	b.recordOp("readdir", name)

	dir, ok := b.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	if !dir.isDir {
		return nil, ErrNotDirectory
	}

	prefix := strings.TrimSuffix(name, "/") + "/"
	var infos []fs.FileInfo
	for p, e := range b.files {
		if p == name || !strings.HasPrefix(p, prefix) {
			continue
		}
		if strings.Contains(p[len(prefix):], "/") {
			continue
		}
		infos = append(infos, e.info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})
	return infos, nil
}

// Mkdir creates one directory whose parent must exist.
func (sh *MockShare) Mkdir(name string, perm fs.FileMode) error {
	if err := sh.mounted(); err != nil {
		return err
	}

	b := sh.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	name = normalizeMockPath(name)
	if err := b.checkError("mkdir", name); err != nil {
		return err
	}
	b.recordOp("mkdir", name, perm)

	if _, exists := b.files[name]; exists {
		return fs.ErrExist
	}
	parent, ok := b.files[path.Dir(name)]
	if !ok {
		return fs.ErrNotExist
	}
	if !parent.isDir {
		return ErrNotDirectory
	}

	now := time.Now()
	b.files[name] = &mockEntry{name: path.Base(name), isDir: true, modTime: now, atime: now}
	return nil
}

// Remove deletes a file or an empty directory.
func (sh *MockShare) Remove(name string) error {
	if err := sh.mounted(); err != nil {
		return err
	}

	b := sh.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	name = normalizeMockPath(name)
	if err := b.checkError("remove", name); err != nil {
		return err
	}
	b.recordOp("remove", name)

	e, ok := b.files[name]
	if !ok {
		return fs.ErrNotExist
	}
	if e.isDir && b.hasChildren(name) {
		return errors.New("directory not empty")
	}
	delete(b.files, name)
	return nil
}

// Rename moves oldname to newname. The destination must not exist and
// its parent must.
func (sh *MockShare) Rename(oldname, newname string) error {
	if err := sh.mounted(); err != nil {
		return err
	}

	b := sh.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	oldname = normalizeMockPath(oldname)
	newname = normalizeMockPath(newname)
	if err := b.checkError("rename", oldname); err != nil {
		return err
	}
	b.recordOp("rename", oldname, newname)

	e, ok := b.files[oldname]
	if !ok {
		return fs.ErrNotExist
	}
	if _, exists := b.files[newname]; exists {
		return fs.ErrExist
	}
	if parent, ok := b.files[path.Dir(newname)]; !ok || !parent.isDir {
		return fs.ErrNotExist
	}
	if e.isDir && strings.HasPrefix(newname, oldname+"/") {
		return ErrInvalidPath
	}

	delete(b.files, oldname)
	e.name = path.Base(newname)
	b.files[newname] = e

	if e.isDir {
		for p, child := range b.files {
			if strings.HasPrefix(p, oldname+"/") {
				delete(b.files, p)
				b.files[newname+strings.TrimPrefix(p, oldname)] = child
			}
		}
	}
	return nil
}

// Chtimes sets the times of name. A zero atime keeps the access time.
func (sh *MockShare) Chtimes(name string, atime, mtime time.Time) error {
	if err := sh.mounted(); err != nil {
		return err
	}

	b := sh.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	name = normalizeMockPath(name)
	if err := b.checkError("chtimes", name); err != nil {
		return err
	}
	b.recordOp("chtimes", name, atime, mtime)

	e, ok := b.files[name]
	if !ok {
		return fs.ErrNotExist
	}
	if !atime.IsZero() {
		e.atime = atime
	}
	e.modTime = mtime
	return nil
}

// Umount unmounts the share.
func (sh *MockShare) Umount() error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.unmounted {
		return nil
	}
	sh.unmounted = true
	sh.backend.recordOp("umount", sh.shareName)
	return nil
}

// MockFile implements SMBFile.
type MockFile struct {
	backend  *MockBackend
	path     string
	entry    *mockEntry
	writable bool

	mu     sync.Mutex
	offset int
	closed bool
}

// Read reads from the current offset.
func (f *MockFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}

	f.backend.mu.RLock()
	defer f.backend.mu.RUnlock()

	if err := f.backend.checkError("read", f.path); err != nil {
		return 0, err
	}
	if f.entry.isDir {
		return 0, ErrNotFound
	}
	if f.offset >= len(f.entry.content) {
		return 0, io.EOF
	}

	n := copy(p, f.entry.content[f.offset:])
	f.offset += n
	return n, nil
}

// Write writes at the current offset, growing the file as needed.
func (f *MockFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.writable {
		return 0, fs.ErrPermission
	}

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()

	if err := f.backend.checkError("write", f.path); err != nil {
		return 0, err
	}

	end := f.offset + len(p)
	if end > len(f.entry.content) {
		grown := make([]byte, end)
		copy(grown, f.entry.content)
		f.entry.content = grown
	}
	n := copy(f.entry.content[f.offset:], p)
	f.offset += n
	f.entry.modTime = time.Now()
	return n, nil
}

// Close closes the file. Closing twice is a no-op.
func (f *MockFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	f.backend.recordOp("close", f.path)

	f.backend.mu.RLock()
	defer f.backend.mu.RUnlock()
	return f.backend.checkError("close", f.path)
}

// Stat returns the file's current metadata.
func (f *MockFile) Stat() (fs.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fs.ErrClosed
	}

	f.backend.mu.RLock()
	defer f.backend.mu.RUnlock()
	return f.entry.info(), nil
}

// info snapshots e; callers hold the backend lock.
func (e *mockEntry) info() *mockFileInfo {
	return &mockFileInfo{
		name:    e.name,
		size:    int64(len(e.content)),
		isDir:   e.isDir,
		modTime: e.modTime,
		atime:   e.atime,
	}
}

type mockFileInfo struct {
	name    string
	size    int64
	isDir   bool
	modTime time.Time
	atime   time.Time
}

func (fi *mockFileInfo) Name() string          { return fi.name }
func (fi *mockFileInfo) Size() int64           { return fi.size }
func (fi *mockFileInfo) ModTime() time.Time    { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool           { return fi.isDir }
func (fi *mockFileInfo) Sys() any              { return nil }
func (fi *mockFileInfo) AccessTime() time.Time { return fi.atime }

func (fi *mockFileInfo) Mode() fs.FileMode {
	if fi.isDir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

// MockConnectionFactory implements ConnectionFactory over a MockBackend.
type MockConnectionFactory struct {
	Backend *MockBackend

	// ConnectError, when set, is returned by CreateConnection.
	ConnectError error

	mu              sync.Mutex
	connectionsMade int
	connectAttempts int
}

// NewMockConnectionFactory creates a factory serving backend.
func NewMockConnectionFactory(backend *MockBackend) *MockConnectionFactory {
	return &MockConnectionFactory{Backend: backend}
}

// CreateConnection opens a mock session and mounts config.Share.
func (f *MockConnectionFactory) CreateConnection(ctx context.Context, config *Config) (SMBSession, SMBShare, error) {
	f.mu.Lock()
	f.connectAttempts++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if f.ConnectError != nil {
		return nil, nil, f.ConnectError
	}

	session := &MockSession{backend: f.Backend}
	share, err := session.Mount(config.Share)
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	f.connectionsMade++
	f.mu.Unlock()

	return session, share, nil
}

// ConnectionsMade returns the number of successful connections.
func (f *MockConnectionFactory) ConnectionsMade() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectionsMade
}

// ConnectAttempts returns the total connection attempts.
func (f *MockConnectionFactory) ConnectAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectAttempts
}
