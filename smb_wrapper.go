package smbprovider

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// realSMBSession wraps a go-smb2 Session to implement SMBSession.
type realSMBSession struct {
	session *smb2.Session
	conn    net.Conn
}

// Mount mounts a share and returns an SMBShare interface.
func (s *realSMBSession) Mount(shareName string) (SMBShare, error) {
	share, err := s.session.Mount(shareName)
	if err != nil {
		return nil, convertError(err)
	}
	return &realSMBShare{share: share}, nil
}

// Logoff ends the session and closes the transport.
func (s *realSMBSession) Logoff() error {
	err := s.session.Logoff()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// realSMBShare wraps a go-smb2 Share to implement SMBShare.
type realSMBShare struct {
	share *smb2.Share
}

func (sh *realSMBShare) OpenFile(name string, flag int, perm fs.FileMode) (SMBFile, error) {
	file, err := sh.share.OpenFile(name, flag, perm)
	if err != nil {
		return nil, convertError(err)
	}
	return &realSMBFile{file: file}, nil
}

func (sh *realSMBShare) Stat(name string) (fs.FileInfo, error) {
	info, err := sh.share.Stat(name)
	if err != nil {
		return nil, convertError(err)
	}
	return withAccessTime(info), nil
}

func (sh *realSMBShare) ReadDir(name string) ([]fs.FileInfo, error) {
	infos, err := sh.share.ReadDir(name)
	if err != nil {
		return nil, convertError(err)
	}

	out := make([]fs.FileInfo, 0, len(infos))
	for _, info := range infos {
		if info.Name() == "." || info.Name() == ".." {
			continue
		}
		out = append(out, withAccessTime(info))
	}
	return out, nil
}

func (sh *realSMBShare) Mkdir(name string, perm fs.FileMode) error {
	return convertError(sh.share.Mkdir(name, perm))
}

func (sh *realSMBShare) Remove(name string) error {
	return convertError(sh.share.Remove(name))
}

func (sh *realSMBShare) Rename(oldname, newname string) error {
	return convertError(sh.share.Rename(oldname, newname))
}

// Chtimes changes the access and modification times of a file. SMB has
// no "leave unchanged" marker in go-smb2, so a zero atime is resolved to
// the current access time first.
func (sh *realSMBShare) Chtimes(name string, atime, mtime time.Time) error {
	if atime.IsZero() {
		info, err := sh.Stat(name)
		if err != nil {
			return err
		}
		atime = accessTime(info)
		if atime.IsZero() {
			atime = info.ModTime()
		}
	}
	return convertError(sh.share.Chtimes(name, atime, mtime))
}

func (sh *realSMBShare) Umount() error {
	return sh.share.Umount()
}

// realSMBFile wraps a go-smb2 File to implement SMBFile.
type realSMBFile struct {
	file *smb2.File
}

func (f *realSMBFile) Read(p []byte) (n int, err error) {
	return f.file.Read(p)
}

func (f *realSMBFile) Write(p []byte) (n int, err error) {
	return f.file.Write(p)
}

func (f *realSMBFile) Close() error {
	return f.file.Close()
}

func (f *realSMBFile) Stat() (fs.FileInfo, error) {
	info, err := f.file.Stat()
	if err != nil {
		return nil, convertError(err)
	}
	return withAccessTime(info), nil
}

// smbFileInfo exposes the access time carried by go-smb2's FileStat.
type smbFileInfo struct {
	fs.FileInfo
	atime time.Time
}

func (fi *smbFileInfo) AccessTime() time.Time {
	return fi.atime
}

func withAccessTime(info fs.FileInfo) fs.FileInfo {
	if st, ok := info.(*smb2.FileStat); ok {
		return &smbFileInfo{FileInfo: info, atime: st.LastAccessTime}
	}
	return info
}

// RealConnectionFactory implements ConnectionFactory using real SMB connections.
type RealConnectionFactory struct{}

// CreateConnection dials the server, authenticates with NTLM and mounts
// the configured share.
func (f *RealConnectionFactory) CreateConnection(ctx context.Context, config *Config) (SMBSession, SMBShare, error) {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	// Create TCP connection with timeout
	dialer := &net.Dialer{
		Timeout: config.ConnTimeout,
	}

	ctx, cancel := context.WithTimeout(ctx, config.ConnTimeout)
	defer cancel()

	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	// Create SMB session
	d := &smb2.Dialer{
		Initiator: newInitiator(config),
	}

	// Bound the handshake by the same timeout as the dial
	_ = netConn.SetDeadline(time.Now().Add(config.ConnTimeout))

	session, err := d.Dial(netConn)
	if err != nil {
		netConn.Close()
		return nil, nil, fmt.Errorf("SMB session setup failed: %w", convertError(err))
	}

	// Connect to share
	share, err := session.Mount(config.Share)
	if err != nil {
		_ = session.Logoff()
		netConn.Close()
		return nil, nil, fmt.Errorf("failed to mount share %s: %w", config.Share, convertError(err))
	}

	_ = netConn.SetDeadline(time.Time{})

	return &realSMBSession{session: session, conn: netConn}, &realSMBShare{share: share}, nil
}

// newInitiator builds the NTLM initiator for config. Guest access logs in
// as "Guest" with an empty password unless a username was given.
func newInitiator(config *Config) *smb2.NTLMInitiator {
	initiator := &smb2.NTLMInitiator{
		User:        config.Username,
		Password:    config.Password,
		Domain:      config.Domain,
		Workstation: config.ClientName,
	}
	if config.ServerName != "" {
		initiator.TargetSPN = "cifs/" + config.ServerName
	}
	if config.GuestAccess && initiator.User == "" {
		initiator.User = "Guest"
	}
	return initiator
}
