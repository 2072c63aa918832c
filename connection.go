package smbprovider

import (
	"context"
	"errors"
	"sync"
	"time"
)

// sessionManager owns the single authenticated session a provider uses
// for its whole lifetime. It connects once, in newSessionManager, and
// never reconnects.
//
// go-smb2 multiplexes requests over one connection and its Session and
// Share are safe for concurrent use, so the mutex only guards the
// lifecycle state, not individual operations.
type sessionManager struct {
	config *Config
	log    Logger

	mu        sync.RWMutex
	session   SMBSession
	share     SMBShare
	createdAt time.Time
	closed    bool
}

// newSessionManager establishes the session. Any failure, authentication
// included, is returned as is: a manager is never handed out half-built.
func newSessionManager(ctx context.Context, config *Config, factory ConnectionFactory, log Logger) (*sessionManager, error) {
	session, share, err := factory.CreateConnection(ctx, config)
	if err != nil {
		return nil, err
	}

	log.Info("smb session established",
		"host", config.Host,
		"port", config.Port,
		"share", config.Share,
		"user", config.Username,
		"domain_controller", config.DomainController)

	return &sessionManager{
		config:    config,
		log:       log,
		session:   session,
		share:     share,
		createdAt: time.Now(),
	}, nil
}

// get returns the mounted share.
func (m *sessionManager) get() (SMBShare, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrConnectionClosed
	}
	return m.share, nil
}

// Close unmounts the share and logs off. Subsequent calls are no-ops.
func (m *sessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if m.share != nil {
		errs = append(errs, m.share.Umount())
		m.share = nil
	}
	if m.session != nil {
		errs = append(errs, m.session.Logoff())
		m.session = nil
	}

	m.log.Info("smb session closed",
		"host", m.config.Host,
		"share", m.config.Share,
		"uptime", time.Since(m.createdAt).Round(time.Millisecond))

	return errors.Join(errs...)
}
