package smbprovider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_Lifecycle(t *testing.T) {
	backend := NewMockBackend()
	factory := NewMockConnectionFactory(backend)
	log := &captureLogger{}

	m, err := newSessionManager(context.Background(), testConfig(), factory, log)
	require.NoError(t, err)
	assert.Equal(t, 1, factory.ConnectionsMade())

	share, err := m.get()
	require.NoError(t, err)
	require.NotNil(t, share)

	again, err := m.get()
	require.NoError(t, err)
	assert.Same(t, share.(*MockShare), again.(*MockShare), "manager must hand out the same share")

	require.NoError(t, m.Close())
	_, err = m.get()
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, ok := log.find("smb session closed")
	assert.True(t, ok)
}

func TestSessionManager_ConnectFailure(t *testing.T) {
	factory := NewMockConnectionFactory(NewMockBackend())
	factory.ConnectError = errors.New("connection refused")

	m, err := newSessionManager(context.Background(), testConfig(), factory, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestSessionManager_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSessionManager(ctx, testConfig(), NewMockConnectionFactory(NewMockBackend()), slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionManager_MountFailure(t *testing.T) {
	backend := NewMockBackend()
	backend.SetOperationError("mount", errors.New("bad network name"))

	_, err := newSessionManager(context.Background(), testConfig(), NewMockConnectionFactory(backend), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestSessionManager_ConcurrentClose(t *testing.T) {
	backend := NewMockBackend()
	m, err := newSessionManager(context.Background(), testConfig(), NewMockConnectionFactory(backend), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Close()
		}()
		go func() {
			defer wg.Done()
			_, _ = m.get()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.CountOperations("logoff"))
	assert.Equal(t, 1, backend.CountOperations("umount"))
}
