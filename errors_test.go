package smbprovider

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/hirochachacha/go-smb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPathError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		path     string
		err      error
		wantNil  bool
		wantOp   string
		wantPath string
	}{
		{
			name:    "nil error returns nil",
			op:      "read",
			path:    "/path",
			wantNil: true,
		},
		{
			name:     "wraps basic error",
			op:       "read",
			path:     "/path/to/file",
			err:      errors.New("base error"),
			wantOp:   "read",
			wantPath: "/path/to/file",
		},
		{
			name: "doesn't double-wrap same path",
			op:   "write",
			path: "/path/to/file",
			err: &fs.PathError{
				Op:   "read",
				Path: "/path/to/file",
				Err:  errors.New("base error"),
			},
			wantOp:   "read",
			wantPath: "/path/to/file",
		},
		{
			name: "wraps other path",
			op:   "move",
			path: "/dst",
			err: &fs.PathError{
				Op:   "read",
				Path: "/src",
				Err:  errors.New("base error"),
			},
			wantOp:   "move",
			wantPath: "/dst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := wrapPathError(tt.op, tt.path, tt.err)
			if tt.wantNil {
				assert.NoError(t, result)
				return
			}

			var pathErr *fs.PathError
			require.ErrorAs(t, result, &pathErr)
			assert.Equal(t, tt.wantOp, pathErr.Op)
			assert.Equal(t, tt.wantPath, pathErr.Path)
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestConvertError(t *testing.T) {
	respErr := func(code uint32) error {
		return &fs.PathError{Op: "open", Path: `a\b`, Err: &smb2.ResponseError{Code: code}}
	}

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "not exist passes through", err: fs.ErrNotExist, expected: fs.ErrNotExist},
		{name: "exist passes through", err: fs.ErrExist, expected: fs.ErrExist},
		{name: "permission passes through", err: fs.ErrPermission, expected: fs.ErrPermission},
		{name: "no such file", err: respErr(statusNoSuchFile), expected: fs.ErrNotExist},
		{name: "object name not found", err: respErr(statusObjectNameNotFound), expected: fs.ErrNotExist},
		{name: "object path not found", err: respErr(statusObjectPathNotFound), expected: fs.ErrNotExist},
		{name: "name collision", err: respErr(statusObjectNameCollision), expected: fs.ErrExist},
		{name: "access denied", err: respErr(statusAccessDenied), expected: fs.ErrPermission},
		{name: "logon failure", err: respErr(statusLogonFailure), expected: fs.ErrPermission},
		{name: "not supported", err: respErr(statusNotSupported), expected: ErrUnsupported},
		{name: "invalid device request", err: respErr(statusInvalidDeviceRequest), expected: ErrUnsupported},
		{name: "not a directory", err: respErr(statusNotADirectory), expected: ErrNotDirectory},
		{name: "bad name", err: respErr(statusObjectNameInvalid), expected: ErrInvalidPath},
		{name: "session deleted", err: respErr(statusUserSessionDeleted), expected: ErrConnectionClosed},
		{name: "network name deleted", err: respErr(statusNetworkNameDeleted), expected: ErrConnectionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertError(tt.err)
			assert.ErrorIs(t, got, tt.expected)
			assert.ErrorIs(t, got, tt.err, "original error must stay in the chain")
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, convertError(nil))
	})

	t.Run("unknown code is returned unchanged", func(t *testing.T) {
		err := respErr(0xC0001234)
		assert.Same(t, err, convertError(err))
	})

	t.Run("plain error is returned unchanged", func(t *testing.T) {
		err := errors.New("boom")
		assert.Same(t, err, convertError(err))
	})
}

func TestErrorConstants(t *testing.T) {
	sentinels := []error{
		ErrInvalidConfig,
		ErrConnectionClosed,
		ErrInvalidPath,
		ErrNotFound,
		ErrNotDirectory,
		ErrUnsupported,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}

	assert.ErrorIs(t, ErrUnsupported, errors.ErrUnsupported)
	assert.Equal(t, "path does not exist or is not a file", ErrNotFound.Error())
}
