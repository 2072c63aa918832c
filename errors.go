package smbprovider

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hirochachacha/go-smb2"
)

var (
	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionClosed indicates the session has been released.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrInvalidPath indicates the path is invalid.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound indicates the path does not exist where it had to.
	ErrNotFound = errors.New("path does not exist or is not a file")

	// ErrNotDirectory indicates the path is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrUnsupported indicates the backend cannot perform the operation.
	ErrUnsupported = fmt.Errorf("operation not supported by backend: %w", errors.ErrUnsupported)
)

// wrapPathError wraps an error with operation and path information.
func wrapPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	// If it's already a PathError for the same path, don't double-wrap
	var pe *fs.PathError
	if errors.As(err, &pe) && pe.Path == path {
		return err
	}

	return &fs.PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// NT status codes the provider branches on.
const (
	statusAccessDenied          = 0xC0000022
	statusNoSuchFile            = 0xC000000F
	statusObjectNameNotFound    = 0xC0000034
	statusObjectNameCollision   = 0xC0000035
	statusObjectPathNotFound    = 0xC000003A
	statusNotSupported          = 0xC00000BB
	statusInvalidDeviceRequest  = 0xC0000010
	statusNotADirectory         = 0xC0000103
	statusObjectNameInvalid     = 0xC0000033
	statusUserSessionDeleted    = 0xC0000203
	statusNetworkNameDeleted    = 0xC00000C9
	statusLogonFailure          = 0xC000006D
	statusInvalidInfoClass      = 0xC0000003
	statusMediaWriteProtected   = 0xC00000A2
	statusInvalidParameter      = 0xC000000D
	statusSharingViolation      = 0xC0000043
	statusObjectPathSyntaxBad   = 0xC000003B
	statusInvalidDeviceState    = 0xC0000184
	statusNotImplemented        = 0xC0000002
	statusFileClosed            = 0xC0000128
	statusNetworkSessionExpired = 0xC000035C
)

// convertError maps SMB response errors onto fs and package sentinels so
// callers can test them with errors.Is. The original error stays wrapped.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	// Already a standard error
	if errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, fs.ErrClosed) ||
		errors.Is(err, ErrUnsupported) {
		return err
	}

	var re *smb2.ResponseError
	if !errors.As(err, &re) {
		return err
	}

	switch re.Code {
	case statusNoSuchFile, statusObjectNameNotFound, statusObjectPathNotFound:
		return fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	case statusObjectNameCollision:
		return fmt.Errorf("%w: %w", fs.ErrExist, err)
	case statusAccessDenied, statusLogonFailure, statusMediaWriteProtected, statusSharingViolation:
		return fmt.Errorf("%w: %w", fs.ErrPermission, err)
	case statusNotSupported, statusInvalidDeviceRequest, statusNotImplemented, statusInvalidInfoClass:
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	case statusNotADirectory:
		return fmt.Errorf("%w: %w", ErrNotDirectory, err)
	case statusObjectNameInvalid, statusObjectPathSyntaxBad, statusInvalidParameter:
		return fmt.Errorf("%w: %w", ErrInvalidPath, err)
	case statusUserSessionDeleted, statusNetworkNameDeleted, statusNetworkSessionExpired,
		statusFileClosed, statusInvalidDeviceState:
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}

	return err
}
