package storage

import (
	"errors"
	"fmt"
)

// ErrNoStorageAvailable is returned when upload routing exhausts the
// fallback chain without finding a configured service. It is fatal for the
// request and is never retried.
var ErrNoStorageAvailable = errors.New("no storage service available")

// UploadError wraps a backend's native failure during an upload. Unlike the
// best-effort delete/sign/list paths, upload failures must surface so the
// caller never believes a non-existent file was stored.
type UploadError struct {
	Service string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload via %s failed: %v", e.Service, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
