package storage

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every call on an unconfigured Storage
var ErrNotConfigured = errors.New("storage is not configured")

// unconfigured is the Storage used before a backend is configured
type unconfigured struct{}

// NewUnconfigured returns a Storage that is never authorized
func NewUnconfigured() Storage {
	return unconfigured{}
}

func (unconfigured) Upload(context.Context, string, string) error {
	return ErrNotConfigured
}

func (unconfigured) Download(context.Context, string, string) error {
	return ErrNotConfigured
}

func (unconfigured) GetRemoteMarker(context.Context, string) (int64, error) {
	return 0, ErrNotConfigured
}

func (unconfigured) SetRemoteMarker(context.Context, string) error {
	return ErrNotConfigured
}

func (unconfigured) IsAuthorized(context.Context) bool {
	return false
}
