// Package storage provides key-value slots that stand in for browser local
// storage. A slot holds opaque blobs addressed by key; callers own the
// encoding.
package storage

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnavailable reports that the slot cannot be read or written.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded reports a write larger than the slot's quota.
	// It wraps ErrUnavailable.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrUnavailable)
	// ErrInvalidKey reports a key that cannot name a slot entry.
	ErrInvalidKey = errors.New("invalid storage key")
)

// DefaultQuotaBytes mirrors the usual browser local storage allowance.
const DefaultQuotaBytes int64 = 5 * 1024 * 1024

// Slot is a persisted key-value store.
type Slot interface {
	// Get returns the blob stored under key. ok is false when the key is
	// absent; err is non-nil only for storage-level faults.
	Get(key string) (data []byte, ok bool, err error)
	// Set overwrites the blob stored under key.
	Set(key string, data []byte) error
}

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateKey rejects keys that are empty or could escape a slot directory.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
