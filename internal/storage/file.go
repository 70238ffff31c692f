package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSlot stores each key as <dir>/<key>.json.
type FileSlot struct {
	dir   string
	quota int64
}

var _ Slot = (*FileSlot)(nil)

// FileSlotOption configures a FileSlot.
type FileSlotOption func(*FileSlot)

// WithQuota caps the size of a single blob. A value <= 0 disables the cap.
func WithQuota(bytes int64) FileSlotOption {
	return func(s *FileSlot) {
		s.quota = bytes
	}
}

// NewFileSlot returns a slot rooted at dir. The directory is created on the
// first write.
func NewFileSlot(dir string, opts ...FileSlotOption) *FileSlot {
	s := &FileSlot{
		dir:   dir,
		quota: DefaultQuotaBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the slot directory.
func (s *FileSlot) Dir() string {
	return s.dir
}

// Path returns the file backing key.
func (s *FileSlot) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the blob for key.
func (s *FileSlot) Get(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return data, true, nil
}

// Set writes the blob for key, replacing any previous value.
func (s *FileSlot) Set(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.quota > 0 && int64(len(data)) > s.quota {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrQuotaExceeded, len(data), s.quota)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create dir: %v", ErrUnavailable, err)
	}

	// Write to a sibling file first so a failed write leaves the old blob intact.
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
