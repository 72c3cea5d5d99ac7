package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileSchemaVersion is the current on-disk record version. The decoder accepts
// any version from 1 up to this value; the encoder always writes the current one.
const fileSchemaVersion = 1

// fileMode restricts the record to the owning user. The file carries a live
// refresh token.
const fileMode = 0o600

// fileRecord is the persisted shape. Append-only: new versions add fields but
// never reinterpret old ones.
type fileRecord struct {
	Version   int               `json:"v"`
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// encodeFileRecord serializes rec. Values is never nil on the wire.
func encodeFileRecord(rec *fileRecord) ([]byte, error) {
	if rec.Values == nil {
		rec.Values = map[string]string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return data, nil
}

// decodeFileRecord parses and structurally validates a persisted record.
func decodeFileRecord(data []byte) (*fileRecord, error) {
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.Version < 1 || rec.Version > fileSchemaVersion {
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, rec.Version)
	}
	if rec.Values == nil {
		rec.Values = map[string]string{}
	}
	return &rec, nil
}

// FileStore defines a public type used by goSession APIs.
//
// FileStore is the durable tier backed by a single JSON file, for deployments
// without Redis. Writes are atomic: the record is written to a temp file in the
// same directory and renamed over the target, so a crash mid-write leaves the
// previous record intact. The file is created with mode 0600.
//
// Docs: docs/storage.md
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore describes the newfilestore operation and its observable behavior.
//
// The parent directory is created if missing.
func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &FileStore{path: path}, nil
}

// load reads the current record. A missing file is an empty record, not an error.
func (s *FileStore) load() (*fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileRecord{Version: fileSchemaVersion, Values: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return decodeFileRecord(data)
}

// flush writes rec atomically via temp file and rename.
func (s *FileStore) flush(rec *fileRecord) error {
	rec.Version = fileSchemaVersion
	rec.UpdatedAt = time.Now().UTC()
	data, err := encodeFileRecord(rec)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".gosession-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetItem describes the getitem operation and its observable behavior.
//
// Performance: 1 file read.
func (s *FileStore) GetItem(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load()
	if err != nil {
		return "", err
	}
	return rec.Values[key], nil
}

// SetItem describes the setitem operation and its observable behavior.
//
// Performance: 1 file read, 1 atomic file write.
func (s *FileStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load()
	if err != nil {
		return err
	}
	rec.Values[key] = value
	return s.flush(rec)
}

// RemoveItem describes the removeitem operation and its observable behavior.
//
// Performance: 1 file read, 1 atomic file write.
func (s *FileStore) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := rec.Values[key]; !ok {
		return nil
	}
	delete(rec.Values, key)
	return s.flush(rec)
}
