// Package file stores the worker cache as a JSON object keyed by worker_id.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"minerwatch/internal/model"

	"github.com/tidwall/pretty"
)

// CacheStore JSON file backed cache store
type CacheStore struct {
	path string
}

// NewCacheStore creates a store writing to path
func NewCacheStore(path string) *CacheStore {
	return &CacheStore{path: path}
}

// Name implements interfaces.CacheStore
func (s *CacheStore) Name() string {
	return "file:" + s.path
}

// Load reads the cache file in key order. A missing file is an empty cache.
func (s *CacheStore) Load(ctx context.Context) ([]model.WorkerRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.WorkerRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.WorkerRecord{}, nil
	}

	records, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}
	return records, nil
}

// decodeOrdered decodes {"id": record, ...} keeping key order.
// The key is authoritative for the record's worker_id.
func decodeOrdered(data []byte) ([]model.WorkerRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	records := make([]model.WorkerRecord, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var record model.WorkerRecord
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("worker %s: %w", key, err)
		}
		record.WorkerID = key
		records = append(records, record)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after cache object")
	}
	return records, nil
}

// Save writes records atomically: temp file in the same directory, then rename
func (s *CacheStore) Save(ctx context.Context, records []model.WorkerRecord) error {
	data, err := encodeOrdered(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func encodeOrdered(records []model.WorkerRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.WorkerID)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal worker id: %w", err)
		}
		value, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal worker %s: %w", r.WorkerID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return pretty.PrettyOptions(buf.Bytes(), &pretty.Options{
		Width:    80,
		Prefix:   "",
		Indent:   "    ",
		SortKeys: false,
	}), nil
}
