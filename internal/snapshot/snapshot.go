// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package snapshot exports and imports the contents of a durable store as a
// Zstandard-compressed JSON document.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/keepsake/internal/kv"
)

// Version is the document format written by Export.
const Version = 1

// ErrUnsupportedVersion is returned by Import for documents it cannot read.
var ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

// Document is the decoded snapshot.
type Document struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Entries   map[string]string `json:"entries"`
}

// ListStore is a store whose keys can be enumerated.
type ListStore interface {
	kv.Store
	kv.Lister
}

// Export writes every entry of s to w and returns the number of entries.
func Export(s ListStore, w io.Writer) (int, error) {
	keys, err := s.Keys()
	if err != nil {
		return 0, fmt.Errorf("snapshot: list keys: %w", err)
	}
	doc := Document{Version: Version, CreatedAt: time.Now().UTC(), Entries: make(map[string]string, len(keys))}
	for _, k := range keys {
		v, ok, err := s.Get(k)
		if err != nil {
			return 0, fmt.Errorf("snapshot: read %q: %w", k, err)
		}
		if ok {
			doc.Entries[k] = v
		}
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("could not create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		_ = zw.Close()
		return 0, fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return len(doc.Entries), nil
}

// Read decodes a snapshot document from r.
func Read(r io.Reader) (*Document, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var doc Document
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return &doc, nil
}

// Import reads a snapshot from r and sets every entry in s, overwriting
// existing values. It returns the number of entries written.
func Import(r io.Reader, s kv.Store) (int, error) {
	doc, err := Read(r)
	if err != nil {
		return 0, err
	}
	n := 0
	for k, v := range doc.Entries {
		if err := s.Set(k, v); err != nil {
			return n, fmt.Errorf("snapshot: write %q: %w", k, err)
		}
		n++
	}
	return n, nil
}
