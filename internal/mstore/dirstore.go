// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirStore serves media files from a local directory, one document per file,
// message IDs assigned in lexical order starting at 1. It backs local
// development and tests; production deployments wire a real store client.
type DirStore struct {
	dir string

	once sync.Once
	docs map[uint64]DocumentRef
	path map[uint64]string
	err  error
}

// NewDirStore creates a store over dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) scan() {
	s.docs = make(map[uint64]DocumentRef)
	s.path = make(map[uint64]string)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.err = err
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		id := uint64(i + 1)
		info, err := os.Stat(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		s.docs[id] = DocumentRef{
			MessageID:  id,
			DocumentID: id,
			Size:       info.Size(),
			Filename:   name,
		}
		s.path[id] = filepath.Join(s.dir, name)
	}
}

// Message implements Store.
func (s *DirStore) Message(_ context.Context, messageID uint64) (DocumentRef, error) {
	s.once.Do(s.scan)
	if s.err != nil {
		return DocumentRef{}, ErrConnection
	}
	doc, ok := s.docs[messageID]
	if !ok {
		return DocumentRef{}, ErrNotFound
	}
	return doc, nil
}

// Block implements Store.
func (s *DirStore) Block(_ context.Context, doc DocumentRef, offset int64, size int64) ([]byte, error) {
	s.once.Do(s.scan)
	path, ok := s.path[doc.MessageID]
	if !ok {
		return nil, ErrNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrConnection
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, size)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, ErrConnection
	}
	return buf[:n], nil
}

// HealthCheck implements Store.
func (s *DirStore) HealthCheck(context.Context) error {
	s.once.Do(s.scan)
	if s.err != nil {
		return ErrConnection
	}
	return nil
}
