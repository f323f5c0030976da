// Package storage persists the engine's YAML records: one settings
// file per session, one durable record per participant and one file
// per team/class definition. Encoding is an implementation detail of
// this package; callers hand over plain structs.
//
// Writes happen off the controlling goroutine and are fire-and-forget.
// All writes go through a single writer goroutine and land in
// submission order, so the latest save of a record always wins and a
// delete cannot be undone by an earlier queued write. A content hash
// is kept per record so a save that would write the same bytes again
// is skipped entirely.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/arena/internal/core/observability/log"
)

type writeJob struct {
	name string
	data []byte
}

// Store reads and writes YAML records under a root directory.
type Store struct {
	root string
	log  log.Log
	ctx  context.Context

	jobs    chan writeJob
	pending sync.WaitGroup

	mu     sync.Mutex
	hashes map[string]uint64
}

// New creates a store rooted at dir, creating it if needed.
func New(ctx context.Context, dir string, l log.Log) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}

	s := &Store{
		root:   dir,
		log:    l,
		ctx:    ctx,
		jobs:   make(chan writeJob, 256),
		hashes: make(map[string]uint64),
	}

	go s.writer()

	return s, nil
}

// writer drains the queue for the store's whole lifetime. It must keep
// consuming after context cancellation so shutdown saves still land.
func (s *Store) writer() {
	for j := range s.jobs {
		if err := s.write(j.name, j.data); err != nil {
			s.log.Error("record write failed", zap.String("record", j.name), zap.Error(err))
		}

		s.pending.Done()
	}
}

// Save marshals the record and queues it for the writer goroutine. The
// write is skipped when the encoded content is identical to what was
// last queued for the same name. Marshal failures are reported
// synchronously; I/O failures are logged.
func (s *Store) Save(name string, record any) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", name, err)
	}

	sum := xxhash.Sum64(data)

	s.mu.Lock()
	if s.hashes[name] == sum {
		s.mu.Unlock()
		return nil
	}
	s.hashes[name] = sum
	s.mu.Unlock()

	s.pending.Add(1)

	select {
	case s.jobs <- writeJob{name: name, data: data}:
		return nil
	default:
	}

	// Queue full. Keep blocking unless the store's context is gone, in
	// which case the write is dropped with an error instead of wedging
	// the caller.
	select {
	case s.jobs <- writeJob{name: name, data: data}:
		return nil
	case <-s.ctx.Done():
		s.pending.Done()

		s.mu.Lock()
		delete(s.hashes, name)
		s.mu.Unlock()

		return fmt.Errorf("storage: save %s: %w", name, s.ctx.Err())
	}
}

// write lands the record atomically via a temp file rename.
func (s *Store) write(name string, data []byte) error {
	path := s.path(name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Load reads a record into out. Missing records return os.ErrNotExist.
func (s *Store) Load(name string, out any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("storage: unmarshal %s: %w", name, err)
	}

	s.mu.Lock()
	s.hashes[name] = xxhash.Sum64(data)
	s.mu.Unlock()

	return nil
}

// Exists reports whether a record is on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes a record after every queued write landed, so a
// pending save cannot resurrect the file. Deleting a missing record is
// not an error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	delete(s.hashes, name)
	s.mu.Unlock()

	s.pending.Wait()

	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// List returns the record names under a subdirectory, without the
// .yml extension.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}

		names = append(names, filepath.Join(dir, strings.TrimSuffix(e.Name(), ".yml")))
	}

	return names, nil
}

// Flush blocks until every queued write landed. Called on shutdown and
// in tests.
func (s *Store) Flush() error {
	s.pending.Wait()
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name+".yml")
}
