package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/fsutil"
)

// documentPerm is the mode of the facts document. Facts are public.
const documentPerm = 0644

// FileStore keeps the collection as a JSON document on disk.
//
// Writes are atomic (temp file + rename), so readers never observe a
// truncated document. Update calls are serialized within this process only;
// two processes writing the same file can still lose an update.
type FileStore struct {
	path string
	mu   sync.Mutex // serializes writers
}

// NewFileStore creates a store backed by the document at path.
// The document is not touched until the first operation.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the whole document.
func (s *FileStore) Load(ctx context.Context) ([]fact.Fact, error) {
	if err := checkContext(ctx, "load"); err != nil {
		return nil, err
	}
	return s.read()
}

// Save replaces the document.
func (s *FileStore) Save(ctx context.Context, facts []fact.Fact) error {
	if err := checkContext(ctx, "save"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(facts)
}

// Update reads the document, applies fn and writes the result while holding
// the writer lock.
func (s *FileStore) Update(ctx context.Context, fn MutateFunc) error {
	if err := checkContext(ctx, "update"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := checkContext(ctx, "update"); err != nil {
		return err
	}
	return s.write(next)
}

// Init creates the document with facts if it does not exist yet.
func (s *FileStore) Init(ctx context.Context, facts []fact.Fact) (bool, error) {
	if err := checkContext(ctx, "init"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Lstat(s.path); err == nil {
		return false, nil
	} else if !stderrors.Is(err, os.ErrNotExist) {
		return false, errors.NewStoreUnavailable(err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return false, errors.NewStoreUnavailable(fmt.Errorf("create fact directory: %w", err))
	}
	if err := s.write(facts); err != nil {
		return false, err
	}
	return true, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() ([]fact.Fact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("read fact document: %w", err))
	}
	facts, err := fact.DecodeDocument(data)
	if err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("%s: %w", s.path, err))
	}
	return facts, nil
}

func (s *FileStore) write(facts []fact.Fact) error {
	data, err := fact.EncodeDocument(facts)
	if err != nil {
		return errors.NewInternal(err)
	}
	target, err := s.target()
	if err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("resolve fact document: %w", err))
	}
	err = fsutil.WriteAtomic(target, documentPerm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("write fact document: %w", err))
	}
	return nil
}

// target returns the file a write should replace. A symlinked document
// (a volume or ConfigMap mount, say) is written through to the file it
// points at, so the link stays in place.
func (s *FileStore) target() (string, error) {
	resolved, err := filepath.EvalSymlinks(s.path)
	if stderrors.Is(err, os.ErrNotExist) {
		return s.path, nil
	}
	return resolved, err
}
