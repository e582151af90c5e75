package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DirSink writes fixture files below Root on the local filesystem.
type DirSink struct {
	Root string
}

// NewDirSink returns a sink rooted at root.
func NewDirSink(root string) *DirSink {
	return &DirSink{Root: root}
}

func (s *DirSink) path(dir string) (string, error) {
	clean, err := validateDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// Reset implements Sink. Missing directories are created.
func (s *DirSink) Reset(dir string) error {
	p, err := s.path(dir)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %w", ErrSink, p, err)
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrSink, p, err)
	}
	return nil
}

// Write implements Sink. The directory must already exist.
func (s *DirSink) Write(dir, name string, data []byte) error {
	p, err := s.path(dir)
	if err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	file := filepath.Join(p, name)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrSink, file, err)
	}
	return nil
}

// Read returns the content of dir/name.
func (s *DirSink) Read(dir, name string) ([]byte, error) {
	p, err := s.path(dir)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	file := filepath.Join(p, name)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrSink, file, err)
	}
	return data, nil
}

// List returns the sorted names of the regular files in dir.
func (s *DirSink) List(dir string) ([]string, error) {
	p, err := s.path(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrSink, p, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteFile writes data to name directly below Root.
func (s *DirSink) WriteFile(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrSink, s.Root, err)
	}

	file := filepath.Join(s.Root, name)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", ErrSink, file, err)
	}
	return nil
}

// ReadFile returns the content of name directly below Root.
func (s *DirSink) ReadFile(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	file := filepath.Join(s.Root, name)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrSink, file, err)
	}
	return data, nil
}

// MemorySink is an in-memory Sink, safe for concurrent use.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string]map[string][]byte
	root  map[string][]byte
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		files: make(map[string]map[string][]byte),
		root:  make(map[string][]byte),
	}
}

// WriteFile stores data as name directly below the root.
func (s *MemorySink) WriteFile(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns a copy of the root file name.
func (s *MemorySink) ReadFile(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.root[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

// Reset implements Sink.
func (s *MemorySink) Reset(dir string) error {
	clean, err := validateDir(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[clean] = make(map[string][]byte)
	return nil
}

// Write implements Sink. Like DirSink, the directory must have been reset first.
func (s *MemorySink) Write(dir, name string, data []byte) error {
	clean, err := validateDir(dir)
	if err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, ok := s.files[clean]
	if !ok {
		return fmt.Errorf("%w: directory %s does not exist", ErrSink, clean)
	}
	files[name] = append([]byte(nil), data...)
	return nil
}

// Read returns a copy of dir/name.
func (s *MemorySink) Read(dir, name string) ([]byte, error) {
	clean, err := validateDir(dir)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[clean][name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, Key(clean, name))
	}
	return append([]byte(nil), data...), nil
}

// List returns the sorted file names in dir.
func (s *MemorySink) List(dir string) ([]string, error) {
	clean, err := validateDir(dir)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	files, ok := s.files[clean]
	if !ok {
		return nil, fmt.Errorf("%w: directory %s does not exist", ErrSink, clean)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
