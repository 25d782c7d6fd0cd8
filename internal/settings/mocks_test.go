package settings

import (
	"errors"
	"fmt"
	"sync"
)

type write struct {
	key   string
	value any
}

// recordingStore is an in-memory Store that records every write.
type recordingStore struct {
	mu        sync.Mutex
	ints      map[string]int
	strs      map[string]string
	writes    []write
	commits   int
	writeErr  error
	commitErr error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{ints: map[string]int{}, strs: map[string]string{}}
}

func (s *recordingStore) Write(key string, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{key, v})
	if s.writeErr != nil {
		return s.writeErr
	}
	s.ints[key] = v
	return nil
}

func (s *recordingStore) WriteStr(key, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{key, v})
	if s.writeErr != nil {
		return s.writeErr
	}
	s.strs[key] = v
	return nil
}

func (s *recordingStore) Read(key string, def int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strs[key]; ok {
		return def, fmt.Errorf("%w: %s", ErrTypeMismatch, key)
	}
	if v, ok := s.ints[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *recordingStore) ReadStr(key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.strs[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *recordingStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return s.commitErr
}

func (s *recordingStore) writesFor(key string) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, w := range s.writes {
		if w.key == key {
			out = append(out, w.value)
		}
	}
	return out
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

var errFlash = errors.New("flash worn out")
