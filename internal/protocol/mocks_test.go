package protocol

import (
	"sync"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
)

type write struct {
	key   string
	value any
}

// memStore is an in-memory settings.Store recording every write.
type memStore struct {
	mu      sync.Mutex
	ints    map[string]int
	strs    map[string]string
	writes  []write
	commits int
}

func newMemStore() *memStore {
	return &memStore{ints: map[string]int{}, strs: map[string]string{}}
}

func (s *memStore) Write(key string, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{key, v})
	s.ints[key] = v
	return nil
}

func (s *memStore) WriteStr(key, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, write{key, v})
	s.strs[key] = v
	return nil
}

func (s *memStore) Read(key string, def int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ints[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) ReadStr(key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.strs[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return nil
}

func (s *memStore) writesFor(key string) []any {
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

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type shown struct {
	text  string
	color string
}

// fakeDisplay records redisplays and direct shows.
type fakeDisplay struct {
	redisplays int
	shows      []shown
}

func (d *fakeDisplay) Redisplay() { d.redisplays++ }

func (d *fakeDisplay) Show(text, colorName string) display.Intent {
	d.shows = append(d.shows, shown{text, colorName})
	return display.Intent{Text: text, ColorName: colorName}
}

type fakeUpdater struct {
	files []string
	err   error
}

func (u *fakeUpdater) FetchAndApply(file string) error {
	u.files = append(u.files, file)
	return u.err
}

type fakeAliases struct {
	names map[string]string
}

func (a *fakeAliases) SetAlias(addr, name string) bool {
	if a.names[addr] == name {
		return false
	}
	a.names[addr] = name
	return true
}
