// Package store keeps the mutable dataset context of every session handle.
package store

import (
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/paveg/tabula/internal/dataframe"
	dferrors "github.com/paveg/tabula/internal/errors"
	"github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/schema"
)

// DerivedColumn records a column computed from a formula.
type DerivedColumn struct {
	Name    string `json:"name"`
	Formula string `json:"formula"`
}

// Context is the state owned by one handle. Sheets lists the sheet names
// of a multi-sheet source; Dataset is nil until a sheet is chosen.
type Context struct {
	Handle    string
	Source    io.Source
	Sheets    []string
	Overrides map[string]schema.Type
	Derived   []DerivedColumn
	Dataset   *dataframe.Dataset
}

// Formula returns the formula of a derived column.
func (c *Context) Formula(name string) (string, bool) {
	for _, d := range c.Derived {
		if d.Name == name {
			return d.Formula, true
		}
	}
	return "", false
}

func (c *Context) clone() Context {
	out := *c
	out.Sheets = append([]string(nil), c.Sheets...)
	out.Overrides = maps.Clone(c.Overrides)
	if out.Overrides == nil {
		out.Overrides = make(map[string]schema.Type)
	}
	out.Derived = append([]DerivedColumn(nil), c.Derived...)
	return out
}

type entry struct {
	mu  sync.RWMutex
	ctx Context
}

// Store maps handles to contexts. The registry lock is held only for
// lookups, inserts and deletes; each entry serializes its own mutations.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers ctx under a fresh random handle and returns the handle.
func (s *Store) Create(ctx Context) string {
	handle := uuid.NewString()
	ctx.Handle = handle
	e := &entry{ctx: ctx.clone()}

	s.mu.Lock()
	s.entries[handle] = e
	s.mu.Unlock()
	return handle
}

// Snapshot returns a copy of the context for handle. The dataset is shared;
// datasets are never modified in place.
func (s *Store) Snapshot(handle string) (Context, error) {
	e, err := s.lookup(handle)
	if err != nil {
		return Context{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ctx.clone(), nil
}

// Update runs fn on a copy of the context while holding the entry
// exclusively. The copy replaces the stored context only when fn succeeds.
func (s *Store) Update(handle string, fn func(*Context) error) error {
	e, err := s.lookup(handle)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.ctx.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.Handle = handle
	e.ctx = next
	return nil
}

// Delete forgets handle. It reports whether the handle existed. Datasets
// are not released here: snapshots taken earlier may still be reading them.
func (s *Store) Delete(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[handle]
	delete(s.entries, handle)
	return ok
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(handle string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, dferrors.NewValidationError("Store", "", "unknown or expired dataset handle")
	}
	return e, nil
}
