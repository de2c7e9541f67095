package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"weekspend/internal/core"
	"weekspend/internal/store"
)

// SeedFile is the optional JSON array of expenses loaded by NewFromDir.
const SeedFile = "seed_expenses.json"

type Store struct {
	mu      sync.Mutex
	items   []core.Expense
	version int64
}

func New(seed ...core.Expense) *Store {
	s := &Store{}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.items = append(s.items, e)
	}
	return s
}

// NewFromDir seeds the store from base/seed_expenses.json. A missing file
// yields an empty store; a malformed one is an error.
func NewFromDir(base string) (*Store, error) {
	seed, err := readSeed(filepath.Join(base, SeedFile))
	if err != nil {
		return nil, err
	}
	return New(seed...), nil
}

// ListExpenses returns a copy of every stored expense in insertion order.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

// AddExpense validates and stores the expense under a fresh ID.
func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	s.version++
	return e, nil
}

func (s *Store) RemoveExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.version++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", store.ErrNotFound, id)
}

func (s *Store) Version(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

func readSeed(path string) ([]core.Expense, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed []core.Expense
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed, nil
}
