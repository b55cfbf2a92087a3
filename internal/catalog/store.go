package catalog

import (
	"sort"
	"sync"
)

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type Store struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewStore() *Store {
	s := &Store{m: map[string]Product{}}
	for _, p := range []Product{
		{ID: "p1", Name: "Keyboard", PriceCents: 4990},
		{ID: "p2", Name: "Mouse", PriceCents: 1990},
		{ID: "p3", Name: "Monitor", PriceCents: 17990},
		{ID: "p4", Name: "USB-C Cable", PriceCents: 990},
	} {
		s.m[p.ID] = p
	}
	return s
}

func (s *Store) ListSortedByID() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok
}
