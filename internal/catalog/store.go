package catalog

import (
	"context"
	"sort"
	"sync"
)

// Fetcher is what Store needs from the upstream client.
type Fetcher interface {
	FetchCategories(ctx context.Context) ([]Category, error)
	FetchProducts(ctx context.Context) ([]Product, error)
}

// Store holds the catalog snapshot for the session. Load replaces the whole
// snapshot atomically; a failed Load leaves the previous snapshot in place.
type Store struct {
	fetcher Fetcher

	mu         sync.RWMutex
	categories []Category
	products   []Product
	catByID    map[string]*Category
	prodByID   map[string]*Product
}

func NewStore(f Fetcher) *Store {
	return &Store{
		fetcher:  f,
		catByID:  map[string]*Category{},
		prodByID: map[string]*Product{},
	}
}

// Load fetches both collections and swaps them in. Products get an immutable
// category back-reference joined from the just-fetched category list; unknown
// category ids leave it nil.
func (s *Store) Load(ctx context.Context) error {
	cats, err := s.fetcher.FetchCategories(ctx)
	if err != nil {
		return err
	}
	prods, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		return err
	}

	catByID := make(map[string]*Category, len(cats))
	for i := range cats {
		catByID[cats[i].ID] = &cats[i]
	}
	prodByID := make(map[string]*Product, len(prods))
	for i := range prods {
		prods[i].Category = catByID[prods[i].CategoryID]
		prodByID[prods[i].ID] = &prods[i]
	}

	s.mu.Lock()
	s.categories = cats
	s.products = prods
	s.catByID = catByID
	s.prodByID = prodByID
	s.mu.Unlock()
	return nil
}

func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// ProductsByCategory filters by exact category id, preserving fetch order.
func (s *Store) ProductsByCategory(categoryID string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prodByID[id]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

func (s *Store) Category(id string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catByID[id]
	if !ok {
		return Category{}, false
	}
	return *c, true
}

// RootCategories rebuilds the category forest from the flat list: roots sorted
// by SortOrder, children attached under their parent in SortOrder.
func (s *Store) RootCategories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	children := map[string][]Category{}
	var roots []Category
	for _, c := range s.categories {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].SortOrder < roots[j].SortOrder })
	for i := range roots {
		subs := children[roots[i].ID]
		sort.SliceStable(subs, func(a, b int) bool { return subs[a].SortOrder < subs[b].SortOrder })
		roots[i].SubCategories = subs
	}
	return roots
}
