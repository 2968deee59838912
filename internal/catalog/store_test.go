package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	categories string
	products   string
	fail       bool
}

func (f *fakeUpstream) serve(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/categories":
			_, _ = w.Write([]byte(f.categories))
		case "/products":
			_, _ = w.Write([]byte(f.products))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

const categoriesJSON = `{"success":true,"data":[
	{"id":"cat-veg","name":"Vegetables","icon":"carrot","color":"green","parentId":null,"sortOrder":2},
	{"id":"cat-fruit","name":"Fruits","icon":"apple","color":"red","parentId":null,"sortOrder":1},
	{"id":"cat-leafy","name":"Leafy Greens","icon":"leaf","color":"green","parentId":"cat-veg","sortOrder":1}
]}`

const productsJSON = `{"success":true,"data":[
	{"id":"p-1","name":"Tomato","unit":"1 Kg","price":40,"originalPrice":55,"images":["tomato.jpg","tomato2.jpg"],"categoryId":"cat-veg","isOrganic":true,"rating":4.5,"stock":120},
	{"id":"p-2","name":"Apple","unit":"500 g","price":120.5,"originalPrice":140,"images":["apple.jpg"],"categoryId":"cat-fruit","rating":4.2,"stock":80},
	{"id":"p-3","name":"Spinach","unit":"250 g","price":25,"originalPrice":25,"images":[],"categoryId":"cat-veg","stock":40},
	{"id":"p-4","name":"Mystery","unit":"1 pc","price":10,"originalPrice":10,"images":[],"categoryId":"cat-gone","stock":1}
]}`

func newTestStore(t *testing.T, f *fakeUpstream) *Store {
	t.Helper()
	srv := f.serve(t)
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, 2*time.Second))
}

func TestLoadJoinsCategories(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{categories: categoriesJSON, products: productsJSON})
	require.NoError(t, s.Load(context.Background()))

	p, ok := s.Product("p-1")
	require.True(t, ok)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Vegetables", p.Category.Name)
	assert.Equal(t, "tomato.jpg", p.Image())

	// unknown category id leaves the back-reference nil
	p, ok = s.Product("p-4")
	require.True(t, ok)
	assert.Nil(t, p.Category)
}

func TestProductsByCategoryKeepsFetchOrder(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{categories: categoriesJSON, products: productsJSON})
	require.NoError(t, s.Load(context.Background()))

	got := s.ProductsByCategory("cat-veg")
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID)
	assert.Equal(t, "p-3", got[1].ID)

	assert.Empty(t, s.ProductsByCategory("cat-unknown"))
}

func TestFailedLoadKeepsPriorSnapshot(t *testing.T) {
	f := &fakeUpstream{categories: categoriesJSON, products: productsJSON}
	s := newTestStore(t, f)
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Products(), 4)

	f.fail = true
	err := s.Load(context.Background())
	require.Error(t, err)

	// stale-but-available
	assert.Len(t, s.Products(), 4)
	assert.Len(t, s.Categories(), 3)
}

func TestLoadUnsuccessfulEnvelope(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{
		categories: `{"success":false,"error":{"code":"DOWN","message":"maintenance"}}`,
		products:   productsJSON,
	})
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOWN")
	assert.Empty(t, s.Products())
}

func TestLoadCanceledContext(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{categories: categoriesJSON, products: productsJSON})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.Products())
}

func TestRootCategories(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{categories: categoriesJSON, products: productsJSON})
	require.NoError(t, s.Load(context.Background()))

	roots := s.RootCategories()
	require.Len(t, roots, 2)
	// sorted by sortOrder: Fruits (1) then Vegetables (2)
	assert.Equal(t, "cat-fruit", roots[0].ID)
	assert.Equal(t, "cat-veg", roots[1].ID)
	require.Len(t, roots[1].SubCategories, 1)
	assert.Equal(t, "cat-leafy", roots[1].SubCategories[0].ID)
}

func TestCategoryLookup(t *testing.T) {
	s := newTestStore(t, &fakeUpstream{categories: categoriesJSON, products: productsJSON})
	require.NoError(t, s.Load(context.Background()))

	c, ok := s.Category("cat-leafy")
	require.True(t, ok)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, "cat-veg", *c.ParentID)

	_, ok = s.Category("nope")
	assert.False(t, ok)
}
