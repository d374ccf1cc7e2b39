package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	products  map[int64]Product
	listCalls int
	getCalls  int
	err       error
}

func (f *fakeRepo) List(_ context.Context) ([]Product, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Product, 0, len(f.products))
	for id := int64(1); id <= int64(len(f.products)); id++ {
		out = append(out, f.products[id])
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Product, error) {
	f.getCalls++
	if f.err != nil {
		return Product{}, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: map[int64]Product{
		1: {ID: 1, Name: "Excavator PC200", PricePerDay: decimal.NewFromInt(3_500_000), Stock: 3},
		2: {ID: 2, Name: "Bulldozer D6", PricePerDay: decimal.RequireFromString("4000000.50"), Stock: 2},
	}}
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestService_ListCachesResult(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	first, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 products, got %d", len(first))
	}
	if !mr.Exists(keyProductList) {
		t.Fatal("expected list to be cached")
	}

	second, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List (cached): %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.listCalls)
	}
	if !second[1].PricePerDay.Equal(decimal.RequireFromString("4000000.5")) {
		t.Errorf("price lost through cache: %s", second[1].PricePerDay)
	}
}

func TestService_GetCachesByID(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := svc.Get(ctx, 1)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if p.Name != "Excavator PC200" {
			t.Fatalf("unexpected product %+v", p)
		}
	}
	if repo.getCalls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.getCalls)
	}
	if ttl := mr.TTL(productKey(1)); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestService_GetNotFoundIsNotCached(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)

	_, err := svc.Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists(productKey(99)) {
		t.Fatal("missing product must not be cached")
	}
}

func TestService_GetRejectsNonPositiveID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	if _, err := svc.Get(context.Background(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.getCalls != 0 {
		t.Fatal("repository should not be queried")
	}
}

func TestService_CacheDownFallsThrough(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	mr.Close()

	products, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List with cache down: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if repo.listCalls != 1 {
		t.Errorf("expected repository call, got %d", repo.listCalls)
	}
}

func TestService_CorruptCacheEntryFallsThrough(t *testing.T) {
	repo := newFakeRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	if err := mr.Set(productKey(2), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p, err := svc.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.ID != 2 || repo.getCalls != 1 {
		t.Fatalf("expected repository fallback, got %+v (calls %d)", p, repo.getCalls)
	}
}

func TestService_RepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("db down")
	svc := NewService(repo, nil, nil)
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
