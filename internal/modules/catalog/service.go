// README: Catalog service serves products from the cache, falling back to Postgres.
package catalog

import (
	"context"
	"errors"
	"log/slog"
)

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
}

type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService accepts a nil cache; reads then always hit the repository.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	if s.cache != nil {
		products, err := s.cache.GetList(ctx)
		if err == nil {
			return products, nil
		}
		s.logCacheError("list", err)
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetList(ctx, products); err != nil {
			s.logger.Warn("catalog cache write failed", "op", "list", "err", err)
		}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrNotFound
	}
	if s.cache != nil {
		p, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		s.logCacheError("get", err)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, p); err != nil {
			s.logger.Warn("catalog cache write failed", "op", "get", "product_id", id, "err", err)
		}
	}
	return p, nil
}

func (s *Service) logCacheError(op string, err error) {
	if errors.Is(err, errCacheMiss) {
		return
	}
	s.logger.Warn("catalog cache read failed", "op", op, "err", err)
}
