package repo

import (
	"context"
	"errors"
	"time"

	"superfoods-store/shared/pkg/cache"
	"superfoods-store/shared/pkg/metrics"
	"superfoods-store/shared/pkg/models"

	"github.com/rs/zerolog"
)

// ProductStore is the Postgres surface ProductsCached decorates.
type ProductStore interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id string, edit func(*models.Product) error) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

// JSONCache is the subset of *cache.Redis used here.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ProductsCached serves single-product reads from Redis and falls back to
// Postgres when Redis misses or is unavailable.
type ProductsCached struct {
	PG    ProductStore
	Redis JSONCache
	TTL   time.Duration
	Log   zerolog.Logger
}

func productKey(id string) string { return "product:" + id }

func (r *ProductsCached) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.Redis.GetJSON(ctx, productKey(id), &p)
	if err == nil {
		metrics.CacheLookupsTotal.WithLabelValues("product", "hit").Inc()
		return p, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		metrics.CacheLookupsTotal.WithLabelValues("product", "miss").Inc()
	} else {
		metrics.CacheLookupsTotal.WithLabelValues("product", "error").Inc()
		r.Log.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}

	p, err = r.PG.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := r.Redis.SetJSON(ctx, productKey(id), p, r.TTL); err != nil {
		r.Log.Warn().Err(err).Str("product_id", id).Msg("product cache backfill failed")
	}
	return p, nil
}

func (r *ProductsCached) List(ctx context.Context, category string) ([]models.Product, error) {
	return r.PG.List(ctx, category)
}

// GetMany always reads Postgres: it feeds order pricing and stock checks.
func (r *ProductsCached) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	return r.PG.GetMany(ctx, ids)
}

func (r *ProductsCached) Create(ctx context.Context, p *models.Product) error {
	return r.PG.Create(ctx, p)
}

func (r *ProductsCached) Update(ctx context.Context, id string, edit func(*models.Product) error) (models.Product, error) {
	p, err := r.PG.Update(ctx, id, edit)
	if err != nil {
		return models.Product{}, err
	}
	r.invalidate(ctx, id)
	return p, nil
}

func (r *ProductsCached) Delete(ctx context.Context, id string) error {
	if err := r.PG.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Invalidate drops cached entries, e.g. after an order changed their stock.
func (r *ProductsCached) Invalidate(ctx context.Context, ids ...string) {
	r.invalidate(ctx, ids...)
}

func (r *ProductsCached) invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := r.Redis.Del(ctx, keys...); err != nil {
		r.Log.Warn().Err(err).Strs("keys", keys).Msg("product cache invalidation failed")
	}
}
