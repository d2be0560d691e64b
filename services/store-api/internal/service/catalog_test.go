package service

import (
	"context"
	"errors"
	"testing"

	"superfoods-store/shared/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baobabFields() ProductFields {
	return ProductFields{
		Name:        ptr("Poudre de Baobab"),
		Description: ptr("Pulpe de baobab séchée"),
		Price:       ptr(decimal.RequireFromString("12.90")),
		Stock:       ptr(40),
		Category:    ptr("Poudres"),
		ImageURL:    ptr("/images/baobab.jpg"),
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Jus de Bouye Baobab":      "jus-de-bouye-baobab",
		"  Hibiscus (Bissap) 100%": "hibiscus-bissap-100",
		"Moringa Énergie":          "moringa-energie",
		"---":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCatalogCreate(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}
	ctx := context.Background()

	p, err := svc.Create(ctx, baobabFields())
	require.NoError(t, err)
	assert.Equal(t, "poudre-de-baobab", p.Slug)
	assert.True(t, p.IsBio)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.9")))

	_, err = svc.Create(ctx, baobabFields())
	assert.ErrorIs(t, err, ErrProductExists)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestCatalogCreateValidation(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}

	f := baobabFields()
	f.Price = ptr(decimal.RequireFromString("1.999"))
	f.Stock = ptr(-1)
	f.Rating = ptr(6.0)
	_, err := svc.Create(context.Background(), f)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"price cannot have more than 2 decimals",
		"stock must be at least 0",
		"rating must be between 0 and 5",
	}, verr.Problems)

	_, err = svc.Create(context.Background(), ProductFields{})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, "price is required")
	assert.Contains(t, verr.Problems, "name is required")
}

func TestCatalogRejectsCountsPastColumnRange(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}
	ctx := context.Background()

	f := baobabFields()
	f.Stock = ptr(models.MaxStock + 1)
	f.NumReviews = ptr(models.MaxNumReviews + 1)
	_, err := svc.Create(ctx, f)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"stock must be at most 2147483647",
		"num_reviews must be at most 2147483647",
	}, verr.Problems)

	p, err := svc.Create(ctx, baobabFields())
	require.NoError(t, err)
	_, err = svc.Update(ctx, p.ID, ProductFields{Stock: ptr(1 << 40)})
	require.True(t, errors.As(err, &verr))

	up, err := svc.Update(ctx, p.ID, ProductFields{Stock: ptr(models.MaxStock)})
	require.NoError(t, err)
	assert.Equal(t, models.MaxStock, up.Stock)
}

func TestCatalogUpdatePartial(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}
	ctx := context.Background()
	p, err := svc.Create(ctx, baobabFields())
	require.NoError(t, err)

	up, err := svc.Update(ctx, p.ID, ProductFields{Stock: ptr(5), IsBio: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 5, up.Stock)
	assert.False(t, up.IsBio)
	assert.Equal(t, p.Name, up.Name)
	assert.Equal(t, p.Slug, up.Slug)

	_, err = svc.Update(ctx, p.ID, ProductFields{Price: ptr(decimal.NewFromInt(-1))})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Update(ctx, uuid.NewString(), ProductFields{Stock: ptr(1)})
	assert.ErrorIs(t, err, ErrNotFound)
}

// sellingStore lets an order take stock after the admin loaded the edit form
// and before the update reaches the store.
type sellingStore struct {
	*memProducts
	sold int
}

func (s *sellingStore) Update(ctx context.Context, id string, edit func(*models.Product) error) (models.Product, error) {
	s.memProducts.sell(id, s.sold)
	return s.memProducts.Update(ctx, id, edit)
}

func TestCatalogUpdateKeepsConcurrentStockChanges(t *testing.T) {
	mem := newMemProducts()
	ctx := context.Background()
	p, err := (&CatalogService{Products: mem}).Create(ctx, baobabFields())
	require.NoError(t, err)
	before := p.Stock

	svc := &CatalogService{Products: &sellingStore{memProducts: mem, sold: 3}}
	up, err := svc.Update(ctx, p.ID, ProductFields{Price: ptr(decimal.RequireFromString("14.90"))})
	require.NoError(t, err)

	assert.Equal(t, before-3, up.Stock)
	stored, err := mem.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before-3, stored.Stock)
	assert.True(t, stored.Price.Equal(decimal.RequireFromString("14.90")))
}

func TestCatalogUpdateRejectsBadID(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}
	_, err := svc.Update(context.Background(), "nope", ProductFields{Stock: ptr(1)})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCatalogInvalidIDs(t *testing.T) {
	svc := &CatalogService{Products: newMemProducts()}
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, "not-a-uuid"), ErrInvalidID)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.NewString()), ErrNotFound)
}

func TestCatalogListByCategory(t *testing.T) {
	store := newMemProducts(
		models.Product{ID: uuid.NewString(), Name: "Baobab", Category: "Poudres"},
		models.Product{ID: uuid.NewString(), Name: "Bissap", Category: "Infusions"},
		models.Product{ID: uuid.NewString(), Name: "Moringa", Category: "Poudres"},
	)
	svc := &CatalogService{Products: store}

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	poudres, err := svc.List(context.Background(), " Poudres ")
	require.NoError(t, err)
	require.Len(t, poudres, 2)
	assert.Equal(t, "Baobab", poudres[0].Name)
	assert.Equal(t, "Moringa", poudres[1].Name)
}
