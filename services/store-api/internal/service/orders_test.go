package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"superfoods-store/shared/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baobabID  = uuid.NewString()
	moringaID = uuid.NewString()

	customer = models.User{ID: uuid.NewString(), Email: "awa@example.com", FirstName: "Awa", Role: models.RoleClient}
	admin    = models.User{ID: uuid.NewString(), Email: "admin@example.com", Role: models.RoleAdmin}

	dakar = models.ShippingAddress{Street: "3 avenue Cheikh Anta Diop", City: "Dakar", Zip: "10700", Country: "Senegal"}
)

type orderFixture struct {
	svc      *OrdersService
	products *memProducts
	orders   *memOrders
	cache    *recordingInvalidator
}

func newOrderFixture() orderFixture {
	products := newMemProducts(
		models.Product{ID: baobabID, Name: "Poudre de Baobab", Price: decimal.RequireFromString("12.90"), Stock: 10, ImageURL: "/images/baobab.jpg"},
		models.Product{ID: moringaID, Name: "Moringa", Price: decimal.RequireFromString("8.50"), Stock: 2},
	)
	orders := &memOrders{products: products}
	cache := &recordingInvalidator{}
	paidAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return orderFixture{
		svc: &OrdersService{
			Repo:     orders,
			Products: products,
			Cache:    cache,
			Log:      zerolog.Nop(),
			Now:      func() time.Time { return paidAt },
		},
		products: products,
		orders:   orders,
		cache:    cache,
	}
}

func TestPlaceOrderPricesFromCatalog(t *testing.T) {
	f := newOrderFixture()

	o, err := f.svc.Place(context.Background(), customer, PlaceOrderInput{
		Items: []OrderLine{
			{ProductID: baobabID, Quantity: 2},
			{ProductID: moringaID, Quantity: 1, ImageURL: "/custom.jpg"},
		},
		ShippingAddress: dakar,
	})
	require.NoError(t, err)

	assert.Equal(t, customer.ID, o.UserID)
	assert.True(t, o.IsPaid)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, models.PaymentMethodStripe, o.PaymentMethod)
	assert.Equal(t, "34.3", o.ItemsPrice.String())
	assert.True(t, o.ShippingPrice.IsZero())
	assert.Equal(t, "34.3", o.TotalPrice.String())

	require.Len(t, o.Items, 2)
	assert.Equal(t, "Poudre de Baobab", o.Items[0].Name)
	assert.Equal(t, "/images/baobab.jpg", o.Items[0].ImageURL)
	assert.Equal(t, "/custom.jpg", o.Items[1].ImageURL)

	assert.Equal(t, 8, f.products.items[baobabID].Stock)
	assert.Equal(t, 1, f.products.items[moringaID].Stock)
	assert.ElementsMatch(t, []string{baobabID, moringaID}, f.cache.ids)

	require.Len(t, f.orders.events, 1)
	evt := f.orders.events[0]
	assert.Equal(t, models.EventOrderCreated, evt.Type)
	assert.Equal(t, o.ID, evt.AggregateID)
	assert.Equal(t, int64(3430), evt.Payload.TotalCents)
	assert.Equal(t, "awa@example.com", evt.Payload.Email)
}

func TestPlaceOrderChargesShippingAtThreshold(t *testing.T) {
	f := newOrderFixture()
	f.products.items[baobabID] = models.Product{ID: baobabID, Name: "Baobab", Price: decimal.NewFromInt(15), Stock: 5}

	o, err := f.svc.Place(context.Background(), customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: 2}},
		ShippingAddress: dakar,
	})
	require.NoError(t, err)
	assert.Equal(t, "30", o.ItemsPrice.String())
	assert.Equal(t, "4.99", o.ShippingPrice.String())
	assert.Equal(t, "34.99", o.TotalPrice.String())
	assert.Equal(t, models.PlaceholderImageURL, o.Items[0].ImageURL)
}

func TestPlaceOrderRejects(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	_, err := f.svc.Place(ctx, customer, PlaceOrderInput{ShippingAddress: dakar})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = f.svc.Place(ctx, customer, PlaceOrderInput{
		Items: []OrderLine{{ProductID: "bogus", Quantity: 1}, {ProductID: baobabID, Quantity: 0}},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 6)
	assert.Equal(t, "shippingAddress.street is required", verr.Problems[0])

	_, err = f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: uuid.NewString(), Quantity: 1}},
		ShippingAddress: dakar,
	})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: moringaID, Quantity: 2}, {ProductID: moringaID, Quantity: 1, Variant: "250g"}},
		ShippingAddress: dakar,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, f.products.items[moringaID].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestPlaceOrderRejectsOversizedQuantities(t *testing.T) {
	f := newOrderFixture()
	f.products.items[baobabID] = models.Product{ID: baobabID, Name: "Baobab", Price: decimal.NewFromInt(15), Stock: 1 << 40}
	ctx := context.Background()

	_, err := f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: 1 << 33}},
		ShippingAddress: dakar,
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"item 1: quantity must be at most 1000"}, verr.Problems)

	_, err = f.svc.Place(ctx, customer, PlaceOrderInput{
		Items: []OrderLine{
			{ProductID: baobabID, Quantity: models.MaxLineQuantity},
			{ProductID: baobabID, Quantity: 1, Variant: "500g"},
		},
		ShippingAddress: dakar,
	})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"product " + baobabID + ": total quantity must be at most 1000"}, verr.Problems)
	assert.Empty(t, f.orders.orders)

	_, err = f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: models.MaxLineQuantity}},
		ShippingAddress: dakar,
	})
	require.NoError(t, err)
}

type racingReader struct {
	ProductReader
	products *memProducts
}

// GetMany returns a stale snapshot, as if another order won the stock first.
func (r racingReader) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out, err := r.ProductReader.GetMany(ctx, ids)
	r.products.mu.Lock()
	for id, p := range r.products.items {
		p.Stock = 0
		r.products.items[id] = p
	}
	r.products.mu.Unlock()
	return out, err
}

func TestPlaceOrderLosesStockRace(t *testing.T) {
	f := newOrderFixture()
	f.svc.Products = racingReader{ProductReader: f.products, products: f.products}

	_, err := f.svc.Place(context.Background(), customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: 1}},
		ShippingAddress: dakar,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Poudre de Baobab")
	assert.Empty(t, f.cache.ids)
}

func TestOrderVisibility(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o, err := f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: 1}},
		ShippingAddress: dakar,
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.Get(ctx, admin, o.ID)
	assert.NoError(t, err)

	stranger := models.User{ID: uuid.NewString(), Role: models.RoleClient}
	_, err = f.svc.Get(ctx, stranger, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Get(ctx, customer, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)

	mine, err := f.svc.Mine(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.Mine(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMarkDeliveredIsIdempotent(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	o, err := f.svc.Place(ctx, customer, PlaceOrderInput{
		Items:           []OrderLine{{ProductID: baobabID, Quantity: 1}},
		ShippingAddress: dakar,
	})
	require.NoError(t, err)

	first, err := f.svc.MarkDelivered(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, first.IsDelivered)
	require.NotNil(t, first.DeliveredAt)

	second, err := f.svc.MarkDelivered(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.DeliveredAt, second.DeliveredAt)
	assert.Len(t, f.orders.delivered, 1)

	_, err = f.svc.MarkDelivered(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
