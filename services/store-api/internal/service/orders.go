package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/shared/pkg/metrics"
	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrdersRepo interface {
	Place(ctx context.Context, o *models.Order, evt models.Event[models.OrderCreatedPayload]) error
	Get(ctx context.Context, id string) (models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	MarkDelivered(ctx context.Context, id string) (models.Order, error)
}

type ProductReader interface {
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// StockInvalidator drops cached product reads after stock moved.
type StockInvalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

type OrdersService struct {
	Repo     OrdersRepo
	Products ProductReader
	Cache    StockInvalidator // optional
	Log      zerolog.Logger
	Now      func() time.Time
}

type OrderLine struct {
	ProductID string
	Quantity  int
	Variant   string
	ImageURL  string
}

type PlaceOrderInput struct {
	Items           []OrderLine
	ShippingAddress models.ShippingAddress
	PaymentResult   *models.PaymentResult
}

func (s *OrdersService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Place prices the order from the catalog, reserves stock and records the
// order. Client-side prices are never trusted.
func (s *OrdersService) Place(ctx context.Context, user models.User, in PlaceOrderInput) (models.Order, error) {
	if len(in.Items) == 0 {
		return models.Order{}, ErrEmptyOrder
	}

	addr := models.ShippingAddress{
		Street:  strings.TrimSpace(in.ShippingAddress.Street),
		City:    strings.TrimSpace(in.ShippingAddress.City),
		Zip:     strings.TrimSpace(in.ShippingAddress.Zip),
		Country: strings.TrimSpace(in.ShippingAddress.Country),
	}
	var problems []string
	for _, f := range [][2]string{{"street", addr.Street}, {"city", addr.City}, {"zip", addr.Zip}, {"country", addr.Country}} {
		if f[1] == "" {
			problems = append(problems, "shippingAddress."+f[0]+" is required")
		}
	}
	ids := make([]string, 0, len(in.Items))
	wanted := map[string]int{}
	for i, line := range in.Items {
		if _, err := uuid.Parse(line.ProductID); err != nil {
			problems = append(problems, fmt.Sprintf("item %d: invalid product id %q", i+1, line.ProductID))
			continue
		}
		if line.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
			continue
		}
		if line.Quantity > models.MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("item %d: quantity must be at most %d", i+1, models.MaxLineQuantity))
			continue
		}
		if _, seen := wanted[line.ProductID]; !seen {
			ids = append(ids, line.ProductID)
		}
		wanted[line.ProductID] += line.Quantity
	}
	for _, id := range ids {
		if wanted[id] > models.MaxLineQuantity {
			problems = append(problems, fmt.Sprintf("product %s: total quantity must be at most %d", id, models.MaxLineQuantity))
		}
	}
	if err := validationErr(problems); err != nil {
		return models.Order{}, err
	}

	products, err := s.Products.GetMany(ctx, ids)
	if err != nil {
		return models.Order{}, fmt.Errorf("load products: %w", err)
	}
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return models.Order{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
		if p.Stock < wanted[id] {
			return models.Order{}, fmt.Errorf("%w: %s (%d left)", ErrInsufficientStock, p.Name, p.Stock)
		}
	}

	now := s.now().UTC()
	order := models.Order{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Items:           make([]models.OrderItem, 0, len(in.Items)),
		ShippingAddress: addr,
		PaymentMethod:   models.PaymentMethodStripe,
		PaymentResult:   in.PaymentResult,
		IsPaid:          true,
		PaidAt:          &now,
	}
	itemsPrice := decimal.Zero
	payloadItems := make([]models.OrderItemPayload, 0, len(in.Items))
	for _, line := range in.Items {
		p := products[line.ProductID]
		item := models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			ImageURL:  firstNonEmpty(line.ImageURL, p.ImageURL, models.PlaceholderImageURL),
			Price:     p.Price,
			Variant:   strings.TrimSpace(line.Variant),
		}
		order.Items = append(order.Items, item)
		itemsPrice = itemsPrice.Add(money.LineTotal(item.Price, item.Quantity))
		payloadItems = append(payloadItems, models.OrderItemPayload{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Qty:        item.Quantity,
			PriceCents: money.ToCents(item.Price),
		})
	}
	order.ItemsPrice = itemsPrice
	order.ShippingPrice = money.Shipping(itemsPrice)
	order.TotalPrice = itemsPrice.Add(order.ShippingPrice)

	evt := models.NewEvent(models.EventOrderCreated, order.ID, models.OrderCreatedPayload{
		UserID:     user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		TotalCents: money.ToCents(order.TotalPrice),
		Items:      payloadItems,
	})

	if err := s.Repo.Place(ctx, &order, evt); err != nil {
		var stock *repo.StockError
		if errors.As(err, &stock) {
			name := stock.ProductID
			if p, ok := products[stock.ProductID]; ok {
				name = p.Name
			}
			return models.Order{}, fmt.Errorf("%w: %s", ErrInsufficientStock, name)
		}
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	metrics.OrdersPlacedTotal.Inc()
	metrics.OrderRevenueCentsTotal.Add(float64(money.ToCents(order.TotalPrice)))
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ids...)
	}
	s.Log.Info().
		Str("order_id", order.ID).
		Str("user_id", user.ID).
		Str("total", order.TotalPrice.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("order placed")
	return order, nil
}

func (s *OrdersService) Mine(ctx context.Context, user models.User) ([]models.Order, error) {
	return s.Repo.ListByUser(ctx, user.ID)
}

func (s *OrdersService) All(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListAll(ctx)
}

// Get hides orders of other users behind ErrNotFound unless the caller is
// an admin.
func (s *OrdersService) Get(ctx context.Context, user models.User, id string) (models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Order{}, ErrInvalidID
	}
	o, err := s.Repo.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	if o.UserID != user.ID && user.Role != models.RoleAdmin {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *OrdersService) MarkDelivered(ctx context.Context, id string) (models.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Order{}, ErrInvalidID
	}
	o, err := s.Repo.MarkDelivered(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	s.Log.Info().Str("order_id", id).Msg("order delivered")
	return o, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
