package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"superfoods-store/services/store-api/internal/cart"
	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/shared/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CartStore interface {
	Load(ctx context.Context, userID string) (cart.Cart, error)
	// Update applies fn atomically; an error from fn leaves the cart as is.
	Update(ctx context.Context, userID string, fn func(*cart.Cart) error) (cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type ProductGetter interface {
	Get(ctx context.Context, id string) (models.Product, error)
}

type CartService struct {
	Carts    CartStore
	Products ProductGetter
	Orders   *OrdersService
	Log      zerolog.Logger
}

type AddToCartInput struct {
	ProductID string `json:"id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant"`
	Dose      string `json:"dose"`
}

func (s *CartService) Get(ctx context.Context, userID string) (cart.Summary, error) {
	c, err := s.Carts.Load(ctx, userID)
	if err != nil {
		return cart.Summary{}, fmt.Errorf("load cart: %w", err)
	}
	return c.Summary(), nil
}

// Add snapshots the catalog name, price and image into the cart line.
func (s *CartService) Add(ctx context.Context, userID string, in AddToCartInput) (cart.Summary, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return cart.Summary{}, ErrInvalidID
	}
	p, err := s.Products.Get(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return cart.Summary{}, fmt.Errorf("%w: %s", ErrUnknownProduct, in.ProductID)
	}
	if err != nil {
		return cart.Summary{}, err
	}

	if in.Quantity > models.MaxLineQuantity {
		return cart.Summary{}, quantityTooLarge()
	}
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if c.Quantity(p.ID, strings.TrimSpace(in.Variant))+max(in.Quantity, 1) > models.MaxLineQuantity {
			return quantityTooLarge()
		}
		c.Add(cart.Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: in.Quantity,
			ImageURL: p.ImageURL,
			Dose:     strings.TrimSpace(in.Dose),
			Variant:  strings.TrimSpace(in.Variant),
		})
		return nil
	})
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID, variant string, quantity int) (cart.Summary, error) {
	if quantity > models.MaxLineQuantity {
		return cart.Summary{}, quantityTooLarge()
	}
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if !c.UpdateQuantity(productID, variant, quantity) {
			return ErrNotFound
		}
		return nil
	})
}

func (s *CartService) Remove(ctx context.Context, userID, productID, variant string) (cart.Summary, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		c.Remove(productID, variant)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.Carts.Clear(ctx, userID)
}

// Checkout places an order for the whole cart and empties it.
func (s *CartService) Checkout(ctx context.Context, user models.User, addr models.ShippingAddress) (models.Order, error) {
	c, err := s.Carts.Load(ctx, user.ID)
	if err != nil {
		return models.Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return models.Order{}, ErrEmptyOrder
	}

	lines := make([]OrderLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, OrderLine{ProductID: it.ID, Quantity: it.Quantity, Variant: it.Variant, ImageURL: it.ImageURL})
	}
	order, err := s.Orders.Place(ctx, user, PlaceOrderInput{Items: lines, ShippingAddress: addr})
	if err != nil {
		return models.Order{}, err
	}
	if err := s.Carts.Clear(ctx, user.ID); err != nil {
		s.Log.Warn().Err(err).Str("user_id", user.ID).Str("order_id", order.ID).Msg("clear cart after checkout failed")
	}
	return order, nil
}

func (s *CartService) mutate(ctx context.Context, userID string, fn func(*cart.Cart) error) (cart.Summary, error) {
	var fnErr error
	c, err := s.Carts.Update(ctx, userID, func(c *cart.Cart) error {
		fnErr = fn(c)
		return fnErr
	})
	if err != nil {
		if fnErr != nil {
			return cart.Summary{}, fnErr
		}
		return cart.Summary{}, fmt.Errorf("update cart: %w", err)
	}
	return c.Summary(), nil
}

func quantityTooLarge() error {
	return &ValidationError{Problems: []string{fmt.Sprintf("quantity must be at most %d", models.MaxLineQuantity)}}
}
