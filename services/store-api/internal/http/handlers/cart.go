package handlers

import (
	"context"
	"net/http"

	"superfoods-store/services/store-api/internal/cart"
	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/services/store-api/internal/session"
	"superfoods-store/shared/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const msgCartItemNotFound = "cart item not found"

type Carts interface {
	Get(ctx context.Context, userID string) (cart.Summary, error)
	Add(ctx context.Context, userID string, in service.AddToCartInput) (cart.Summary, error)
	UpdateQuantity(ctx context.Context, userID, productID, variant string, quantity int) (cart.Summary, error)
	Remove(ctx context.Context, userID, productID, variant string) (cart.Summary, error)
	Clear(ctx context.Context, userID string) error
	Checkout(ctx context.Context, user models.User, addr models.ShippingAddress) (models.Order, error)
}

type CartHandler struct {
	Carts Carts
	Log   zerolog.Logger
}

type cartResp struct {
	Success bool         `json:"success"`
	Data    cart.Summary `json:"data"`
}

func (h *CartHandler) reply(w http.ResponseWriter, sum cart.Summary, err error) {
	if err != nil {
		writeErr(w, h.Log, err, msgCartItemNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, cartResp{Success: true, Data: sum})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	sum, err := h.Carts.Get(r.Context(), u.ID)
	h.reply(w, sum, err)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.AddToCartInput
	if !decode(w, r, &req) {
		return
	}
	u, _ := session.UserFrom(r.Context())
	sum, err := h.Carts.Add(r.Context(), u.ID, req)
	h.reply(w, sum, err)
}

// UpdateQuantity reads the variant from ?variant= since the path only
// carries the product id.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, _ := session.UserFrom(r.Context())
	sum, err := h.Carts.UpdateQuantity(r.Context(), u.ID, chi.URLParam(r, "id"), r.URL.Query().Get("variant"), req.Quantity)
	h.reply(w, sum, err)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	sum, err := h.Carts.Remove(r.Context(), u.ID, chi.URLParam(r, "id"), r.URL.Query().Get("variant"))
	h.reply(w, sum, err)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	if err := h.Carts.Clear(r.Context(), u.ID); err != nil {
		writeErr(w, h.Log, err, msgCartItemNotFound)
		return
	}
	h.reply(w, cart.Cart{}.Summary(), nil)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingAddress shippingReq `json:"shippingAddress"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, _ := session.UserFrom(r.Context())
	o, err := h.Carts.Checkout(r.Context(), u, req.ShippingAddress.address())
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusCreated, o)
}
