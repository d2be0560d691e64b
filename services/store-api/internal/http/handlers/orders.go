package handlers

import (
	"context"
	"net/http"

	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/services/store-api/internal/session"
	"superfoods-store/shared/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const msgOrderNotFound = "order not found"

type Orders interface {
	Place(ctx context.Context, user models.User, in service.PlaceOrderInput) (models.Order, error)
	Mine(ctx context.Context, user models.User) ([]models.Order, error)
	All(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, user models.User, id string) (models.Order, error)
	MarkDelivered(ctx context.Context, id string) (models.Order, error)
}

type OrdersHandler struct {
	Orders Orders
	Log    zerolog.Logger
}

// orderItemReq accepts every key the storefront has used for the product id
// and image. Client name and price are ignored.
type orderItemReq struct {
	ID       string `json:"id"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image_url"`
	Image    string `json:"image"`
	ImageAlt string `json:"imageUrl"`
	Variant  string `json:"variant"`
}

type shippingReq struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (s shippingReq) address() models.ShippingAddress {
	zip := s.ZipCode
	if zip == "" {
		zip = s.Zip
	}
	return models.ShippingAddress{Street: s.Street, City: s.City, Zip: zip, Country: s.Country}
}

type createOrderReq struct {
	Items           []orderItemReq        `json:"items"`
	OrderItems      []orderItemReq        `json:"orderItems"`
	ShippingAddress shippingReq           `json:"shippingAddress"`
	PaymentResult   *models.PaymentResult `json:"paymentResult"`
}

func (req createOrderReq) input() service.PlaceOrderInput {
	items := req.Items
	if len(items) == 0 {
		items = req.OrderItems
	}
	lines := make([]service.OrderLine, 0, len(items))
	for _, it := range items {
		id := it.ID
		if id == "" {
			id = it.Product
		}
		image := it.ImageURL
		if image == "" {
			image = it.Image
		}
		if image == "" {
			image = it.ImageAlt
		}
		lines = append(lines, service.OrderLine{ProductID: id, Quantity: it.Quantity, Variant: it.Variant, ImageURL: image})
	}
	return service.PlaceOrderInput{Items: lines, ShippingAddress: req.ShippingAddress.address(), PaymentResult: req.PaymentResult}
}

func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if !decode(w, r, &req) {
		return
	}
	u, _ := session.UserFrom(r.Context())
	o, err := h.Orders.Place(r.Context(), u, req.input())
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) Mine(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	list, err := h.Orders.Mine(r.Context(), u)
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) All(w http.ResponseWriter, r *http.Request) {
	list, err := h.Orders.All(r.Context())
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	o, err := h.Orders.Get(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.MarkDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err, msgOrderNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}
