package handlers

import (
	"context"
	"net/http"

	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/shared/pkg/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const msgProductNotFound = "product not found"

type Catalog interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Create(ctx context.Context, f service.ProductFields) (models.Product, error)
	Update(ctx context.Context, id string, f service.ProductFields) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Catalog Catalog
	Log     zerolog.Logger
}

type productListResp struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []models.Product `json:"data"`
}

type productResp struct {
	Success bool           `json:"success"`
	Data    models.Product `json:"data"`
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeErr(w, h.Log, err, msgProductNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, productListResp{Success: true, Count: len(ps), Data: ps})
}

func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err, msgProductNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, productResp{Success: true, Data: p})
}

func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f service.ProductFields
	if !decode(w, r, &f) {
		return
	}
	p, err := h.Catalog.Create(r.Context(), f)
	if err != nil {
		writeErr(w, h.Log, err, msgProductNotFound)
		return
	}
	h.Log.Info().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product created")
	respond.JSON(w, http.StatusCreated, productResp{Success: true, Data: p})
}

func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var f service.ProductFields
	if !decode(w, r, &f) {
		return
	}
	p, err := h.Catalog.Update(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		writeErr(w, h.Log, err, msgProductNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, productResp{Success: true, Data: p})
}

func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeErr(w, h.Log, err, msgProductNotFound)
		return
	}
	h.Log.Info().Str("product_id", id).Msg("product deleted")
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "data": struct{}{}})
}
