package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"superfoods-store/shared/pkg/metrics"
)

func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware("notification-service"))
	r.Handle(metrics.Path, metrics.Handler())
	r.Get("/health", Health)
	return r
}
