package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"superfoods-store/services/outbox-worker/internal/metrics"
	sharedmetrics "superfoods-store/shared/pkg/metrics"
)

type PendingCounter interface {
	Pending(ctx context.Context) (int, error)
}

type Server struct {
	Outbox PendingCounter
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(sharedmetrics.Middleware("outbox-worker"))
	r.Handle(sharedmetrics.Path, sharedmetrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/outbox/pending", func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Outbox.Pending(r.Context())
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.OutboxPending.Set(float64(n))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"pending": n})
	})

	return r
}
