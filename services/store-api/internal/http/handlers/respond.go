package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"

	"github.com/rs/zerolog"
)

const maxBody = 1 << 20

func Health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeErr maps service errors to status codes. notFound is the message
// used for ErrNotFound.
func writeErr(w http.ResponseWriter, log zerolog.Logger, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Problems)
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInvalidID):
		respond.Error(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrProductExists),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrUnknownProduct):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		respond.Error(w, http.StatusInternalServerError, "server error")
	}
}
