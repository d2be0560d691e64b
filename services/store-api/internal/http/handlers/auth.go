package handlers

import (
	"context"
	"net/http"
	"time"

	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/services/store-api/internal/session"
	"superfoods-store/shared/pkg/auth"
	"superfoods-store/shared/pkg/models"

	"github.com/rs/zerolog"
)

type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateAddresses(ctx context.Context, userID string, addrs []models.Address) (models.User, error)
}

type AuthHandler struct {
	Accounts Accounts
	Cookie   auth.CookieOptions
	Log      zerolog.Logger
}

type sessionResp struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	Data    models.User `json:"data"`
}

type userResp struct {
	Success bool        `json:"success"`
	Data    models.User `json:"data"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		writeErr(w, h.Log, err, "user not found")
		return
	}
	h.startSession(w, http.StatusCreated, sess)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, h.Log, err, "user not found")
		return
	}
	h.startSession(w, http.StatusOK, sess)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, sess service.Session) {
	http.SetCookie(w, auth.SessionCookie(sess.Token, h.Cookie, time.Now()))
	respond.JSON(w, status, sessionResp{Success: true, Token: sess.Token, Data: sess.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		h.Log.Warn().Err(err).Msg("token revocation failed")
	}
	http.SetCookie(w, auth.ClearedCookie(h.Cookie))
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := session.UserFrom(r.Context())
	respond.JSON(w, http.StatusOK, userResp{Success: true, Data: u})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, _ := session.UserFrom(r.Context())
	if err := h.Accounts.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeErr(w, h.Log, err, "user not found")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) UpdateAddresses(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Addresses []models.Address `json:"addresses"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Addresses == nil {
		req.Addresses = []models.Address{}
	}
	u, _ := session.UserFrom(r.Context())
	updated, err := h.Accounts.UpdateAddresses(r.Context(), u.ID, req.Addresses)
	if err != nil {
		writeErr(w, h.Log, err, "user not found")
		return
	}
	respond.JSON(w, http.StatusOK, userResp{Success: true, Data: updated})
}
