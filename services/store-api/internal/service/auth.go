package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/shared/pkg/auth"
	"superfoods-store/shared/pkg/metrics"
	"superfoods-store/shared/pkg/models"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAddresses(ctx context.Context, id string, addrs []models.Address) error
}

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	Users   UserStore
	Tokens  *auth.Issuer
	Revoked RevocationStore // nil disables logout revocation
	Log     zerolog.Logger
}

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Session is what register and login hand back to the client.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// dummyHash keeps login timing the same for unknown emails.
var dummyHash, _ = auth.HashPassword("not-a-real-password")

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

// CreateUser validates and stores a new client account without opening a
// session.
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput) (models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)

	var problems []string
	if in.FirstName == "" {
		problems = append(problems, "firstName is required")
	}
	if in.LastName == "" {
		problems = append(problems, "lastName is required")
	}
	switch {
	case in.Email == "":
		problems = append(problems, "email is required")
	case !govalidator.IsEmail(in.Email):
		problems = append(problems, "please provide a valid email")
	}
	if err := auth.CheckPasswordPolicy(in.Password); err != nil {
		problems = append(problems, err.Error())
	}
	if err := validationErr(problems); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleClient,
		Addresses:    []models.Address{},
	}
	if err := s.Users.Create(ctx, &u); err != nil {
		var dup *repo.DuplicateError
		if errors.As(err, &dup) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.Log.Info().Str("user_id", u.ID).Msg("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, &ValidationError{Problems: []string{"please provide an email and a password"}}
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		auth.CheckPassword(dummyHash, password)
		metrics.AuthFailuresTotal.WithLabelValues("unknown_email").Inc()
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		metrics.AuthFailuresTotal.WithLabelValues("bad_password").Inc()
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u models.User) (Session, error) {
	tok, claims, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// Authenticate resolves a bearer or cookie token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, auth.Claims, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues("bad_token").Inc()
		return models.User{}, auth.Claims{}, ErrUnauthenticated
	}

	if s.Revoked != nil && claims.ID != "" {
		revoked, err := s.Revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// a Redis outage must not log every user out
			s.Log.Warn().Err(err).Msg("revocation lookup failed")
		} else if revoked {
			metrics.AuthFailuresTotal.WithLabelValues("revoked").Inc()
			return models.User{}, auth.Claims{}, ErrUnauthenticated
		}
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		metrics.AuthFailuresTotal.WithLabelValues("unknown_user").Inc()
		return models.User{}, auth.Claims{}, ErrUnauthenticated
	}
	if err != nil {
		return models.User{}, auth.Claims{}, fmt.Errorf("load user: %w", err)
	}
	return u, claims, nil
}

// Logout revokes token until it expires. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.Revoked == nil {
		return nil
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.Revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := auth.CheckPasswordPolicy(next); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, userID, hash)
}

// UpdateAddresses replaces the address book. At most one address may be the
// default; when none is flagged the first one becomes the default.
func (s *AuthService) UpdateAddresses(ctx context.Context, userID string, addrs []models.Address) (models.User, error) {
	var problems []string
	defaults := 0
	for i := range addrs {
		a := &addrs[i]
		a.Street, a.City = strings.TrimSpace(a.Street), strings.TrimSpace(a.City)
		a.Zip, a.Country = strings.TrimSpace(a.Zip), strings.TrimSpace(a.Country)
		if a.Street == "" || a.City == "" || a.Zip == "" || a.Country == "" {
			problems = append(problems, fmt.Sprintf("address %d: street, city, zip and country are required", i+1))
		}
		if a.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		problems = append(problems, "only one address can be the default")
	}
	if err := validationErr(problems); err != nil {
		return models.User{}, err
	}
	if defaults == 0 && len(addrs) > 0 {
		addrs[0].IsDefault = true
	}

	if err := s.Users.UpdateAddresses(ctx, userID, addrs); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return s.Users.GetByID(ctx, userID)
}
