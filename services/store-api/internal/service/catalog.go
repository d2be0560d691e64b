package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/shared/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type ProductStore interface {
	List(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id string, edit func(*models.Product) error) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

type CatalogService struct {
	Products ProductStore
}

// ProductFields is the admin payload. Nil fields are left unchanged on
// update and take their defaults on create.
type ProductFields struct {
	Name           *string          `json:"name"`
	Slug           *string          `json:"slug"`
	Description    *string          `json:"description"`
	MarketingClaim *string          `json:"marketing_claim"`
	Price          *decimal.Decimal `json:"price"`
	Stock          *int             `json:"stock"`
	IsBio          *bool            `json:"is_bio"`
	Category       *string          `json:"category"`
	ImageURL       *string          `json:"image_url"`
	Rating         *float64         `json:"rating"`
	NumReviews     *int             `json:"num_reviews"`
}

func (s *CatalogService) List(ctx context.Context, category string) ([]models.Product, error) {
	return s.Products.List(ctx, strings.TrimSpace(category))
}

func (s *CatalogService) Get(ctx context.Context, id string) (models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Product{}, ErrInvalidID
	}
	p, err := s.Products.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

func (s *CatalogService) Create(ctx context.Context, f ProductFields) (models.Product, error) {
	p := models.Product{
		ID:    uuid.NewString(),
		IsBio: true,
	}
	var problems []string
	if f.Price == nil {
		problems = append(problems, "price is required")
	}
	apply(&p, f)
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	problems = append(problems, validateProduct(p)...)
	if err := validationErr(problems); err != nil {
		return models.Product{}, err
	}

	if err := s.Products.Create(ctx, &p); err != nil {
		return models.Product{}, translateProductErr(err)
	}
	return p, nil
}

// Update applies f to the stored row while the store holds it locked, so
// stock taken by concurrent orders is never written back.
func (s *CatalogService) Update(ctx context.Context, id string, f ProductFields) (models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Product{}, ErrInvalidID
	}
	p, err := s.Products.Update(ctx, id, func(p *models.Product) error {
		apply(p, f)
		return validationErr(validateProduct(*p))
	})
	var verr *ValidationError
	if errors.As(err, &verr) {
		return models.Product{}, verr
	}
	if err != nil {
		return models.Product{}, translateProductErr(err)
	}
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	if err := s.Products.Delete(ctx, id); err != nil {
		return translateProductErr(err)
	}
	return nil
}

func apply(p *models.Product, f ProductFields) {
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.Slug != nil {
		p.Slug = strings.ToLower(strings.TrimSpace(*f.Slug))
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.MarketingClaim != nil {
		p.MarketingClaim = *f.MarketingClaim
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.Stock != nil {
		p.Stock = *f.Stock
	}
	if f.IsBio != nil {
		p.IsBio = *f.IsBio
	}
	if f.Category != nil {
		p.Category = strings.TrimSpace(*f.Category)
	}
	if f.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*f.ImageURL)
	}
	if f.Rating != nil {
		p.Rating = *f.Rating
	}
	if f.NumReviews != nil {
		p.NumReviews = *f.NumReviews
	}
}

func validateProduct(p models.Product) []string {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Slug == "" {
		problems = append(problems, "slug is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		problems = append(problems, "description is required")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must be at least 0")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		problems = append(problems, "price cannot have more than 2 decimals")
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must be at least 0")
	}
	if p.Stock > models.MaxStock {
		problems = append(problems, fmt.Sprintf("stock must be at most %d", models.MaxStock))
	}
	if p.Category == "" {
		problems = append(problems, "category is required")
	}
	if p.ImageURL == "" {
		problems = append(problems, "image_url is required")
	}
	if p.Rating < 0 || p.Rating > 5 {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if p.NumReviews < 0 {
		problems = append(problems, "num_reviews must be at least 0")
	}
	if p.NumReviews > models.MaxNumReviews {
		problems = append(problems, fmt.Sprintf("num_reviews must be at most %d", models.MaxNumReviews))
	}
	return problems
}

func translateProductErr(err error) error {
	var dup *repo.DuplicateError
	switch {
	case errors.As(err, &dup):
		return ErrProductExists
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("product store: %w", err)
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns "Jus de Bouye Baobab" into "jus-de-bouye-baobab", dropping
// accents and collapsing every other run of non-alphanumerics into one dash.
func Slugify(s string) string {
	plain, _, err := transform.String(stripMarks, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
