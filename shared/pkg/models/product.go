package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	MarketingClaim string          `json:"marketing_claim"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	IsBio          bool            `json:"is_bio"`
	Category       string          `json:"category"`
	ImageURL       string          `json:"image_url"`
	Rating         float64         `json:"rating"`
	NumReviews     int             `json:"num_reviews"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
