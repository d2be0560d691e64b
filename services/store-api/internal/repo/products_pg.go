package repo

import (
	"context"

	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductsPG struct {
	DB     *pgxpool.Pool
	Outbox *OutboxPG
}

const productColumns = `id, name, slug, description, marketing_claim, price_cents, stock, is_bio,
	category, image_url, rating, num_reviews, created_at, updated_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p     models.Product
		cents int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.MarketingClaim, &cents, &p.Stock, &p.IsBio,
		&p.Category, &p.ImageURL, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	p.Price = money.FromCents(cents)
	return p, nil
}

func (r *ProductsPG) List(ctx context.Context, category string) ([]models.Product, error) {
	rows, err := r.DB.Query(ctx, `
		select `+productColumns+`
		from products
		where $1 = '' or lower(category) = lower($1)
		order by created_at, name
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductsPG) Get(ctx context.Context, id string) (models.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `select `+productColumns+` from products where id = $1`, id))
	if db.IsNoRows(err) || db.InvalidText(err) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

// GetMany returns the products that exist among ids, keyed by id.
func (r *ProductsPG) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	rows, err := r.DB.Query(ctx, `select `+productColumns+` from products where id = any($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *ProductsPG) Create(ctx context.Context, p *models.Product) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		insert into products (id, name, slug, description, marketing_claim, price_cents, stock, is_bio,
			category, image_url, rating, num_reviews)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		returning created_at, updated_at
	`, p.ID, p.Name, p.Slug, p.Description, p.MarketingClaim, money.ToCents(p.Price), p.Stock, p.IsBio,
		p.Category, p.ImageURL, p.Rating, p.NumReviews).Scan(&p.CreatedAt, &p.UpdatedAt)
	if c, ok := db.UniqueViolation(err); ok {
		return &DuplicateError{Constraint: c}
	}
	if err != nil {
		return err
	}

	if err := r.enqueue(ctx, tx, models.EventProductCreated, *p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update locks the row, hands the current values to edit and writes the
// result back in the same transaction. Orders reserving stock block on the
// lock, so edit always sees the latest stock.
func (r *ProductsPG) Update(ctx context.Context, id string, edit func(*models.Product) error) (models.Product, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.Product{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanProduct(tx.QueryRow(ctx, `select `+productColumns+` from products where id = $1 for update`, id))
	if db.IsNoRows(err) || db.InvalidText(err) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	if err := edit(&cur); err != nil {
		return models.Product{}, err
	}
	p := &cur

	err = tx.QueryRow(ctx, `
		update products
		set name = $2, slug = $3, description = $4, marketing_claim = $5, price_cents = $6, stock = $7,
		    is_bio = $8, category = $9, image_url = $10, rating = $11, num_reviews = $12, updated_at = now()
		where id = $1
		returning created_at, updated_at
	`, p.ID, p.Name, p.Slug, p.Description, p.MarketingClaim, money.ToCents(p.Price), p.Stock,
		p.IsBio, p.Category, p.ImageURL, p.Rating, p.NumReviews).Scan(&p.CreatedAt, &p.UpdatedAt)
	if c, ok := db.UniqueViolation(err); ok {
		return models.Product{}, &DuplicateError{Constraint: c}
	}
	if err != nil {
		return models.Product{}, err
	}

	if err := r.enqueue(ctx, tx, models.EventProductUpdated, *p); err != nil {
		return models.Product{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Product{}, err
	}
	return *p, nil
}

func (r *ProductsPG) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p models.Product
	err = tx.QueryRow(ctx, `delete from products where id = $1 returning id, name, slug`, id).Scan(&p.ID, &p.Name, &p.Slug)
	if db.IsNoRows(err) || db.InvalidText(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := r.enqueue(ctx, tx, models.EventProductDeleted, p); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProductsPG) enqueue(ctx context.Context, tx pgx.Tx, eventType string, p models.Product) error {
	evt := models.NewEvent(eventType, p.ID, models.ProductChangedPayload{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Stock:     p.Stock,
	})
	return r.Outbox.Enqueue(ctx, tx, evt)
}
