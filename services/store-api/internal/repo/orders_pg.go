package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"superfoods-store/shared/pkg/db"
	"superfoods-store/shared/pkg/models"
	"superfoods-store/shared/pkg/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrdersPG struct {
	DB     *pgxpool.Pool
	Outbox *OutboxPG
}

const orderColumns = `id, user_id, shipping_street, shipping_city, shipping_zip, shipping_country,
	payment_method, payment_result, items_price_cents, shipping_price_cents, total_price_cents,
	is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

// Place reserves stock for every item, writes the order with its items and
// enqueues evt, all in one transaction.
func (r *OrdersPG) Place(ctx context.Context, o *models.Order, evt models.Event[models.OrderCreatedPayload]) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range mergeQuantities(o.Items) {
		ct, err := tx.Exec(ctx, `
			update products
			set stock = stock - $2, updated_at = now()
			where id = $1 and stock >= $2
		`, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("reserve stock for %s: %w", it.ProductID, err)
		}
		if ct.RowsAffected() == 0 {
			return &StockError{ProductID: it.ProductID, Wanted: it.Quantity}
		}
	}

	payment, err := marshalPayment(o.PaymentResult)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		insert into orders (id, user_id, shipping_street, shipping_city, shipping_zip, shipping_country,
			payment_method, payment_result, items_price_cents, shipping_price_cents, total_price_cents,
			is_paid, paid_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)
		returning created_at, updated_at
	`, o.ID, o.UserID, o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.Zip, o.ShippingAddress.Country,
		o.PaymentMethod, payment, money.ToCents(o.ItemsPrice), money.ToCents(o.ShippingPrice), money.ToCents(o.TotalPrice),
		o.IsPaid, o.PaidAt).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err = tx.Exec(ctx, `
			insert into order_items (order_id, position, product_id, name, quantity, image_url, price_cents, variant)
			values ($1, $2, $3, $4, $5, $6, $7, $8)
		`, o.ID, i, it.ProductID, it.Name, it.Quantity, it.ImageURL, money.ToCents(it.Price), it.Variant)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := r.Outbox.Enqueue(ctx, tx, evt); err != nil {
		return fmt.Errorf("outbox enqueue: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *OrdersPG) Get(ctx context.Context, id string) (models.Order, error) {
	orders, err := r.query(ctx, `select `+orderColumns+` from orders where id = $1`, id)
	if db.InvalidText(err) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	if len(orders) == 0 {
		return models.Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *OrdersPG) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.query(ctx, `select `+orderColumns+` from orders where user_id = $1 order by created_at desc`, userID)
}

func (r *OrdersPG) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.query(ctx, `select `+orderColumns+` from orders order by created_at desc`)
}

// MarkDelivered sets the delivered flag once. The event is enqueued only on
// the first transition; later calls return the stored order unchanged.
func (r *OrdersPG) MarkDelivered(ctx context.Context, id string) (models.Order, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return models.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID, email, firstName string
	err = tx.QueryRow(ctx, `
		update orders o
		set is_delivered = true, delivered_at = now(), updated_at = now()
		from users u
		where o.id = $1 and u.id = o.user_id and not o.is_delivered
		returning o.user_id, u.email, u.first_name
	`, id).Scan(&userID, &email, &firstName)
	switch {
	case db.InvalidText(err):
		return models.Order{}, ErrNotFound
	case db.IsNoRows(err):
		// unknown id or already delivered
		_ = tx.Rollback(ctx)
		return r.Get(ctx, id)
	case err != nil:
		return models.Order{}, err
	}

	evt := models.NewEvent(models.EventOrderDelivered, id, models.OrderDeliveredPayload{
		UserID:    userID,
		Email:     email,
		FirstName: firstName,
	})
	if err := r.Outbox.Enqueue(ctx, tx, evt); err != nil {
		return models.Order{}, fmt.Errorf("outbox enqueue: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return r.Get(ctx, id)
}

func (r *OrdersPG) query(ctx context.Context, sql string, args ...any) ([]models.Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Order{}
	index := map[string]int{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(out))
	for _, o := range out {
		ids = append(ids, o.ID)
	}
	items, err := r.DB.Query(ctx, `
		select order_id, product_id, name, quantity, image_url, price_cents, variant
		from order_items
		where order_id = any($1::uuid[])
		order by order_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer items.Close()

	for items.Next() {
		var (
			orderID string
			it      models.OrderItem
			cents   int64
		)
		if err := items.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.ImageURL, &cents, &it.Variant); err != nil {
			return nil, err
		}
		it.Price = money.FromCents(cents)
		o := &out[index[orderID]]
		o.Items = append(o.Items, it)
	}
	return out, items.Err()
}

func scanOrder(row pgx.Row) (models.Order, error) {
	var (
		o                                models.Order
		payment                          []byte
		itemsCents, shipCents, totalCent int64
	)
	err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.Zip,
		&o.ShippingAddress.Country, &o.PaymentMethod, &payment, &itemsCents, &shipCents, &totalCent,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	if len(payment) > 0 {
		o.PaymentResult = &models.PaymentResult{}
		if err := json.Unmarshal(payment, o.PaymentResult); err != nil {
			return models.Order{}, fmt.Errorf("decode payment result of order %s: %w", o.ID, err)
		}
	}
	o.ItemsPrice = money.FromCents(itemsCents)
	o.ShippingPrice = money.FromCents(shipCents)
	o.TotalPrice = money.FromCents(totalCent)
	o.Items = []models.OrderItem{}
	return o, nil
}

func marshalPayment(p *models.PaymentResult) (*string, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// mergeQuantities sums quantities per product so variants of the same
// product reserve stock in a single statement. The result is sorted by
// product id: every checkout locks product rows in the same order, so two
// carts holding the same products cannot deadlock.
func mergeQuantities(items []models.OrderItem) []models.OrderItem {
	sum := map[string]int{}
	for _, it := range items {
		sum[it.ProductID] += it.Quantity
	}
	out := make([]models.OrderItem, 0, len(sum))
	for id, q := range sum {
		out = append(out, models.OrderItem{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
