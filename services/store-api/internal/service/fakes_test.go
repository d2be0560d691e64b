package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"superfoods-store/services/store-api/internal/cart"
	"superfoods-store/services/store-api/internal/repo"
	"superfoods-store/shared/pkg/models"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]models.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}, email: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[u.Email]; ok {
		return &repo.DuplicateError{Constraint: "users_email_key"}
	}
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.byID[u.ID] = *u
	m.email[u.Email] = u.ID
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	id, ok := m.email[email]
	m.mu.Unlock()
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateAddresses(_ context.Context, id string, addrs []models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Addresses = addrs
	m.byID[id] = u
	return nil
}

type memRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (m *memRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = until
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

type memProducts struct {
	mu       sync.Mutex
	items    map[string]models.Product
	seq      int
	getCalls int
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{items: map[string]models.Product{}}
	for _, p := range ps {
		m.seq++
		p.CreatedAt = time.Unix(int64(m.seq), 0)
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) List(_ context.Context, category string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.items {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memProducts) Get(_ context.Context, id string) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	p, ok := m.items[id]
	if !ok {
		return models.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) GetMany(_ context.Context, ids []string) (map[string]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.items {
		if other.Name == p.Name || other.Slug == p.Slug {
			return &repo.DuplicateError{Constraint: "products_slug_key"}
		}
	}
	m.seq++
	p.CreatedAt = time.Unix(int64(m.seq), 0)
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Update(_ context.Context, id string, edit func(*models.Product) error) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return models.Product{}, repo.ErrNotFound
	}
	if err := edit(&p); err != nil {
		return models.Product{}, err
	}
	for otherID, other := range m.items {
		if otherID != id && (other.Name == p.Name || other.Slug == p.Slug) {
			return models.Product{}, &repo.DuplicateError{Constraint: "products_name_key"}
		}
	}
	m.items[id] = p
	return p, nil
}

// sell stands in for an order committing against the product.
func (m *memProducts) sell(id string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.Stock -= qty
	m.items[id] = p
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memOrders struct {
	mu        sync.Mutex
	products  *memProducts
	orders    []models.Order
	events    []models.Event[models.OrderCreatedPayload]
	delivered []string
}

func (m *memOrders) Place(_ context.Context, o *models.Order, evt models.Event[models.OrderCreatedPayload]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	need := map[string]int{}
	for _, it := range o.Items {
		need[it.ProductID] += it.Quantity
	}
	for id, q := range need {
		if m.products.items[id].Stock < q {
			return &repo.StockError{ProductID: id, Wanted: q}
		}
	}
	for id, q := range need {
		p := m.products.items[id]
		p.Stock -= q
		m.products.items[id] = p
	}
	o.CreatedAt = time.Now().Add(time.Duration(len(m.orders)) * time.Second)
	m.orders = append(m.orders, *o)
	m.events = append(m.events, evt)
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, repo.ErrNotFound
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for i := len(m.orders) - 1; i >= 0; i-- {
		out = append(out, m.orders[i])
	}
	return out, nil
}

func (m *memOrders) MarkDelivered(_ context.Context, id string) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].ID != id {
			continue
		}
		if !m.orders[i].IsDelivered {
			now := time.Now()
			m.orders[i].IsDelivered = true
			m.orders[i].DeliveredAt = &now
			m.delivered = append(m.delivered, id)
		}
		return m.orders[i], nil
	}
	return models.Order{}, repo.ErrNotFound
}

type memCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func newMemCarts() *memCarts { return &memCarts{carts: map[string]cart.Cart{}} }

func (m *memCarts) Load(_ context.Context, userID string) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(userID), nil
}

func (m *memCarts) load(userID string) cart.Cart {
	c, ok := m.carts[userID]
	if !ok {
		return cart.Cart{Items: []cart.Item{}}
	}
	items := append([]cart.Item(nil), c.Items...)
	return cart.Cart{Items: items}
}

func (m *memCarts) Update(_ context.Context, userID string, fn func(*cart.Cart) error) (cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.load(userID)
	if err := fn(&c); err != nil {
		return cart.Cart{}, err
	}
	m.carts[userID] = c
	return c, nil
}

func (m *memCarts) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...string) {
	r.ids = append(r.ids, ids...)
}
