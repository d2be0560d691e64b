package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"superfoods-store/services/store-api/internal/cart"
	"superfoods-store/shared/pkg/cache"

	"github.com/redis/go-redis/v9"
)

const cartUpdateAttempts = 5

// ErrCartBusy is returned when a cart kept changing under every attempt.
var ErrCartBusy = errors.New("cart is being modified concurrently")

type CartsRedis struct {
	Redis *cache.Redis
	TTL   time.Duration
}

func cartKey(userID string) string { return "cart:" + userID }

// Load returns an empty cart when none is stored.
func (r *CartsRedis) Load(ctx context.Context, userID string) (cart.Cart, error) {
	b, err := r.Redis.C.Get(ctx, cartKey(userID)).Bytes()
	return decodeCart(b, err)
}

// Update runs fn on the stored cart under WATCH and writes the result only
// if nobody else wrote the key meanwhile, retrying a few times otherwise.
// An error from fn aborts without writing.
func (r *CartsRedis) Update(ctx context.Context, userID string, fn func(*cart.Cart) error) (cart.Cart, error) {
	key := cartKey(userID)
	var out cart.Cart
	txf := func(tx *redis.Tx) error {
		c, err := decodeCart(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		body, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if len(c.Items) == 0 {
				p.Del(ctx, key)
			} else {
				p.Set(ctx, key, body, r.TTL)
			}
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}

	for i := 0; i < cartUpdateAttempts; i++ {
		err := r.Redis.C.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return cart.Cart{}, err
		}
		return out, nil
	}
	return cart.Cart{}, ErrCartBusy
}

func (r *CartsRedis) Clear(ctx context.Context, userID string) error {
	return r.Redis.Del(ctx, cartKey(userID))
}

func decodeCart(b []byte, err error) (cart.Cart, error) {
	if errors.Is(err, redis.Nil) {
		return cart.Cart{Items: []cart.Item{}}, nil
	}
	if err != nil {
		return cart.Cart{}, err
	}
	var c cart.Cart
	if err := json.Unmarshal(b, &c); err != nil {
		return cart.Cart{}, err
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return c, nil
}
