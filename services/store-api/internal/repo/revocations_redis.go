package repo

import (
	"context"
	"time"

	"superfoods-store/shared/pkg/cache"
)

// RevocationsRedis keeps revoked token ids until the token would have expired.
type RevocationsRedis struct {
	Redis *cache.Redis
}

func revokedKey(jti string) string { return "revoked:" + jti }

func (r *RevocationsRedis) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.Redis.SetString(ctx, revokedKey(jti), "1", ttl)
}

func (r *RevocationsRedis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.Redis.Exists(ctx, revokedKey(jti))
}
