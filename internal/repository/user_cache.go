package repository

import (
	"context"
	"encoding/json"

	"habitat/internal/cache"
	"habitat/internal/models"

	"github.com/redis/go-redis/v9"
)

// cachedUserRepository is a read-through cache over the user directory.
// Profile rows change rarely (only on auth-service sync), so a short TTL
// keeps the hot GetByID path off the database.
type cachedUserRepository struct {
	UserRepository
	rdb *redis.Client
}

// NewCachedUserRepository wraps inner with a Redis read-through cache.
// With a nil client the inner repository is returned unchanged.
func NewCachedUserRepository(inner UserRepository, rdb *redis.Client) UserRepository {
	if rdb == nil {
		return inner
	}
	return &cachedUserRepository{UserRepository: inner, rdb: rdb}
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	key := cache.UserKey(id)
	if raw, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
		var user models.User
		if json.Unmarshal(raw, &user) == nil {
			return &user, nil
		}
	}

	user, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, merr := json.Marshal(user); merr == nil {
		// Best-effort write; a miss just falls back to the database.
		r.rdb.Set(ctx, key, raw, cache.UserTTL)
	}
	return user, nil
}

func (r *cachedUserRepository) Upsert(ctx context.Context, user *models.User) error {
	if err := r.UserRepository.Upsert(ctx, user); err != nil {
		return err
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}
