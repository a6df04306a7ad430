// Package cart persists the per-consumer cart in redis so it survives a page
// reload but stays scoped to the authenticated consumer.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wieeerzbickim/community-feast/internal/domain"
)

const cartTTL = 14 * 24 * time.Hour

type Store interface {
	Load(ctx context.Context, consumerID int64) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Clear(ctx context.Context, consumerID int64) error
}

type redisStore struct {
	client *redis.Client
}

func NewStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func cartKey(consumerID int64) string {
	return fmt.Sprintf("cart:%d", consumerID)
}

// Load returns an empty cart when none is stored.
func (s *redisStore) Load(ctx context.Context, consumerID int64) (*domain.Cart, error) {
	val, err := s.client.Get(ctx, cartKey(consumerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(consumerID), nil
		}

		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(val), &cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart: %w", err)
	}

	return &cart, nil
}

func (s *redisStore) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(cart.ConsumerID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (s *redisStore) Clear(ctx context.Context, consumerID int64) error {
	if err := s.client.Del(ctx, cartKey(consumerID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
