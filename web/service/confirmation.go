package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yamdb/api-yamdb/util/crypto"
)

// ConfirmationStore keeps at most one live confirmation code per username.
type ConfirmationStore interface {
	// Put replaces any code stored for username.
	Put(ctx context.Context, username, code string) error
	// Consume removes the stored code and reports whether it matched.
	Consume(ctx context.Context, username, code string) (bool, error)
}

// RedisConfirmationStore keeps bcrypt hashes of codes in Redis with a TTL.
// GETDEL makes read-and-invalidate a single step, so a code is accepted at
// most once even under concurrent exchanges.
type RedisConfirmationStore struct {
	client *redis.Client
	ttl    time.Duration
	cost   int
}

func NewRedisConfirmationStore(client *redis.Client, ttl time.Duration, cost int) *RedisConfirmationStore {
	return &RedisConfirmationStore{client: client, ttl: ttl, cost: cost}
}

func confirmationKey(username string) string {
	return "confirmation:" + username
}

func (s *RedisConfirmationStore) Put(ctx context.Context, username, code string) error {
	hash, err := crypto.HashSecret(code, s.cost)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, confirmationKey(username), hash, s.ttl).Err()
}

func (s *RedisConfirmationStore) Consume(ctx context.Context, username, code string) (bool, error) {
	hash, err := s.client.GetDel(ctx, confirmationKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return crypto.CheckSecretHash(hash, code), nil
}
