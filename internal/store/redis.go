package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
)

// maxRedisTxRetries bounds optimistic transaction retries when another
// writer changes the key between WATCH and EXEC.
const maxRedisTxRetries = 5

// RedisStore keeps the JSON document under a single Redis key.
// Update uses WATCH/MULTI/EXEC so concurrent writers never lose an update.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store for key on the server at addr.
// No connection is made until the first operation.
func NewRedisStore(addr, key string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), key)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load reads and parses the document.
func (s *RedisStore) Load(ctx context.Context) ([]fact.Fact, error) {
	if err := checkContext(ctx, "load"); err != nil {
		return nil, err
	}
	return s.read(ctx, s.client)
}

// Save overwrites the document.
func (s *RedisStore) Save(ctx context.Context, facts []fact.Fact) error {
	if err := checkContext(ctx, "save"); err != nil {
		return err
	}
	data, err := fact.EncodeDocument(facts)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return errors.NewStoreUnavailable(fmt.Errorf("redis set %s: %w", s.key, err))
	}
	return nil
}

// Update runs fn inside an optimistic transaction on the key.
func (s *RedisStore) Update(ctx context.Context, fn MutateFunc) error {
	if err := checkContext(ctx, "update"); err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		data, err := fact.EncodeDocument(next)
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRedisTxRetries; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if stderrors.Is(err, redis.TxFailedErr) {
			continue
		}
		var fErr *errors.FactsError
		if stderrors.As(err, &fErr) {
			return fErr
		}
		return errors.NewStoreUnavailable(fmt.Errorf("redis update %s: %w", s.key, err))
	}
	return errors.NewStoreUnavailable(fmt.Errorf("redis update %s: too many concurrent writers", s.key))
}

// Init sets the document only if the key does not exist.
func (s *RedisStore) Init(ctx context.Context, facts []fact.Fact) (bool, error) {
	if err := checkContext(ctx, "init"); err != nil {
		return false, err
	}
	data, err := fact.EncodeDocument(facts)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	ok, err := s.client.SetNX(ctx, s.key, data, 0).Result()
	if err != nil {
		return false, errors.NewStoreUnavailable(fmt.Errorf("redis setnx %s: %w", s.key, err))
	}
	return ok, nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisGetter is satisfied by *redis.Client and *redis.Tx.
type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c redisGetter) ([]fact.Fact, error) {
	data, err := c.Get(ctx, s.key).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewStoreUnavailable(fmt.Errorf("redis key %s does not exist", s.key))
		}
		return nil, errors.NewStoreUnavailable(fmt.Errorf("redis get %s: %w", s.key, err))
	}
	facts, err := fact.DecodeDocument(data)
	if err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("redis key %s: %w", s.key, err))
	}
	return facts, nil
}
