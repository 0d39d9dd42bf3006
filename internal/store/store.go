// Package store persists the fact collection.
//
// Every backend stores the whole collection as one ordered unit. Callers read
// it with Load and change it through Update, which is the only safe way to do
// read-modify-write: each backend serializes Update calls as strongly as its
// medium allows (process mutex, SQL transaction, Redis WATCH).
package store

import (
	"context"
	"fmt"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
)

// MutateFunc receives the current collection and returns the collection to
// persist. Returning an error aborts the update without writing anything.
type MutateFunc func(current []fact.Fact) ([]fact.Fact, error)

// Store is the persistence contract for the fact collection.
type Store interface {
	// Load returns the full collection in stored order.
	// Fails with STORE_UNAVAILABLE if the document is missing or unparsable.
	Load(ctx context.Context) ([]fact.Fact, error)

	// Save replaces the full collection.
	// Fails with STORE_UNAVAILABLE if the location is not writable.
	Save(ctx context.Context, facts []fact.Fact) error

	// Update loads the collection, applies fn and persists the result.
	// Errors returned by fn are passed through unchanged.
	Update(ctx context.Context, fn MutateFunc) error

	// Close releases backend resources.
	Close() error
}

// Initializer is implemented by stores that can be seeded when empty.
type Initializer interface {
	// Init writes facts if the store holds no collection yet and reports
	// whether it did.
	Init(ctx context.Context, facts []fact.Fact) (bool, error)
}

// Seed writes facts into st if it has no collection yet.
// Stores that cannot be seeded report false.
func Seed(ctx context.Context, st Store, facts []fact.Fact) (bool, error) {
	in, ok := st.(Initializer)
	if !ok {
		return false, nil
	}
	return in.Init(ctx, facts)
}

// Open builds the store selected by cfg.Store.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreFile, "":
		return NewFileStore(cfg.ResolvePath(cfg.FactsPath)), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.ResolvePath(cfg.SQLitePath))
	case config.StoreRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisKey), nil
	case config.StoreMemory:
		return NewMemoryStore(DefaultFacts()), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// checkContext maps a done context to a CANCELLED error.
func checkContext(ctx context.Context, op string) error {
	if ctx.Err() != nil {
		return errors.NewCancelled(op)
	}
	return nil
}

// clone returns a copy of facts that never aliases the input. nil becomes empty.
func clone(facts []fact.Fact) []fact.Fact {
	out := make([]fact.Fact, len(facts))
	copy(out, facts)
	return out
}
