package ops

import (
	"context"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/store"
)

// CreateInput contains parameters for the CreateFact operation.
type CreateInput struct {
	Description string // required, stored exactly as given
	Token       string // must match the configured write token
}

// CreateFact appends a new fact to the end of the collection.
//
// The token is checked before anything is loaded. The duplicate check runs
// inside the store's Update so it sees the same collection that is written.
func CreateFact(ctx context.Context, st store.Store, cfg *config.Config, input CreateInput) (*fact.Fact, error) {
	if err := authorize(cfg, input.Token); err != nil {
		return nil, err
	}
	if err := validateDescription(cfg, input.Description); err != nil {
		return nil, err
	}

	created := fact.Fact{Description: input.Description}
	err := st.Update(ctx, func(current []fact.Fact) ([]fact.Fact, error) {
		if fact.Contains(current, created.Description) {
			return nil, errors.NewDuplicateFact(created.Description)
		}
		return append(current, created), nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}
