package ops

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"strconv"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/store"
)

// GetInput contains parameters for the GetFacts operation.
type GetInput struct {
	Count int
}

// GetOutput contains the result of the GetFacts operation.
type GetOutput struct {
	Facts []string `json:"facts"`
}

// GetFacts returns Count distinct facts drawn uniformly at random.
// Count must be in [1, size of collection].
func GetFacts(ctx context.Context, st store.Store, input GetInput) (*GetOutput, error) {
	facts, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}

	if input.Count < 1 || input.Count > len(facts) {
		return nil, errors.NewCountOutOfRange(len(facts), input.Count)
	}

	rand.Shuffle(len(facts), func(i, j int) {
		facts[i], facts[j] = facts[j], facts[i]
	})

	return &GetOutput{Facts: fact.Descriptions(facts[:input.Count])}, nil
}

// ParseCount converts a count given as text, as in the HTTP path or a CLI
// argument. An integer too large for int is still an integer: it is reported
// against the collection size like any other out-of-range count.
func ParseCount(ctx context.Context, st store.Store, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err == nil {
		return n, nil
	}

	var numErr *strconv.NumError
	if !stderrors.As(err, &numErr) || numErr.Err != strconv.ErrRange {
		return 0, errors.NewUnprocessable("count must be an integer")
	}

	facts, err := st.Load(ctx)
	if err != nil {
		return 0, err
	}
	return 0, errors.NewCountOutOfRangeText(len(facts), raw)
}
