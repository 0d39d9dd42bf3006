package ops

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testToken = "s3cret"

// countingStore records how often each store method is called.
type countingStore struct {
	store.Store

	mu      sync.Mutex
	loads   int
	saves   int
	updates int
	writes  int // updates whose fn succeeded
}

func newCountingStore(descriptions ...string) *countingStore {
	return &countingStore{Store: store.NewMemoryStore(factsOf(descriptions...))}
}

func (s *countingStore) Load(ctx context.Context) ([]fact.Fact, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.Store.Load(ctx)
}

func (s *countingStore) Save(ctx context.Context, facts []fact.Fact) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, facts)
}

func (s *countingStore) Update(ctx context.Context, fn store.MutateFunc) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.Store.Update(ctx, func(current []fact.Fact) ([]fact.Fact, error) {
		next, err := fn(current)
		if err == nil {
			s.mu.Lock()
			s.writes++
			s.mu.Unlock()
		}
		return next, err
	})
}

func factsOf(descriptions ...string) []fact.Fact {
	out := make([]fact.Fact, len(descriptions))
	for i, d := range descriptions {
		out[i] = fact.Fact{Description: d}
	}
	return out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.Token = testToken
	return cfg
}

func loadAll(t *testing.T, st store.Store) []fact.Fact {
	t.Helper()
	facts, err := st.Load(context.Background())
	require.NoError(t, err)
	return facts
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		given      string
		wantErr    bool
	}{
		{"match", "abc", "abc", false},
		{"mismatch", "abc", "abd", true},
		{"missing header", "abc", "", true},
		{"prefix", "abc", "ab", true},
		{"case differs", "abc", "ABC", true},
		{"unset configured token", "", "", true},
		{"unset configured token with given", "", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Token = tt.configured
			err := authorize(cfg, tt.given)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, errors.ErrUnauthorized), "got %v", err)
			require.Equal(t, "X-Token header invalid", errors.As(err).Message)
		})
	}

	require.Error(t, authorize(nil, "abc"))
}

func TestValidateDescription(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxDescriptionChars = 5

	require.NoError(t, validateDescription(cfg, "Dogs!"))
	require.NoError(t, validateDescription(cfg, "🐕🐕🐕🐕🐕"), "limit counts runes")
	require.True(t, errors.Is(validateDescription(cfg, ""), errors.ErrInvalidRequest))
	require.True(t, errors.Is(validateDescription(cfg, " \t\n"), errors.ErrInvalidRequest))
	require.True(t, errors.Is(validateDescription(cfg, "Dogs!!"), errors.ErrInvalidRequest))

	cfg.MaxDescriptionChars = 0
	require.NoError(t, validateDescription(cfg, "no limit when zero"))
}
