package ops

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/store"
)

func TestGetFacts_SingleFact(t *testing.T) {
	st := store.NewMemoryStore(factsOf("Dogs have three eyelids"))

	out, err := GetFacts(context.Background(), st, GetInput{Count: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"Dogs have three eyelids"}, out.Facts)
}

func TestGetFacts_CountOutOfRange(t *testing.T) {
	st := store.NewMemoryStore(factsOf("Dogs have three eyelids"))

	_, err := GetFacts(context.Background(), st, GetInput{Count: 2})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
	require.Equal(t, "Number of facts should be in range of 1 to 1. You requested 2", errors.As(err).Message)
}

func TestGetFacts_RejectsEveryInvalidCount(t *testing.T) {
	st := store.NewMemoryStore(factsOf("a", "b", "c"))

	for _, count := range []int{-100, -1, 0, 4, 5, 1000} {
		_, err := GetFacts(context.Background(), st, GetInput{Count: count})
		require.True(t, errors.Is(err, errors.ErrInvalidRequest), "count %d: got %v", count, err)

		fErr := errors.As(err)
		require.Equal(t, 1, fErr.Details["min"])
		require.Equal(t, 3, fErr.Details["max"])
		require.Equal(t, count, fErr.Details["requested"])
	}
}

func TestGetFacts_EmptyCollection(t *testing.T) {
	st := store.NewMemoryStore(nil)

	_, err := GetFacts(context.Background(), st, GetInput{Count: 1})
	require.Equal(t, "Number of facts should be in range of 1 to 0. You requested 1", errors.As(err).Message)
}

func TestGetFacts_ReturnsDistinctStoredEntries(t *testing.T) {
	descriptions := []string{"a", "b", "c", "d", "e", "f", "g"}
	st := store.NewMemoryStore(factsOf(descriptions...))

	for count := 1; count <= len(descriptions); count++ {
		out, err := GetFacts(context.Background(), st, GetInput{Count: count})
		require.NoError(t, err)
		require.Len(t, out.Facts, count)

		seen := make(map[string]bool)
		for _, f := range out.Facts {
			require.Contains(t, descriptions, f)
			require.False(t, seen[f], "duplicate %q in result", f)
			seen[f] = true
		}
	}
}

func TestGetFacts_FullCountIsPermutation(t *testing.T) {
	descriptions := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	st := store.NewMemoryStore(factsOf(descriptions...))

	orders := make(map[string]bool)
	for i := 0; i < 20; i++ {
		out, err := GetFacts(context.Background(), st, GetInput{Count: len(descriptions)})
		require.NoError(t, err)

		sorted := slices.Clone(out.Facts)
		slices.Sort(sorted)
		require.Equal(t, descriptions, sorted)

		orders[strings.Join(out.Facts, "\x00")] = true
	}
	// 8! orderings; 20 identical draws would be astronomically unlikely
	require.Greater(t, len(orders), 1)
}

func TestGetFacts_DoesNotWrite(t *testing.T) {
	st := newCountingStore("a", "b")

	_, err := GetFacts(context.Background(), st, GetInput{Count: 2})
	require.NoError(t, err)
	require.Equal(t, 1, st.loads)
	require.Zero(t, st.saves)
	require.Zero(t, st.updates)

	// Stored order is untouched by the shuffle
	require.Equal(t, factsOf("a", "b"), loadAll(t, st))
}

func TestGetFacts_StoreUnavailable(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := GetFacts(context.Background(), st, GetInput{Count: 1})
	require.True(t, errors.Is(err, errors.ErrStoreUnavailable), "got %v", err)
}

func TestParseCount(t *testing.T) {
	st := store.NewMemoryStore(factsOf("a", "b", "c"))

	n, err := ParseCount(context.Background(), st, "2")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = ParseCount(context.Background(), st, "-4")
	require.NoError(t, err, "range is checked by GetFacts")
	require.Equal(t, -4, n)

	for _, raw := range []string{"abc", "1.5", "", "2e3"} {
		_, err := ParseCount(context.Background(), st, raw)
		require.True(t, errors.Is(err, errors.ErrUnprocessable), "%q: got %v", raw, err)
	}
}

func TestParseCount_OverflowIsOutOfRange(t *testing.T) {
	st := store.NewMemoryStore(factsOf("a", "b", "c"))

	for _, raw := range []string{"99999999999999999999", "-99999999999999999999"} {
		_, err := ParseCount(context.Background(), st, raw)
		require.True(t, errors.Is(err, errors.ErrInvalidRequest), "%q: got %v", raw, err)
		require.Equal(t, "Number of facts should be in range of 1 to 3. You requested "+raw, errors.As(err).Message)
	}
}

func TestParseCount_OverflowStoreUnavailable(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := ParseCount(context.Background(), st, "99999999999999999999")
	require.True(t, errors.Is(err, errors.ErrStoreUnavailable), "got %v", err)
}
