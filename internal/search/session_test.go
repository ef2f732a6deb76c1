package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

func seedSession(token string) *Session {
	now := time.Now().UTC()
	return &Session{
		Token: token,
		Query: Query{TextQuery: "pallet jack"},
		Results: []Result{
			{ID: "item-1", SimilarityPercentage: 92.4, MatchQuality: QualityExcellent},
		},
		TotalMatches: 4,
		HasMore:      true,
		SearchMode:   "text",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, seedSession("tok-1")))

	loaded, err := store.Load(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", loaded.Token)
	assert.Equal(t, "pallet jack", loaded.Query.TextQuery)
	assert.Equal(t, 4, loaded.TotalMatches)
	assert.True(t, loaded.HasMore)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, "item-1", loaded.Results[0].ID)
}

func TestMemorySessionStoreClonesResults(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := seedSession("tok-2")
	require.NoError(t, store.Save(ctx, session))

	// Mutating the caller's copy must not affect the stored session.
	session.Results[0].ID = "mutated"
	session.Results = append(session.Results, Result{ID: "extra"})

	loaded, err := store.Load(ctx, "tok-2")
	require.NoError(t, err)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, "item-1", loaded.Results[0].ID)

	// The load result is a clone too.
	loaded.Results[0].ID = "mutated-again"
	reloaded, err := store.Load(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, "item-1", reloaded.Results[0].ID)
}

func TestMemorySessionStoreUnknownToken(t *testing.T) {
	store := NewMemorySessionStore()

	_, err := store.Load(context.Background(), "missing")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, seedSession("tok-3")))
	require.NoError(t, store.Delete(ctx, "tok-3"))

	_, err := store.Load(ctx, "tok-3")
	require.Error(t, err)

	// Deleting an absent session is not an error.
	require.NoError(t, store.Delete(ctx, "tok-3"))
}
