package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

func TestMemoryLocationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLocationRepository()

	locs, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, locs)

	first, err := repo.Create(ctx, model.LocationInput{PlaceID: "p1", Name: "Wat Rong Khun", Address: "a", Keyword: "temple", Types: "poi"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, model.LocationInput{PlaceID: "p1", Name: "Baan Dam", Address: "b", Keyword: "museum", Types: "poi"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "place ids need not be unique")

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, *first, *got)

	name := "White Temple"
	updated, err := repo.UpdateByID(ctx, first.ID, model.LocationPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "White Temple", updated.Name)
	assert.Equal(t, "temple", updated.Keyword)

	locs, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "White Temple", locs[0].Name)
	assert.Equal(t, "Baan Dam", locs[1].Name)

	require.NoError(t, repo.DeleteByID(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, first.ID), ErrNotFound)
	_, err = repo.UpdateByID(ctx, "zzz", model.LocationPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	locs, err = repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, second.ID, locs[0].ID)
}
