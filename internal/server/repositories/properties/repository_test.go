package properties

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/leasekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	require.NoError(t, r.Add(ctx, models.Property{ID: "p2", OwnerID: "u1", Name: "Oak Court"}))
	require.NoError(t, r.Add(ctx, models.Property{ID: "p1", OwnerID: "u1", Name: "Birch House"}))
	require.NoError(t, r.Add(ctx, models.Property{ID: "p3", OwnerID: "u2", Name: "Elm Lofts"}))

	got, err := r.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, "p2", got[1].ID)

	none, err := r.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
