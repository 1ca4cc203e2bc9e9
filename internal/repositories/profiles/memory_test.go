package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

func TestMemory_UpsertSemantics(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "u-1", models.ProfileFields{Email: models.Ptr("a@b.com"), Cluster: models.Ptr("C1")}, false)
	require.NoError(t, err)

	rec, err := repo.Upsert(ctx, "u-1", models.ProfileFields{Mobile: models.Ptr("1234567890")}, true)
	require.NoError(t, err)
	assert.Equal(t, "C1", rec.Cluster)
	assert.Equal(t, "1234567890", rec.Mobile)

	rec, err = repo.Upsert(ctx, "u-1", models.ProfileFields{Email: models.Ptr("a@b.com")}, false)
	require.NoError(t, err)
	assert.Empty(t, rec.Cluster)

	require.NoError(t, repo.Delete(ctx, "u-1"))
	_, err = repo.Read(ctx, "u-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_MergeKeepsFirstCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	_, err := repo.Upsert(ctx, "u-1", models.ProfileFields{Email: models.Ptr("a@b.com"), CreatedAt: &first}, true)
	require.NoError(t, err)
	rec, err := repo.Upsert(ctx, "u-1", models.ProfileFields{Cluster: models.Ptr("C1"), CreatedAt: &second}, true)
	require.NoError(t, err)

	assert.Equal(t, first, rec.CreatedAt)
	assert.Equal(t, "a@b.com", rec.Email)
	assert.Equal(t, "C1", rec.Cluster)
}
