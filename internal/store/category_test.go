package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryStoreListSortedByName(t *testing.T) {
	s := NewCategoryStore(testDB(t), 0)

	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
		assert.Positive(t, c.ID)
	}
	assert.Equal(t, []string{"book", "movie", "other", "youtube"}, names)
}

func TestCategoryStoreExists(t *testing.T) {
	s := NewCategoryStore(testDB(t), 0)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "movie")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "podcast")
	require.NoError(t, err)
	assert.False(t, ok)
}
