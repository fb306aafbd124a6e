package service

import (
	"context"
	"testing"

	"fedlearn.dev/dashboard/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Digit classifier trained on MNIST", CleanText("<p>Digit classifier</p><b>trained</b> on  MNIST<script>x</script>"))
}

func TestMemoryIndexSearch(t *testing.T) {
	idx := NewMemoryModelIndex()
	ctx := context.Background()

	require.NoError(t, idx.IndexModels(ctx, []entity.Model{
		{ID: 1, Name: "mnist", Description: "digits", Version: 1, Status: entity.ModelStatusActive},
		{ID: 2, Name: "mnist", Description: "digits v2", Version: 2, Status: entity.ModelStatusExperimental},
		{ID: 3, Name: "cifar", Description: "<i>objects</i>", Version: 1, Status: entity.ModelStatusActive},
	}))

	hits, err := idx.Search(ctx, "MNIST", "", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 2, hits[0].Version, "newest version first")

	hits, _ = idx.Search(ctx, "objects", entity.ModelStatusActive, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "objects", hits[0].Description)

	hits, _ = idx.Search(ctx, "", entity.ModelStatusExperimental, 10)
	assert.Len(t, hits, 1)

	require.NoError(t, idx.RemoveModel(ctx, 2))
	hits, _ = idx.Search(ctx, "mnist", "", 1)
	assert.Len(t, hits, 1)
}
