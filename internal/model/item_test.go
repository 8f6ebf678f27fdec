package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(CategoryElectronics))
	assert.True(t, ValidCategory(CategoryOther))
	assert.False(t, ValidCategory("starships"))
	assert.False(t, ValidCategory(""))
}

func TestStatusDisplayText(t *testing.T) {
	assert.Equal(t, "Awaiting approval", StatusPending.DisplayText())
	assert.Equal(t, "Both parties confirmed", StatusBothConfirmed.DisplayText())
	assert.Equal(t, "weird", ItemStatus("weird").DisplayText())
}

func TestEmbeddingRoundTrip(t *testing.T) {
	item := &Item{}
	assert.Nil(t, item.EmbeddingVector())

	require.NoError(t, item.SetEmbedding([]float32{0.5, -1, 2}))
	assert.Equal(t, []float32{0.5, -1, 2}, item.EmbeddingVector())

	item.Embedding = datatypes.JSON(`{"not":"a vector"}`)
	assert.Nil(t, item.EmbeddingVector())
}
