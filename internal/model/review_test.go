package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderRating(t *testing.T) {
	assert.Equal(t, 0.0, ProviderRating(nil))
	assert.Equal(t, 4.0, ProviderRating([]float64{4}))
	assert.Equal(t, 4.5, ProviderRating([]float64{5, 4}))
	assert.Equal(t, 13.0/3.0, ProviderRating([]float64{5, 4, 4}))
}
