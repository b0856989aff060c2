package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLowStock(t *testing.T) {
	assert.True(t, IsLowStock(2, 5))
	assert.True(t, IsLowStock(5, 5))
	assert.False(t, IsLowStock(6, 5))

	// Default threshold flags only a complete stock-out.
	assert.True(t, IsLowStock(0, DefaultThreshold))
	assert.False(t, IsLowStock(1, DefaultThreshold))
}
