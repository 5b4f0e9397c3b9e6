package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDimension(t *testing.T) {
	assert.NoError(t, ValidateDimension(make([]float32, 1536), 1536))

	err := ValidateDimension(make([]float32, 128), 1536)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}
