package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	var err *ValidationError
	assert.True(t, err.Empty())

	err = NewValidationError("price", "price cannot be negative")
	err.Add("name", "name is required")
	assert.False(t, err.Empty())
	assert.Equal(t, "validation failed: name: name is required; price: price cannot be negative", err.Error())

	var target *ValidationError
	assert.True(t, errors.As(error(err), &target))
}
