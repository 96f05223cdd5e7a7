package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 2, 10, 12)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 2, p.LastPage)
	assert.Equal(t, int64(12), p.Total)

	empty := NewPaginated[int](nil, 1, 10, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.LastPage)

	exact := NewPaginated([]int{}, 1, 10, 20)
	assert.Equal(t, 2, exact.LastPage)
}

func TestOptionalString_Unmarshal(t *testing.T) {
	var absent UpdateProfileRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ann"}`), &absent))
	assert.False(t, absent.Bio.Set)
	assert.Nil(t, absent.Bio.ValidationValue())

	var null UpdateProfileRequest
	require.NoError(t, json.Unmarshal([]byte(`{"bio":null}`), &null))
	assert.True(t, null.Bio.Set)
	assert.Nil(t, null.Bio.Value)

	var value UpdateProfileRequest
	require.NoError(t, json.Unmarshal([]byte(`{"bio":"hello"}`), &value))
	assert.True(t, value.Bio.Set)
	require.NotNil(t, value.Bio.Value)
	assert.Equal(t, "hello", *value.Bio.Value)
	assert.Equal(t, "hello", value.Bio.ValidationValue())

	var bad UpdateProfileRequest
	assert.Error(t, json.Unmarshal([]byte(`{"bio":12}`), &bad))
}
