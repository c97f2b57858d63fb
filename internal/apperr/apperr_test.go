package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	e := New(CodeNotFound, "Item not found")
	assert.Equal(t, "NOT_FOUND: Item not found", e.Error())

	e = Wrap(CodeFetch, "Failed to fetch", errors.New("connection refused"))
	assert.Equal(t, "FETCH_ERROR: Failed to fetch (connection refused)", e.Error())
}

func TestWrap_NilCause(t *testing.T) {
	e := Wrap(CodeCreate, "Failed to create", nil)
	assert.Nil(t, e.Details)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, 404},
		{CodeDuplicateSKU, 409},
		{CodeDuplicateName, 409},
		{CodeCreate, 400},
		{CodeUpdate, 400},
		{CodeDelete, 400},
		{CodeFetch, 400},
		{CodeBatchCreate, 400},
		{CodeBatchUpdate, 400},
		{CodeBatchUpdatePartial, 400},
		{CodeSearch, 500},
		{CodeStats, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(New(tt.code, "x")))
		})
	}

	assert.Equal(t, 200, HTTPStatus(nil))
}
