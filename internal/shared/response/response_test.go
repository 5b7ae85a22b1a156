package response_test

import (
	"testing"

	"go-leave/internal/shared/response"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, meta := response.Paginate(items, 2, 3)
	assert.Equal(t, []int{4, 5, 6}, page)
	assert.Equal(t, int64(7), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	last, _ := response.Paginate(items, 3, 3)
	assert.Equal(t, []int{7}, last)

	beyond, _ := response.Paginate(items, 9, 3)
	assert.Empty(t, beyond)
}
