package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateSplitsTwentyFiveIntoThreePages(t *testing.T) {
	items := seq(25)

	sizes := []int{}
	for page := 1; page <= 3; page++ {
		p := Paginate(items, page, DefaultPageSize)
		assert.Equal(t, 3, p.Meta.TotalPages)
		assert.Equal(t, int64(25), p.Meta.TotalItems)
		sizes = append(sizes, len(p.Data))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, Paginate(items, 3, 10).Data)
}

func TestPaginateClampsInput(t *testing.T) {
	p := Paginate(seq(5), 0, 0)
	assert.Equal(t, 1, p.Meta.CurrentPage)
	assert.Equal(t, DefaultPageSize, p.Meta.Limit)
	assert.Len(t, p.Data, 5)
}

func TestPaginateBeyondLastPage(t *testing.T) {
	p := Paginate(seq(12), 4, 10)
	assert.Empty(t, p.Data)
	assert.Equal(t, 2, p.Meta.TotalPages)
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]string{}, 1, 10)
	assert.Empty(t, p.Data)
	assert.Equal(t, 0, p.Meta.TotalPages)
}
