package collection

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type scored struct {
	name  string
	score int
}

func TestSortByIsStable(t *testing.T) {
	in := []scored{{"a", 1}, {"b", 3}, {"c", 1}, {"d", 3}}
	got := SortBy(in, func(x, y scored) bool { return x.score > y.score })
	assert.Equal(t, []string{"b", "d", "a", "c"}, Map(got, func(s scored) string { return s.name }))
}

func TestSliceHelpers(t *testing.T) {
	nums := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, Map(nums, strconv.Itoa))
	assert.Equal(t, []int{2, 4}, Filter(nums, func(n int) bool { return n%2 == 0 }))
	assert.Nil(t, Filter(nums, func(n int) bool { return n > 9 }))

	v, ok := First(nums, func(n int) bool { return n > 3 })
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	_, ok = First(nums, func(n int) bool { return n > 9 })
	assert.False(t, ok)

	assert.Equal(t, []int{1, 2}, Take(nums, 2))
	assert.Equal(t, nums, Take(nums, 10))
	assert.Equal(t, []int{4, 5}, Skip(nums, 3))
	assert.Nil(t, Skip(nums, 5))
}
