package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, StatusFor(0))
	assert.Equal(t, StatusOutOfStock, StatusFor(-1))
	assert.Equal(t, StatusInStock, StatusFor(1))
}

func TestTotalRating(t *testing.T) {
	cases := []struct {
		stars []int
		want  int
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{4, 5}, 5},
		{[]int{3, 4, 4}, 4},
		{[]int{1, 2}, 2},
		{[]int{1, 1, 2}, 1},
	}
	for _, tc := range cases {
		var ratings []Rating
		for _, s := range tc.stars {
			ratings = append(ratings, Rating{Star: s})
		}
		assert.Equal(t, tc.want, TotalRating(ratings), "stars %v", tc.stars)
	}
}

func TestNormalize(t *testing.T) {
	p := Product{Quantity: 3, Status: StatusOutOfStock}
	p.Normalize()

	assert.Equal(t, StatusInStock, p.Status)
	assert.NotNil(t, p.Tags)
	assert.NotNil(t, p.Ratings)
	assert.NotNil(t, p.Color)
	assert.NotNil(t, p.Images)
}
