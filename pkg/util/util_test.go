package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseG(t *testing.T) {
	arr := []int64{1, 2, 3, 4}
	reversed := ReverseG(arr)

	assert.Equal(t, []int64{4, 3, 2, 1}, reversed)
	assert.Equal(t, []int64{1, 2, 3, 4}, arr)
	assert.Empty(t, ReverseG([]int64{}))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 2224.39, RoundFloat(2224.3898, 2))
	assert.Equal(t, 12.0, RoundFloat(11.96, 0))
}
