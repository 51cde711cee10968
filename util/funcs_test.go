package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatAndMap(t *testing.T) {
	lengths := MapIter(slices.Values([]string{"a", "bb", "ccc"}), func(s string) int { return len(s) })
	all := ConcatIter(lengths, slices.Values([]int{1, 4}))
	assert.Equal(t, []int{1, 2, 3, 1, 4}, slices.Collect(all))

	s := SetFromSeq(all, 4)
	assert.Equal(t, 4, s.Size())
	assert.True(t, s.Contains(4))
}

func TestConcatStopsEarly(t *testing.T) {
	var seen []int
	for v := range ConcatIter(slices.Values([]int{1, 2}), slices.Values([]int{3})) {
		seen = append(seen, v)
		if v == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, seen)
}

func TestStack(t *testing.T) {
	s := &Stack[int]{}
	_, ok := s.Pop()
	assert.False(t, ok)

	s.Push(1, 2)
	s.Push(3)
	assert.Equal(t, 3, s.Len())
	for _, expected := range []int{3, 2, 1} {
		v, ok := s.Pop()
		assert.True(t, ok)
		assert.Equal(t, expected, v)
	}
	assert.Zero(t, s.Len())
}

func TestPair(t *testing.T) {
	p := NewPair("a", 1)
	assert.Equal(t, Pair[string, int]{Fst: "a", Snd: 1}, p)
}
