package permutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCyclesToMapping(t *testing.T) {
	t.Run("three cycle", func(t *testing.T) {
		assert.Equal(t, "[ 1 -> 2, 2 -> 3, 3 -> 1 ]", CyclesToMapping("(1 2 3)"))
	})

	t.Run("fixed point", func(t *testing.T) {
		assert.Equal(t, "[ 5 -> 5 ]", CyclesToMapping("(5)"))
	})

	t.Run("multiple cycles concatenate in order", func(t *testing.T) {
		assert.Equal(t, "[ 1 -> 2, 2 -> 1, 4 -> 5, 5 -> 4 ]", CyclesToMapping("(1 2)(4 5)"))
	})

	t.Run("unspaced digit run is per-character", func(t *testing.T) {
		assert.Equal(t, "[ 1 -> 2, 2 -> 3, 3 -> 1 ]", CyclesToMapping("(123)"))
	})

	t.Run("multi-digit elements need spaces", func(t *testing.T) {
		assert.Equal(t, "[ 10 -> 11, 11 -> 10 ]", CyclesToMapping("(10 11)"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "[]", CyclesToMapping(""))
	})

	t.Run("non-cycle text", func(t *testing.T) {
		assert.Equal(t, "[]", CyclesToMapping("no symmetry found"))
	})

	t.Run("empty cycle is dropped", func(t *testing.T) {
		assert.Equal(t, "[]", CyclesToMapping("()"))
		assert.Equal(t, "[ 1 -> 1 ]", CyclesToMapping("() (1)"))
	})
}

func TestLongestCycle(t *testing.T) {
	t.Run("picks longest individual cycle", func(t *testing.T) {
		got := LongestCycle([]string{"(1 2)", "(1 2 3 4)", "(5 6)"})
		assert.Equal(t, "(1 2 3 4)", got)
	})

	t.Run("first maximal wins on tie", func(t *testing.T) {
		got := LongestCycle([]string{"(1 2 3)", "(4 5 6)"})
		assert.Equal(t, "(1 2 3)", got)
	})

	t.Run("longest cycle within a candidate counts, not total size", func(t *testing.T) {
		// two 2-cycles lose against one 3-cycle
		got := LongestCycle([]string{"(1 2)(3 4)", "(5 6 7)"})
		assert.Equal(t, "(5 6 7)", got)
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Equal(t, "", LongestCycle(nil))
	})
}

func TestCycleShape(t *testing.T) {
	assert.Equal(t, "1", CycleShape(""))
	assert.Equal(t, "1", CycleShape("()"))
	assert.Equal(t, "$3$", CycleShape("(1 2 3)"))
	assert.Equal(t, "$2^{2}$", CycleShape("(1 2)(3 4)"))
	assert.Equal(t, "$2^{2}$ * $3$", CycleShape("(1 2)(3 4)(5 6 7)"))
}
