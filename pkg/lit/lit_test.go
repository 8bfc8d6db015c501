package lit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateDeduplicates(t *testing.T) {
	tbl := NewTable()

	a := tbl.FindOrCreate("foo")
	b := tbl.FindOrCreate("bar")
	c := tbl.FindOrCreate("foo")

	assert.NotEqual(t, None, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, 2, tbl.Len())
}

func TestNumbersDeduplicateByValue(t *testing.T) {
	tbl := NewTable()

	a := tbl.FindOrCreateNumber(3.25)
	b := tbl.FindOrCreateNumber(3.25)
	c := tbl.FindOrCreateNumber(4)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	l := tbl.Get(a)
	require.Equal(t, Number, l.Kind)
	assert.Equal(t, 3.25, l.Num)
}

func TestStringAndNumberAreDistinctEntries(t *testing.T) {
	tbl := NewTable()

	s := tbl.FindOrCreate("1")
	n := tbl.FindOrCreateNumber(1)

	assert.NotEqual(t, s, n)
	assert.Equal(t, "1", tbl.StringOf(s))
	assert.Equal(t, "1", tbl.StringOf(n))
}

func TestIsString(t *testing.T) {
	tbl := NewTable()

	id := tbl.FindOrCreate("eval")
	assert.True(t, tbl.IsString(id, "eval"))
	assert.False(t, tbl.IsString(id, "arguments"))
	assert.False(t, tbl.IsString(None, "eval"))

	n := tbl.FindOrCreateNumber(7.5)
	assert.False(t, tbl.IsString(n, "7.5"))
}

func TestNumberToString(t *testing.T) {
	assert.Equal(t, "0", NumberToString(0))
	assert.Equal(t, "42", NumberToString(42))
	assert.Equal(t, "1.5", NumberToString(1.5))
	assert.Equal(t, "-3", NumberToString(-3))
}
