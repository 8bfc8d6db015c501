package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jerboa/pkg/lit"
)

func TestFindMatchesKindAndName(t *testing.T) {
	var lm labelManager
	lits := lit.NewTable()
	a := lits.FindOrCreate("a")
	b := lits.FindOrCreate("b")

	lm.push(1<<labelNamed, a)
	lm.push(1<<labelUnnamedBreaks|1<<labelUnnamedContinues, lit.None)

	found, simple := lm.find(labelNamed, a)
	require.NotNil(t, found)
	assert.True(t, simple)

	found, _ = lm.find(labelNamed, b)
	assert.Nil(t, found)

	found, _ = lm.find(labelUnnamedBreaks, lit.None)
	require.NotNil(t, found)
	found, _ = lm.find(labelUnnamedContinues, lit.None)
	require.NotNil(t, found)
}

func TestFindInnermostWins(t *testing.T) {
	var lm labelManager

	outer := lm.push(1<<labelUnnamedBreaks, lit.None)
	inner := lm.push(1<<labelUnnamedBreaks, lit.None)

	found, _ := lm.find(labelUnnamedBreaks, lit.None)
	assert.Same(t, inner, found)
	assert.NotSame(t, outer, found)
}

func TestNestedJumpableBorder(t *testing.T) {
	var lm labelManager

	lm.push(1<<labelUnnamedBreaks, lit.None)

	// A border raised inside the loop (a try block, say) makes jumps to the
	// loop label non-simple.
	lm.raiseNestedJumpableBorder()
	_, simple := lm.find(labelUnnamedBreaks, lit.None)
	assert.False(t, simple)

	lm.removeNestedJumpableBorder()
	_, simple = lm.find(labelUnnamedBreaks, lit.None)
	assert.True(t, simple)
}

func TestBorderBeforeLabelDoesNotSeparate(t *testing.T) {
	var lm labelManager

	// A loop nested inside a try: the border predates the label, so jumps
	// inside the loop to its own label are simple.
	lm.raiseNestedJumpableBorder()
	lm.push(1<<labelUnnamedBreaks, lit.None)

	_, simple := lm.find(labelUnnamedBreaks, lit.None)
	assert.True(t, simple)
}

func TestMaskSetHidesLabels(t *testing.T) {
	var lm labelManager

	lm.push(1<<labelUnnamedBreaks, lit.None)
	lm.raiseNestedJumpableBorder()

	mask := lm.maskSet()
	found, _ := lm.find(labelUnnamedBreaks, lit.None)
	assert.Nil(t, found, "a nested function sees no enclosing labels")

	lm.restoreSet(mask)
	found, simple := lm.find(labelUnnamedBreaks, lit.None)
	require.NotNil(t, found)
	assert.False(t, simple, "borders are restored together with the labels")
}

func TestPendingJumpsSplitByKind(t *testing.T) {
	l := &label{kinds: 1<<labelUnnamedBreaks | 1<<labelUnnamedContinues}

	l.addJump(3, true)
	l.addJump(5, false)
	l.addJump(9, true)

	assert.Equal(t, []int{3, 9}, l.takeBreaks())
	assert.Equal(t, []int{5}, l.takeContinues())
	assert.Empty(t, l.takeBreaks(), "taking clears the pending list")
}
