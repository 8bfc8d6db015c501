package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jerboa/pkg/bytecode"
	"jerboa/pkg/errors"
)

func TestAllocTempSequence(t *testing.T) {
	var ra regAlloc
	ra.init()

	assert.Equal(t, uint8(0), ra.allocTemp())
	assert.Equal(t, uint8(1), ra.allocTemp())
	assert.Equal(t, uint8(2), ra.allocTemp())
	assert.Equal(t, uint8(2), ra.maxForTemps)
}

func TestNewStatementResetsTempsButKeepsHighWater(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	ra.allocTemp()
	ra.newStatement()

	assert.Equal(t, uint8(0), ra.allocTemp(), "temps do not survive across statements")
	assert.Equal(t, uint8(1), ra.maxForTemps, "the high-water mark is monotone")
}

func TestScopeSaveRestore(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	ra.allocTemp()

	ra.newScope()
	assert.Equal(t, uint8(0), ra.allocTemp(), "nested scope restarts numbering")
	ra.finishScope()

	assert.Equal(t, uint8(2), ra.allocTemp(), "outer scope numbering resumes")
}

func TestVargCodeSequenceReusesRegisters(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.startVargCodeSequence()
	assert.Equal(t, uint8(0), ra.allocTemp())
	assert.Equal(t, uint8(1), ra.allocTemp())
	ra.finishVargCodeSequence()

	ra.startVargCodeSequence()
	assert.Equal(t, uint8(0), ra.allocTemp(), "per-argument registers are reused")
	ra.finishVargCodeSequence()
}

func TestTierTransitions(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	ra.allocTemp()

	ra.startMoveOfVarsToRegs()
	r, ok := ra.allocLocalVarReg()
	require.True(t, ok)
	assert.Equal(t, uint8(2), r, "local vars sit directly above temps")

	require.True(t, ra.startMoveOfArgsToRegs(2))
	assert.Equal(t, uint8(3), ra.allocArgReg())
	assert.Equal(t, uint8(4), ra.allocArgReg())

	temps, locals, args := ra.regVarDeclCounts()
	assert.Equal(t, uint8(2), temps)
	assert.Equal(t, uint8(1), locals)
	assert.Equal(t, uint8(2), args)
}

func TestTempAfterTierOpenPanics(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	ra.startMoveOfVarsToRegs()

	assert.Panics(t, func() { ra.allocTemp() },
		"no temporary may be allocated once the variable tier opened")
}

func TestArgsTierWithoutLocals(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	require.True(t, ra.startMoveOfArgsToRegs(3))
	assert.Equal(t, uint8(1), ra.allocArgReg())

	ra.allocRegForUnusedArg()
	assert.Equal(t, uint8(3), ra.allocArgReg())

	temps, locals, args := ra.regVarDeclCounts()
	assert.Equal(t, uint8(1), temps)
	assert.Equal(t, uint8(0), locals)
	assert.Equal(t, uint8(3), args)
}

func TestArgsTierOverflowRefused(t *testing.T) {
	var ra regAlloc
	ra.init()

	ra.allocTemp()
	assert.False(t, ra.startMoveOfArgsToRegs(int(bytecode.RegGeneralLast)),
		"argument block must fit under the register ceiling")
}

func TestRegisterExhaustionIsSyntaxError(t *testing.T) {
	var ra regAlloc
	ra.init()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*errors.SyntaxError)
		assert.True(t, ok, "exhaustion surfaces as a syntax error, got %T", r)
	}()

	for i := 0; i <= int(bytecode.RegGeneralLast)+1; i++ {
		ra.allocTemp()
	}
}
