package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/errors"
)

// regAllocEmpty marks an unopened register tier.
const regAllocEmpty = bytecode.IdxEmpty

// regAlloc is the lexical register allocator. The flat register space of a
// scope is partitioned into three contiguous tiers — temporaries, promoted
// local variables, promoted arguments — tracked by monotone high-water marks.
// A tier must be fully populated before the next one opens; once the
// local-var or arg tier has opened, no further temporary may be allocated in
// the scope.
type regAlloc struct {
	next           uint8 // next temporary to hand out
	maxForTemps    uint8 // high-water mark of the temp tier
	maxForLocalVar uint8 // high-water mark of the local-var tier, or regAllocEmpty
	maxForArgs     uint8 // high-water mark of the arg tier, or regAllocEmpty

	saved []uint8 // auxiliary stack for scope and varg sequences
}

func (ra *regAlloc) init() {
	ra.next = bytecode.RegGeneralFirst
	ra.maxForTemps = bytecode.RegGeneralFirst
	ra.maxForLocalVar = regAllocEmpty
	ra.maxForArgs = regAllocEmpty
	ra.saved = ra.saved[:0]
}

// allocTemp hands out the next temporary register.
func (ra *regAlloc) allocTemp() uint8 {
	if ra.maxForLocalVar != regAllocEmpty || ra.maxForArgs != regAllocEmpty {
		panic("regalloc: temporary requested after variable tier opened")
	}
	reg := ra.next
	if reg > bytecode.RegGeneralLast {
		panic(&errors.SyntaxError{Msg: "Not enough register variables"})
	}
	ra.next++
	if ra.maxForTemps < reg {
		ra.maxForTemps = reg
	}
	return reg
}

// isTemp reports whether reg lies inside the temp tier allocated so far.
func (ra *regAlloc) isTemp(reg uint8) bool {
	return reg >= bytecode.RegGeneralFirst && reg <= ra.maxForTemps
}

// newStatement resets the temporary counter: temporaries do not survive
// across statements.
func (ra *regAlloc) newStatement() {
	ra.next = bytecode.RegGeneralFirst
}

// newScope saves the allocator state on entry to a nested scope.
func (ra *regAlloc) newScope() {
	ra.saved = append(ra.saved, ra.next, ra.maxForTemps)
	ra.next = bytecode.RegGeneralFirst
	ra.maxForTemps = ra.next
}

// finishScope restores the allocator state saved by newScope.
func (ra *regAlloc) finishScope() {
	n := len(ra.saved)
	ra.maxForTemps = ra.saved[n-1]
	ra.next = ra.saved[n-2]
	ra.saved = ra.saved[:n-2]
}

// startVargCodeSequence saves the temp counter so registers used to evaluate
// one argument are reused for the next.
func (ra *regAlloc) startVargCodeSequence() {
	ra.saved = append(ra.saved, ra.next)
}

// finishVargCodeSequence restores the temp counter saved by
// startVargCodeSequence.
func (ra *regAlloc) finishVargCodeSequence() {
	n := len(ra.saved)
	ra.next = ra.saved[n-1]
	ra.saved = ra.saved[:n-1]
}

// startMoveOfVarsToRegs opens the local-variable tier directly above the
// temporaries.
func (ra *regAlloc) startMoveOfVarsToRegs() {
	ra.maxForLocalVar = ra.maxForTemps
}

// startMoveOfArgsToRegs opens the argument tier above the local-variable
// tier, reporting whether argsNum registers still fit.
func (ra *regAlloc) startMoveOfArgsToRegs(argsNum int) bool {
	base := ra.maxForTemps
	if ra.maxForLocalVar != regAllocEmpty {
		base = ra.maxForLocalVar
	}
	if argsNum+int(base) >= int(bytecode.RegGeneralLast) {
		return false
	}
	ra.maxForArgs = base
	return true
}

// allocLocalVarReg hands out the next register of the local-variable tier,
// or reports exhaustion.
func (ra *regAlloc) allocLocalVarReg() (uint8, bool) {
	if ra.maxForLocalVar >= bytecode.RegGeneralLast {
		return 0, false
	}
	ra.maxForLocalVar++
	return ra.maxForLocalVar, true
}

// allocArgReg hands out the next register of the argument tier.
func (ra *regAlloc) allocArgReg() uint8 {
	ra.maxForArgs++
	return ra.maxForArgs
}

// allocRegForUnusedArg consumes an argument register for a formal parameter
// shadowed by a later duplicate.
func (ra *regAlloc) allocRegForUnusedArg() {
	ra.maxForArgs++
}

// regVarDeclCounts returns the three region sizes recorded in the scope's
// reg_var_decl instruction, and closes the variable tiers.
func (ra *regAlloc) regVarDeclCounts() (temps, locals, args uint8) {
	temps = ra.maxForTemps - bytecode.RegGeneralFirst + 1

	if ra.maxForLocalVar != regAllocEmpty {
		locals = ra.maxForLocalVar - ra.maxForTemps
	}

	if ra.maxForArgs != regAllocEmpty {
		if ra.maxForLocalVar != regAllocEmpty {
			args = ra.maxForArgs - ra.maxForLocalVar
		} else {
			args = ra.maxForArgs - ra.maxForTemps
		}
	}

	ra.maxForLocalVar = regAllocEmpty
	ra.maxForArgs = regAllocEmpty
	return temps, locals, args
}
