package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/lit"
)

// Local-variable promotion: at function-scope close, provided the scope has
// no nested functions and none of eval/arguments/with/try/delete was seen,
// declared variables and formal parameters are moved from the lexical
// environment onto registers.

// startMoveOfVarsToRegs opens the local-variable register tier.
func (d *dumper) startMoveOfVarsToRegs() {
	d.regs.startMoveOfVarsToRegs()
}

// startMoveOfArgsToRegs opens the argument register tier, reporting whether
// argsNum contiguous registers are still available.
func (d *dumper) startMoveOfArgsToRegs(argsNum int) bool {
	return d.regs.startMoveOfArgsToRegs(argsNum)
}

// allocRegForUnusedArg burns an argument register for a formal parameter
// shadowed by a later duplicate of the same name.
func (d *dumper) allocRegForUnusedArg() {
	d.regs.allocRegForUnusedArg()
}

// tryReplaceIdentifierNameWithReg allocates a register for the variable
// named id and replaces every reference to it in the scope's instructions.
// It reports false when no register is left.
//
// Two argument positions never refer to the variable by value and are
// skipped: the right-hand side of an assignment whose type tag is not
// `variable`, and the property-name slot of the varg_prop_* metas.
func (d *dumper) tryReplaceIdentifierNameWithReg(s *Scope, id lit.ID, isArg bool) bool {
	var reg uint8
	if isArg {
		reg = d.regs.allocArgReg()
	} else {
		var ok bool
		if reg, ok = d.regs.allocLocalVarReg(); !ok {
			return false
		}
	}

	for pos := 0; pos < s.instrsCount(); pos++ {
		om := s.opMetaAt(pos)
		changed := false

		for arg := 0; arg < 3; arg++ {
			if om.op.Op == bytecode.OpAssignment && arg == 1 &&
				bytecode.ArgType(om.op.Args[1]) != bytecode.ArgTypeVariable {
				break
			}
			if om.op.Op == bytecode.OpMeta && arg == 1 {
				switch bytecode.MetaType(om.op.Args[0]) {
				case bytecode.MetaVargPropData, bytecode.MetaVargPropGetter, bytecode.MetaVargPropSetter:
					continue
				}
			}
			if om.litID[arg] == id {
				om.litID[arg] = lit.None
				om.op.Args[arg] = reg
				changed = true
			}
		}
		if changed {
			s.setOpMeta(pos, om)
		}
	}
	return true
}
