package compiler

import (
	"jerboa/pkg/errors"
	"jerboa/pkg/lit"
)

// propKind classifies object-literal property assignments for duplicate-name
// checking.
type propKind uint8

const (
	propData propKind = iota
	propGet
	propSet
)

// propEntry is one recorded property name of an object literal under check.
type propEntry struct {
	name lit.ID
	kind propKind
}

// earlyErrorChecker accumulates the state needed for early errors that
// cannot be decided token-by-token: formal-parameter lists and object-literal
// property names. Both are kept as stacks because the constructs nest.
type earlyErrorChecker struct {
	lits *lit.Table

	vargGroups []int
	vargs      []lit.ID

	propGroups []int
	props      []propEntry
}

// raiseSyntax aborts compilation with a syntax error.
func raiseSyntax(pos errors.Position, format string, args ...interface{}) {
	panic(errors.NewSyntax(pos, format, args...))
}

// raiseReference aborts compilation with a reference error.
func raiseReference(pos errors.Position, format string, args ...interface{}) {
	panic(errors.NewReference(pos, format, args...))
}

// checkForEvalAndArguments raises a syntax error when strict-mode code uses
// `eval` or `arguments` as an assignment target, variable, parameter or
// catch binding.
func (ee *earlyErrorChecker) checkForEvalAndArguments(op operand, isStrict bool, pos errors.Position) {
	if !isStrict || !op.isLiteral() {
		return
	}
	if ee.lits.IsString(op.lit, "eval") || ee.lits.IsString(op.lit, "arguments") {
		raiseSyntax(pos, "'%s' cannot be used in this context in strict mode", ee.lits.StringOf(op.lit))
	}
}

// checkDelete raises a syntax error for `delete identifier` in strict mode.
func (ee *earlyErrorChecker) checkDelete(isStrict bool, pos errors.Position) {
	if isStrict {
		raiseSyntax(pos, "Invalid delete operand in strict mode")
	}
}

// startCheckingOfVargs opens a formal-parameter group.
func (ee *earlyErrorChecker) startCheckingOfVargs() {
	ee.vargGroups = append(ee.vargGroups, len(ee.vargs))
}

// addVarg records one formal-parameter name.
func (ee *earlyErrorChecker) addVarg(op operand) {
	ee.vargs = append(ee.vargs, op.getLiteral())
}

// checkVargs validates the innermost formal-parameter group and closes it.
// In strict mode, duplicate parameter names and eval/arguments names are
// early errors.
func (ee *earlyErrorChecker) checkVargs(isStrict bool, pos errors.Position) {
	base := ee.vargGroups[len(ee.vargGroups)-1]
	ee.vargGroups = ee.vargGroups[:len(ee.vargGroups)-1]
	group := ee.vargs[base:]

	if isStrict {
		for i, id := range group {
			ee.checkForEvalAndArguments(literalOperand(id), true, pos)
			for j := i + 1; j < len(group); j++ {
				if group[j] == id {
					raiseSyntax(pos, "Duplicate parameter name not allowed in strict mode")
				}
			}
		}
	}
	ee.vargs = ee.vargs[:base]
}

// startCheckingOfPropNames opens an object-literal property group.
func (ee *earlyErrorChecker) startCheckingOfPropNames() {
	ee.propGroups = append(ee.propGroups, len(ee.props))
}

// addPropName records one property assignment of the innermost group.
func (ee *earlyErrorChecker) addPropName(name operand, kind propKind) {
	ee.props = append(ee.props, propEntry{name: name.getLiteral(), kind: kind})
}

// checkPropNames validates the innermost object literal and closes it
// (ECMA-262 5.1, 11.1.5): duplicate data properties are an error in strict
// mode only; a data property clashing with an accessor, or two accessors of
// the same kind, are always errors.
func (ee *earlyErrorChecker) checkPropNames(isStrict bool, pos errors.Position) {
	base := ee.propGroups[len(ee.propGroups)-1]
	ee.propGroups = ee.propGroups[:len(ee.propGroups)-1]
	group := ee.props[base:]

	for i, p := range group {
		name := ee.lits.StringOf(p.name)
		for _, q := range group[:i] {
			if q.name != p.name && ee.lits.StringOf(q.name) != name {
				continue
			}
			switch {
			case p.kind == propData && q.kind == propData:
				if isStrict {
					raiseSyntax(pos, "Duplicate data property in object literal not allowed in strict mode")
				}
			case p.kind == propData || q.kind == propData:
				raiseSyntax(pos, "Property cannot have both data and accessor definitions")
			case p.kind == q.kind:
				raiseSyntax(pos, "Duplicate accessor property in object literal")
			}
		}
	}
	ee.props = ee.props[:base]
}

// reset drops all pending state (error path cleanup).
func (ee *earlyErrorChecker) reset() {
	ee.vargGroups = nil
	ee.vargs = nil
	ee.propGroups = nil
	ee.props = nil
}
