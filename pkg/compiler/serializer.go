package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/lit"
)

// serializer linearizes a parsed scope tree into the final bytecode image.
//
// Each scope contributes four parts, in order: the header (everything up to
// and including reg_var_decl, plus the var_decl/meta run that may follow),
// the var_decl instructions generated for its non-parameter variables, the
// subtrees of its child scopes, and finally its computational code. This
// ordering performs function hoisting: nested function bodies land between a
// scope's declarations and its executable code.
type serializer struct {
	instrs []bytecode.Instr
	litMap bytecode.LitMap
}

// mergeScopesIntoBytecode produces the final header for the scope tree
// rooted at root.
func mergeScopesIntoBytecode(root *Scope) *bytecode.Header {
	s := &serializer{
		instrs: make([]bytecode.Instr, 0, root.countInstructions()),
		litMap: make(bytecode.LitMap),
	}
	s.mergeSubscopes(root)

	var flags bytecode.ScopeFlags
	if root.strictMode {
		flags |= bytecode.ScopeFlagStrict
	}
	if !root.refArguments {
		flags |= bytecode.ScopeFlagNotRefArguments
	}
	if !root.refEval {
		flags |= bytecode.ScopeFlagNotRefEval
	}

	return &bytecode.Header{Instrs: s.instrs, LitMap: s.litMap, ScopeFlags: flags}
}

func (s *serializer) mergeSubscopes(scope *Scope) {
	pos := 0
	header := true
	for ; pos < len(scope.instrs); pos++ {
		om := scope.instrs[pos]
		if om.op.Op != bytecode.OpVarDecl && om.op.Op != bytecode.OpMeta && !header {
			break
		}
		if om.op.Op == bytecode.OpRegVarDecl {
			header = false
		}
		s.emit(om)
	}

	for _, v := range scope.variables {
		// parameters were already emitted as vargs in the header
		if !v.isParam {
			s.emit(makeOpMeta(bytecode.OpVarDecl, literalOperand(v.lit)))
		}
	}

	for _, child := range scope.children {
		s.mergeSubscopes(child)
	}

	for ; pos < len(scope.instrs); pos++ {
		s.emit(scope.instrs[pos])
	}
}

func (s *serializer) emit(om opMeta) {
	idx := len(s.instrs)
	for arg := uint8(0); arg < 3; arg++ {
		raw := om.op.Args[arg]
		if raw == bytecode.IdxRewriteGeneral {
			panic("serializer: unresolved rewrite slot in instruction buffer")
		}
		if raw == bytecode.IdxRewriteLiteral {
			if om.litID[arg] == lit.None {
				panic("serializer: literal slot without an associated literal")
			}
			s.litMap.Set(idx, arg, om.litID[arg])
		}
	}
	s.instrs = append(s.instrs, om.op)
}
