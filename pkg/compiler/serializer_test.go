package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jerboa/pkg/bytecode"
)

// Function hoisting: nested function bodies are merged between a scope's
// declarations and its executable code.
func TestMergeHoistsFunctionBodies(t *testing.T) {
	h, lits := compileScript(t, "var a = 1; function f() { return 2; } a = 3;", false)

	ops := opcodes(h)

	// Layout: root header, root var_decls, function subtree, root code.
	require.Equal(t, bytecode.OpMeta, ops[0])
	require.Equal(t, bytecode.OpRegVarDecl, ops[1])
	require.Equal(t, bytecode.OpVarDecl, ops[2])
	assert.Equal(t, "a", litArg(t, h, lits, 2, 0))
	require.Equal(t, bytecode.OpFuncDeclN, ops[3], "the function body is hoisted above root code")

	// Root computational code follows the whole function subtree.
	var rootCode int
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i] == bytecode.OpAssignment {
			rootCode = i
			break
		}
	}
	var fnEnd int
	for i, in := range h.Instrs {
		if in.Meta(bytecode.MetaFunctionEnd) {
			fnEnd = i
			break
		}
	}
	dist := int(bytecode.JoinOffset(h.Instrs[fnEnd].Args[1], h.Instrs[fnEnd].Args[2]))
	assert.Greater(t, rootCode, fnEnd+dist-1, "root code sits past the function subtree")
}

func TestFunctionEndDistancesSkipWholeSubtrees(t *testing.T) {
	src := "function outer() { function inner() { return 1; } return inner; }"
	h, _ := compileScript(t, src, false)

	var markers []int
	for i, in := range h.Instrs {
		if in.Meta(bytecode.MetaFunctionEnd) {
			markers = append(markers, i)
		}
	}
	require.Len(t, markers, 2)

	// The outer marker must span past the inner function's subtree.
	outer, inner := markers[0], markers[1]
	outerTarget := outer + int(bytecode.JoinOffset(h.Instrs[outer].Args[1], h.Instrs[outer].Args[2]))
	innerTarget := inner + int(bytecode.JoinOffset(h.Instrs[inner].Args[1], h.Instrs[inner].Args[2]))

	assert.Greater(t, outerTarget, innerTarget)
	assert.LessOrEqual(t, outerTarget, len(h.Instrs))

	// Each target lands on an instruction boundary inside the image.
	assert.Greater(t, innerTarget, inner)
}

func TestMergeEmitsVarDeclsPerScope(t *testing.T) {
	h, lits := compileScript(t, "var a; function f() { var b; } var c;", false)

	var names []string
	for i, in := range h.Instrs {
		if in.Op == bytecode.OpVarDecl {
			names = append(names, litArg(t, h, lits, i, 0))
		}
	}
	assert.Equal(t, []string{"a", "c", "b"}, names,
		"root declarations come first, then the nested scope's")
}

func TestFunctionExpressionSubtreeAttachedInParseOrder(t *testing.T) {
	h, _ := compileScript(t, "x = function () { return 1; }; y = 2;", false)

	ops := opcodes(h)
	assert.Contains(t, ops, bytecode.OpFuncExprN)

	// Exactly one function_end and no leftover sentinels.
	var fnEnds int
	for i, in := range h.Instrs {
		if in.Meta(bytecode.MetaFunctionEnd) {
			fnEnds++
		}
		for _, a := range in.Args {
			assert.NotEqual(t, bytecode.IdxRewriteGeneral, a, "instruction %d", i)
		}
	}
	assert.Equal(t, 1, fnEnds)
}

func TestHeaderScopeFlagsMatchRoot(t *testing.T) {
	h, _ := compileScript(t, `"use strict"; var x = 1;`, false)
	assert.NotZero(t, h.ScopeFlags&bytecode.ScopeFlagStrict)
	assert.NotZero(t, h.ScopeFlags&bytecode.ScopeFlagNotRefArguments)
	assert.NotZero(t, h.ScopeFlags&bytecode.ScopeFlagNotRefEval)

	h, _ = compileScript(t, "x = arguments;", false)
	assert.Zero(t, h.ScopeFlags&bytecode.ScopeFlagNotRefArguments)
}
