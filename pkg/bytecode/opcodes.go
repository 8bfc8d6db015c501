// Package bytecode defines the three-address instruction model emitted by the
// compiler: the opcode schema, the meta-instruction sub-types, the register
// index space with its rewrite sentinels, and the final bytecode header.
package bytecode

// Opcode identifies a byte-code operation.
type Opcode uint8

const (
	OpAssignment Opcode = iota // dst, arg-type, value

	// Arithmetic
	OpAddition     // dst, lhs, rhs
	OpSubstraction // dst, lhs, rhs
	OpMultiplication
	OpDivision
	OpRemainder

	// Unary
	OpUnaryPlus  // dst, src
	OpUnaryMinus // dst, src
	OpLogicalNot // dst, src
	OpTypeof     // dst, src
	OpDeleteVar  // dst, name
	OpDeleteProp // dst, obj, prop

	// Increment / decrement
	OpPreIncr  // dst, src
	OpPreDecr  // dst, src
	OpPostIncr // dst, src
	OpPostDecr // dst, src

	// Bitwise
	OpBitNot // dst, src
	OpBitAnd // dst, lhs, rhs
	OpBitOr
	OpBitXor
	OpShiftLeft
	OpShiftRight
	OpShiftUright

	// Comparison and equality
	OpLessThan
	OpGreaterThan
	OpLessOrEqualThan
	OpGreaterOrEqualThan
	OpInstanceof
	OpIn
	OpEqualValue
	OpNotEqualValue
	OpEqualValueType
	OpNotEqualValueType

	// Property access
	OpPropGetter // dst, obj, prop
	OpPropSetter // obj, prop, value

	// Control
	OpJmpDown          // off-hi, off-lo
	OpJmpUp            // off-hi, off-lo
	OpJmpBreakContinue // off-hi, off-lo
	OpIsTrueJmpDown    // cond, off-hi, off-lo
	OpIsTrueJmpUp      // cond, off-hi, off-lo
	OpIsFalseJmpDown   // cond, off-hi, off-lo
	OpIsFalseJmpUp     // cond, off-hi, off-lo

	// Varg headers
	OpCallN     // dst, callee, arg-count
	OpConstructN
	OpFuncExprN // dst, name, arg-count
	OpFuncDeclN // name, arg-count
	OpArrayDecl // dst, count-hi, count-lo
	OpObjDecl   // dst, count-hi, count-lo

	// Exception control
	OpTryBlock   // off-hi, off-lo
	OpThrowValue // value
	OpRet
	OpRetval // value

	// Scope markers
	OpRegVarDecl // temps, locals, args
	OpVarDecl    // name
	OpWith       // expr, off-hi, off-lo
	OpForIn      // expr, off-hi, off-lo

	OpMeta // meta-type, data1, data2
)

var opcodeNames = [...]string{
	OpAssignment:         "assignment",
	OpAddition:           "addition",
	OpSubstraction:       "substraction",
	OpMultiplication:     "multiplication",
	OpDivision:           "division",
	OpRemainder:          "remainder",
	OpUnaryPlus:          "unary_plus",
	OpUnaryMinus:         "unary_minus",
	OpLogicalNot:         "logical_not",
	OpTypeof:             "typeof",
	OpDeleteVar:          "delete_var",
	OpDeleteProp:         "delete_prop",
	OpPreIncr:            "pre_incr",
	OpPreDecr:            "pre_decr",
	OpPostIncr:           "post_incr",
	OpPostDecr:           "post_decr",
	OpBitNot:             "b_not",
	OpBitAnd:             "b_and",
	OpBitOr:              "b_or",
	OpBitXor:             "b_xor",
	OpShiftLeft:          "b_shift_left",
	OpShiftRight:         "b_shift_right",
	OpShiftUright:        "b_shift_uright",
	OpLessThan:           "less_than",
	OpGreaterThan:        "greater_than",
	OpLessOrEqualThan:    "less_or_equal_than",
	OpGreaterOrEqualThan: "greater_or_equal_than",
	OpInstanceof:         "instanceof",
	OpIn:                 "in",
	OpEqualValue:         "equal_value",
	OpNotEqualValue:      "not_equal_value",
	OpEqualValueType:     "equal_value_type",
	OpNotEqualValueType:  "not_equal_value_type",
	OpPropGetter:         "prop_getter",
	OpPropSetter:         "prop_setter",
	OpJmpDown:            "jmp_down",
	OpJmpUp:              "jmp_up",
	OpJmpBreakContinue:   "jmp_break_continue",
	OpIsTrueJmpDown:      "is_true_jmp_down",
	OpIsTrueJmpUp:        "is_true_jmp_up",
	OpIsFalseJmpDown:     "is_false_jmp_down",
	OpIsFalseJmpUp:       "is_false_jmp_up",
	OpCallN:              "call_n",
	OpConstructN:         "construct_n",
	OpFuncExprN:          "func_expr_n",
	OpFuncDeclN:          "func_decl_n",
	OpArrayDecl:          "array_decl",
	OpObjDecl:            "obj_decl",
	OpTryBlock:           "try_block",
	OpThrowValue:         "throw_value",
	OpRet:                "ret",
	OpRetval:             "retval",
	OpRegVarDecl:         "reg_var_decl",
	OpVarDecl:            "var_decl",
	OpWith:               "with",
	OpForIn:              "for_in",
	OpMeta:               "meta",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "unknown"
}

// MetaType is the sub-type carried in the first argument of an OpMeta
// instruction.
type MetaType uint8

const (
	MetaVarg MetaType = iota
	MetaVargPropData
	MetaVargPropGetter
	MetaVargPropSetter
	MetaFunctionEnd
	MetaCatch
	MetaCatchExceptionIdentifier
	MetaFinally
	MetaEndTryCatchFinally
	MetaEndWith
	MetaEndForIn
	MetaScopeCodeFlags
	MetaCallSiteInfo
)

var metaNames = [...]string{
	MetaVarg:                     "varg",
	MetaVargPropData:             "varg_prop_data",
	MetaVargPropGetter:           "varg_prop_getter",
	MetaVargPropSetter:           "varg_prop_setter",
	MetaFunctionEnd:              "function_end",
	MetaCatch:                    "catch",
	MetaCatchExceptionIdentifier: "catch_exception_identifier",
	MetaFinally:                  "finally",
	MetaEndTryCatchFinally:       "end_try_catch_finally",
	MetaEndWith:                  "end_with",
	MetaEndForIn:                 "end_for_in",
	MetaScopeCodeFlags:           "scope_code_flags",
	MetaCallSiteInfo:             "call_site_info",
}

func (m MetaType) String() string {
	if int(m) < len(metaNames) {
		return metaNames[m]
	}
	return "unknown"
}

// ArgType is the inline type tag of an OpAssignment right-hand side.
type ArgType uint8

const (
	ArgTypeSimple ArgType = iota
	ArgTypeSmallint
	ArgTypeNumber
	ArgTypeString
	ArgTypeRegexp
	ArgTypeVariable
)

var argTypeNames = [...]string{
	ArgTypeSimple:   "simple",
	ArgTypeSmallint: "smallint",
	ArgTypeNumber:   "number",
	ArgTypeString:   "string",
	ArgTypeRegexp:   "regexp",
	ArgTypeVariable: "variable",
}

func (a ArgType) String() string {
	if int(a) < len(argTypeNames) {
		return argTypeNames[a]
	}
	return "unknown"
}

// SimpleValue is an immediate value of an ArgTypeSimple assignment.
type SimpleValue uint8

const (
	SimpleUndefined SimpleValue = iota
	SimpleNull
	SimpleFalse
	SimpleTrue
	SimpleArrayHole
)

// ScopeFlags is the bitset carried by the scope_code_flags meta instruction
// at the head of every scope.
type ScopeFlags uint8

const (
	ScopeFlagStrict ScopeFlags = 1 << iota
	ScopeFlagNotRefArguments
	ScopeFlagNotRefEval
	ScopeFlagArgumentsOnRegisters
	ScopeFlagNoLexEnv
)

// CallFlags is the bitset carried by the call_site_info meta instruction.
type CallFlags uint8

const (
	CallFlagHaveThisArg CallFlags = 1 << iota
	CallFlagDirectCallToEval
)
