package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/errors"
	"jerboa/pkg/lit"
)

// dumper is the byte-code emitter. It appends instructions to the current
// scope's buffer, rewrites previously appended instructions through recorded
// positions, and owns the register allocator together with the per-construct
// fixup stacks.
type dumper struct {
	scope *Scope
	lits  *lit.Table
	regs  regAlloc

	// Per-construct fixup stacks. Each entry is a position in the current
	// scope's instruction buffer.
	u8                []int // group bases for and/or chains and case clauses
	vargHeaders       []int
	functionEnds      []int
	logicalAndChecks  []int
	logicalOrChecks   []int
	conditionalChecks []int
	jumpsToEnd        []int
	nextIterations    []int
	caseClauses       []int
	tries             []int
	catches           []int
	finallies         []int

	propGetters []opMeta // prop_getter op-metas stashed for assignment targets

	// maxJumpTarget is the furthest position any resolved forward jump points
	// at. The redundant-assignment peephole must not rewrite an instruction
	// that a jump can skip over.
	maxJumpTarget int
}

func (d *dumper) init(lits *lit.Table) {
	*d = dumper{lits: lits, maxJumpTarget: -1}
	d.regs.init()
}

// setScope directs subsequent appends and rewrites at s.
func (d *dumper) setScope(s *Scope) {
	d.scope = s
}

// curPos returns the position the next instruction will be appended at.
func (d *dumper) curPos() int {
	return d.scope.instrsCount()
}

func (d *dumper) dump(om opMeta) {
	d.scope.addOpMeta(om)
}

func (d *dumper) getOpMeta(pos int) opMeta {
	return d.scope.opMetaAt(pos)
}

func (d *dumper) rewriteOpMeta(pos int, om opMeta) {
	d.scope.setOpMeta(pos, om)
}

func (d *dumper) lastDumped() opMeta {
	return d.scope.opMetaAt(d.curPos() - 1)
}

func (d *dumper) rewriteLastDumped(om opMeta) {
	d.scope.setOpMeta(d.curPos()-1, om)
}

// getDiffFrom returns the forward distance from pos to the current position.
func (d *dumper) getDiffFrom(pos int) uint16 {
	return uint16(d.curPos() - pos)
}

func (d *dumper) tmpOperand() operand {
	return regOperand(d.regs.allocTemp())
}

func (d *dumper) dumpSingleAddress(op bytecode.Opcode, a operand) {
	d.dump(makeOpMeta(op, a))
}

func (d *dumper) dumpDoubleAddress(op bytecode.Opcode, a, b operand) {
	d.dump(makeOpMeta(op, a, b))
}

func (d *dumper) dumpTripleAddress(op bytecode.Opcode, a, b, c operand) {
	d.dump(makeOpMeta(op, a, b, c))
}

// isEvalLiteral reports whether op is a literal reference to the `eval`
// identifier; a direct call through it needs the direct-eval call flag.
func (d *dumper) isEvalLiteral(op operand) bool {
	return op.isLiteral() && d.lits.IsString(op.lit, "eval")
}

// --- Register allocator pass-throughs used by the parser ---

func (d *dumper) newStatement() {
	d.regs.newStatement()
	d.maxJumpTarget = -1
}
func (d *dumper) newScope()               { d.regs.newScope() }
func (d *dumper) finishScope()            { d.regs.finishScope() }
func (d *dumper) startVargCodeSequence()  { d.regs.startVargCodeSequence() }
func (d *dumper) finishVargCodeSequence() { d.regs.finishVargCodeSequence() }

// --- Literal-to-register assignments ---

func (d *dumper) dumpArrayHoleAssignmentRes() operand {
	op := d.tmpOperand()
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeSimple)),
		idxConstOperand(uint8(bytecode.SimpleArrayHole)))
	return op
}

func (d *dumper) dumpBooleanAssignment(op operand, isTrue bool) {
	v := bytecode.SimpleFalse
	if isTrue {
		v = bytecode.SimpleTrue
	}
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeSimple)),
		idxConstOperand(uint8(v)))
}

func (d *dumper) dumpBooleanAssignmentRes(isTrue bool) operand {
	op := d.tmpOperand()
	d.dumpBooleanAssignment(op, isTrue)
	return op
}

func (d *dumper) dumpStringAssignment(op operand, id lit.ID) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeString)), literalOperand(id))
}

func (d *dumper) dumpStringAssignmentRes(id lit.ID) operand {
	op := d.tmpOperand()
	d.dumpStringAssignment(op, id)
	return op
}

func (d *dumper) dumpNumberAssignment(op operand, id lit.ID) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeNumber)), literalOperand(id))
}

func (d *dumper) dumpNumberAssignmentRes(id lit.ID) operand {
	op := d.tmpOperand()
	d.dumpNumberAssignment(op, id)
	return op
}

func (d *dumper) dumpRegexpAssignment(op operand, id lit.ID) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeRegexp)), literalOperand(id))
}

func (d *dumper) dumpRegexpAssignmentRes(id lit.ID) operand {
	op := d.tmpOperand()
	d.dumpRegexpAssignment(op, id)
	return op
}

func (d *dumper) dumpSmallintAssignment(op operand, v uint8) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeSmallint)), idxConstOperand(v))
}

func (d *dumper) dumpSmallintAssignmentRes(v uint8) operand {
	op := d.tmpOperand()
	d.dumpSmallintAssignment(op, v)
	return op
}

func (d *dumper) dumpUndefinedAssignment(op operand) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeSimple)),
		idxConstOperand(uint8(bytecode.SimpleUndefined)))
}

func (d *dumper) dumpUndefinedAssignmentRes() operand {
	op := d.tmpOperand()
	d.dumpUndefinedAssignment(op)
	return op
}

func (d *dumper) dumpNullAssignment(op operand) {
	d.dumpTripleAddress(bytecode.OpAssignment, op,
		idxConstOperand(uint8(bytecode.ArgTypeSimple)),
		idxConstOperand(uint8(bytecode.SimpleNull)))
}

func (d *dumper) dumpNullAssignmentRes() operand {
	op := d.tmpOperand()
	d.dumpNullAssignment(op)
	return op
}

func (d *dumper) dumpVariableAssignment(res, v operand) {
	d.dumpTripleAddress(bytecode.OpAssignment, res,
		idxConstOperand(uint8(bytecode.ArgTypeVariable)), v)
}

func (d *dumper) dumpVariableAssignmentRes(v operand) operand {
	op := d.tmpOperand()
	d.dumpVariableAssignment(op, v)
	return op
}

// --- Varg headers ---

// vargListType selects the N-ary construct a varg header opens.
type vargListType uint8

const (
	vargFuncDecl vargListType = iota
	vargFuncExpr
	vargArrayDecl
	vargObjDecl
	vargConstructExpr
	vargCallExpr
)

// dumpVargHeaderForRewrite opens an N-ary instruction with an unknown
// argument count, to be patched by rewriteVargHeaderSetArgsCount.
func (d *dumper) dumpVargHeaderForRewrite(vlt vargListType, obj operand) {
	d.vargHeaders = append(d.vargHeaders, d.curPos())
	switch vlt {
	case vargFuncExpr:
		d.dumpTripleAddress(bytecode.OpFuncExprN, unknownOperand(), obj, unknownOperand())
	case vargConstructExpr:
		d.dumpTripleAddress(bytecode.OpConstructN, unknownOperand(), obj, unknownOperand())
	case vargCallExpr:
		d.dumpTripleAddress(bytecode.OpCallN, unknownOperand(), obj, unknownOperand())
	case vargFuncDecl:
		d.dumpDoubleAddress(bytecode.OpFuncDeclN, obj, unknownOperand())
	case vargArrayDecl:
		d.dumpDoubleAddress(bytecode.OpArrayDecl, unknownOperand(), unknownOperand())
	case vargObjDecl:
		d.dumpDoubleAddress(bytecode.OpObjDecl, unknownOperand(), unknownOperand())
	}
}

// rewriteVargHeaderSetArgsCount patches the innermost open varg header with
// the now-known argument count and returns the result operand, if any.
func (d *dumper) rewriteVargHeaderSetArgsCount(argsCount int) operand {
	top := d.vargHeaders[len(d.vargHeaders)-1]
	om := d.getOpMeta(top)
	var res operand

	switch om.op.Op {
	case bytecode.OpFuncExprN, bytecode.OpConstructN, bytecode.OpCallN:
		if argsCount > 255 {
			panic(&errors.SyntaxError{Msg: "No more than 255 formal parameters / arguments are currently supported"})
		}
		res = d.tmpOperand()
		om.op.Args[0] = res.getIdx()
		om.op.Args[2] = uint8(argsCount)
	case bytecode.OpFuncDeclN:
		if argsCount > 255 {
			panic(&errors.SyntaxError{Msg: "No more than 255 formal parameters are currently supported"})
		}
		om.op.Args[1] = uint8(argsCount)
		res = emptyOperand()
	case bytecode.OpArrayDecl, bytecode.OpObjDecl:
		if argsCount > 65535 {
			panic(&errors.SyntaxError{Msg: "No more than 65535 elements are currently supported"})
		}
		res = d.tmpOperand()
		om.op.Args[0] = res.getIdx()
		hi, lo := bytecode.SplitOffset(uint16(argsCount))
		om.op.Args[1] = hi
		om.op.Args[2] = lo
	}

	d.rewriteOpMeta(top, om)
	d.vargHeaders = d.vargHeaders[:len(d.vargHeaders)-1]
	return res
}

// dumpCallAdditionalInfo emits the call_site_info meta carrying the call
// flags and, optionally, the this argument.
func (d *dumper) dumpCallAdditionalInfo(flags bytecode.CallFlags, thisArg operand) {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaCallSiteInfo)),
		idxConstOperand(uint8(flags)),
		thisArg)
}

func (d *dumper) dumpVarg(op operand) {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaVarg)), op, emptyOperand())
}

// --- Object literal properties ---

func (d *dumper) dumpPropNameAndValue(name, value operand) {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaVargPropData)), name, value)
}

func (d *dumper) dumpPropGetterDecl(name, fn operand) {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaVargPropGetter)), name, fn)
}

func (d *dumper) dumpPropSetterDecl(name, fn operand) {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaVargPropSetter)), name, fn)
}

// --- Property access ---

func (d *dumper) dumpPropGetter(res, obj, prop operand) {
	d.dumpTripleAddress(bytecode.OpPropGetter, res, obj, prop)
}

func (d *dumper) dumpPropGetterRes(obj, prop operand) operand {
	res := d.tmpOperand()
	d.dumpPropGetter(res, obj, prop)
	return res
}

func (d *dumper) dumpPropSetter(obj, prop, value operand) {
	d.dumpTripleAddress(bytecode.OpPropSetter, obj, prop, value)
}

// --- Function end marker ---

func (d *dumper) dumpFunctionEndForRewrite() {
	d.functionEnds = append(d.functionEnds, d.curPos())
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaFunctionEnd)),
		unknownOperand(), unknownOperand())
}

// rewriteFunctionEnd patches the innermost function_end marker with the
// distance from the marker to the end of the scope's subtree in the final
// merged layout: the instructions dumped after the marker plus the var_decls
// generated for locals plus all nested subscopes.
func (d *dumper) rewriteFunctionEnd() {
	top := d.functionEnds[len(d.functionEnds)-1]

	dist := d.getDiffFrom(top) +
		uint16(d.scope.localCount) +
		uint16(d.scope.countInstructionsInSubscopes())
	hi, lo := bytecode.SplitOffset(dist)

	om := d.getOpMeta(top)
	om.op.Args[1] = hi
	om.op.Args[2] = lo
	d.rewriteOpMeta(top, om)

	d.functionEnds = d.functionEnds[:len(d.functionEnds)-1]
}

// decrementFunctionEndPos adjusts the recorded marker position after a varg
// meta preceding it was deleted.
func (d *dumper) decrementFunctionEndPos() {
	d.functionEnds[len(d.functionEnds)-1]--
}

// --- This ---

func (d *dumper) dumpThisRes() operand {
	return thisOperand()
}

// --- Increment / decrement and unary operations ---

func (d *dumper) dumpPostIncrementRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpPostIncr, res, op)
	return res
}

func (d *dumper) dumpPostDecrementRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpPostDecr, res, op)
	return res
}

// checkOperandInPrefixOperation validates that the operand of ++/-- is a
// reference: either the last dumped instruction produced it as a property
// access, or it is a plain identifier.
func (d *dumper) checkOperandInPrefixOperation(obj operand, pos errors.Position) {
	last := d.lastDumped()
	if last.op.Op != bytecode.OpPropGetter && obj.isRegister() {
		raiseReference(pos, "Invalid left-hand-side expression in prefix operation")
	}
}

func (d *dumper) dumpPreIncrementRes(op operand, pos errors.Position) operand {
	d.checkOperandInPrefixOperation(op, pos)
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpPreIncr, res, op)
	return res
}

func (d *dumper) dumpPreDecrementRes(op operand, pos errors.Position) operand {
	d.checkOperandInPrefixOperation(op, pos)
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpPreDecr, res, op)
	return res
}

func (d *dumper) dumpUnaryPlusRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpUnaryPlus, res, op)
	return res
}

func (d *dumper) dumpUnaryMinusRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpUnaryMinus, res, op)
	return res
}

func (d *dumper) dumpBitwiseNotRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpBitNot, res, op)
	return res
}

func (d *dumper) dumpLogicalNotRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpLogicalNot, res, op)
	return res
}

func (d *dumper) dumpTypeofRes(op operand) operand {
	res := d.tmpOperand()
	d.dumpDoubleAddress(bytecode.OpTypeof, res, op)
	return res
}

// dumpDelete emits the delete operation. Deleting an identifier is a
// delete_var (an early error in strict mode); deleting a member expression
// rewrites the just-emitted prop_getter into a delete_prop; anything else
// yields true.
func (d *dumper) dumpDelete(res, op operand, isStrict bool, pos errors.Position, ee *earlyErrorChecker) {
	if op.isLiteral() {
		l := d.lits.Get(op.lit)
		if l.Kind == lit.String {
			ee.checkDelete(isStrict, pos)
			d.dumpDoubleAddress(bytecode.OpDeleteVar, res, op)
		} else {
			d.dumpBooleanAssignment(res, true)
		}
		return
	}

	last := d.lastDumped()
	if last.op.Op == bytecode.OpPropGetter {
		d.scope.setWritingPosition(d.curPos() - 1)
		d.dumpTripleAddress(bytecode.OpDeleteProp,
			res,
			operandFromIdxAndLit(last.op.Args[1], last.litID[1]),
			operandFromIdxAndLit(last.op.Args[2], last.litID[2]))
		return
	}
	d.dumpBooleanAssignment(res, true)
}

func (d *dumper) dumpDeleteRes(op operand, isStrict bool, pos errors.Position, ee *earlyErrorChecker) operand {
	res := d.tmpOperand()
	d.dumpDelete(res, op, isStrict, pos, ee)
	return res
}

// --- Three-address operations ---

func (d *dumper) dumpTripleAddressRes(op bytecode.Opcode, lhs, rhs operand) operand {
	res := d.tmpOperand()
	d.dumpTripleAddress(op, res, lhs, rhs)
	return res
}

// --- Logical and/or short-circuit chains ---

func (d *dumper) startDumpingLogicalAndChecks() {
	d.u8 = append(d.u8, len(d.logicalAndChecks))
}

func (d *dumper) dumpLogicalAndCheckForRewrite(op operand) {
	d.logicalAndChecks = append(d.logicalAndChecks, d.curPos())
	d.dumpTripleAddress(bytecode.OpIsFalseJmpDown, op, unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteLogicalAndChecks() {
	base := d.u8[len(d.u8)-1]
	for _, pos := range d.logicalAndChecks[base:] {
		d.rewriteJumpArgs(pos, bytecode.OpIsFalseJmpDown, d.getDiffFrom(pos))
	}
	d.logicalAndChecks = d.logicalAndChecks[:base]
	d.u8 = d.u8[:len(d.u8)-1]
}

func (d *dumper) startDumpingLogicalOrChecks() {
	d.u8 = append(d.u8, len(d.logicalOrChecks))
}

func (d *dumper) dumpLogicalOrCheckForRewrite(op operand) {
	d.logicalOrChecks = append(d.logicalOrChecks, d.curPos())
	d.dumpTripleAddress(bytecode.OpIsTrueJmpDown, op, unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteLogicalOrChecks() {
	base := d.u8[len(d.u8)-1]
	for _, pos := range d.logicalOrChecks[base:] {
		d.rewriteJumpArgs(pos, bytecode.OpIsTrueJmpDown, d.getDiffFrom(pos))
	}
	d.logicalOrChecks = d.logicalOrChecks[:base]
	d.u8 = d.u8[:len(d.u8)-1]
}

// rewriteJumpArgs patches the distance bytes of a jump-family instruction at
// pos. For conditional jumps the condition occupies the first argument, so
// the distance lands in args 1 and 2; unconditional jumps carry it in args 0
// and 1.
func (d *dumper) rewriteJumpArgs(pos int, expect bytecode.Opcode, dist uint16) {
	om := d.getOpMeta(pos)
	if om.op.Op != expect {
		panic("dumper: jump rewrite target has unexpected opcode")
	}
	hi, lo := bytecode.SplitOffset(dist)
	switch om.op.Op {
	case bytecode.OpJmpDown, bytecode.OpJmpUp, bytecode.OpJmpBreakContinue, bytecode.OpTryBlock:
		om.op.Args[0] = hi
		om.op.Args[1] = lo
	default:
		om.op.Args[1] = hi
		om.op.Args[2] = lo
	}
	d.rewriteOpMeta(pos, om)

	if om.op.Op != bytecode.OpJmpUp && om.op.Op != bytecode.OpIsTrueJmpUp && om.op.Op != bytecode.OpIsFalseJmpUp {
		if target := pos + int(dist); target > d.maxJumpTarget {
			d.maxJumpTarget = target
		}
	}
}

// --- Conditional checks and jumps to end ---

func (d *dumper) dumpConditionalCheckForRewrite(op operand) {
	d.conditionalChecks = append(d.conditionalChecks, d.curPos())
	d.dumpTripleAddress(bytecode.OpIsFalseJmpDown, op, unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteConditionalCheck() {
	top := d.conditionalChecks[len(d.conditionalChecks)-1]
	d.rewriteJumpArgs(top, bytecode.OpIsFalseJmpDown, d.getDiffFrom(top))
	d.conditionalChecks = d.conditionalChecks[:len(d.conditionalChecks)-1]
}

func (d *dumper) dumpJumpToEndForRewrite() {
	d.jumpsToEnd = append(d.jumpsToEnd, d.curPos())
	d.dumpDoubleAddress(bytecode.OpJmpDown, unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteJumpToEnd() {
	top := d.jumpsToEnd[len(d.jumpsToEnd)-1]
	d.rewriteJumpArgs(top, bytecode.OpJmpDown, d.getDiffFrom(top))
	d.jumpsToEnd = d.jumpsToEnd[:len(d.jumpsToEnd)-1]
}

// --- Assignment expressions ---

// startDumpingAssignmentExpression validates the left-hand side of an
// assignment. A register-valued lhs must be a member expression, in which
// case the just-emitted prop_getter is removed from the buffer and stashed
// for the later prop_setter.
func (d *dumper) startDumpingAssignmentExpression(lhs operand, pos errors.Position) {
	if !lhs.isRegister() {
		return
	}
	last := d.lastDumped()
	if last.op.Op == bytecode.OpPropGetter {
		d.scope.setWritingPosition(d.curPos() - 1)
		d.propGetters = append(d.propGetters, last)
		return
	}
	raiseReference(pos, "Invalid left-hand-side expression")
}

func (d *dumper) dumpPropSetterOpMeta(last opMeta, value operand) {
	d.dumpPropSetter(
		operandFromIdxAndLit(last.op.Args[1], last.litID[1]),
		operandFromIdxAndLit(last.op.Args[2], last.litID[2]),
		value)
}

// tryMergeRedundantAssignment folds `tmp <- v; res <- tmp` into a single
// instruction: when value is the temporary just produced by an assignment or
// addition and no argument list is open, that instruction's destination is
// rewritten in place to res.
func (d *dumper) tryMergeRedundantAssignment(res, value operand) bool {
	if d.curPos() == 0 || len(d.vargHeaders) != 0 || !value.isRegister() {
		return false
	}
	if d.maxJumpTarget >= d.curPos() {
		// A jump can land past the producing instruction; rewriting its
		// destination would leave the target unassigned on that path.
		return false
	}
	last := d.lastDumped()
	if last.op.Op != bytecode.OpAssignment && last.op.Op != bytecode.OpAddition {
		return false
	}
	if last.op.Args[0] != value.idx || !d.regs.isTemp(value.idx) {
		return false
	}
	last.op.Args[0] = res.getIdx()
	last.litID[0] = res.getLiteral()
	d.rewriteLastDumped(last)
	return true
}

// dumpPropSetterOrVariableAssignmentRes finishes a plain assignment. When
// the target was a member expression the stashed prop_getter becomes a
// prop_setter; otherwise a variable_assignment is emitted, unless the value
// was just produced into a temporary and the destination can be rewritten in
// place.
func (d *dumper) dumpPropSetterOrVariableAssignmentRes(res, value operand) operand {
	if res.isRegister() {
		last := d.propGetters[len(d.propGetters)-1]
		d.propGetters = d.propGetters[:len(d.propGetters)-1]
		d.dumpPropSetterOpMeta(last, value)
		return value
	}

	if d.tryMergeRedundantAssignment(res, value) {
		return res
	}
	d.dumpVariableAssignment(res, value)
	return value
}

// dumpPropSetterOrTripleAddressRes finishes a compound assignment: either
// materialize the stashed getter, apply op and emit the setter, or emit the
// plain three-address form onto the variable.
func (d *dumper) dumpPropSetterOrTripleAddressRes(op bytecode.Opcode, res, value operand) operand {
	if res.isRegister() {
		last := d.propGetters[len(d.propGetters)-1]
		d.propGetters = d.propGetters[:len(d.propGetters)-1]

		obj := operandFromIdxAndLit(last.op.Args[1], last.litID[1])
		prop := operandFromIdxAndLit(last.op.Args[2], last.litID[2])

		tmp := d.dumpPropGetterRes(obj, prop)
		d.dumpTripleAddress(op, tmp, tmp, value)
		d.dumpPropSetter(obj, prop, tmp)
		return tmp
	}
	d.dumpTripleAddress(op, res, res, value)
	return res
}

// --- Iteration targets ---

func (d *dumper) setNextIterationTarget() {
	d.nextIterations = append(d.nextIterations, d.curPos())
}

// dumpContinueIterationsCheck closes a loop: an unconditional jmp_up for
// condition-less loops, or an is_true_jmp_up on the condition.
func (d *dumper) dumpContinueIterationsCheck(op operand) {
	top := d.nextIterations[len(d.nextIterations)-1]
	d.nextIterations = d.nextIterations[:len(d.nextIterations)-1]

	hi, lo := bytecode.SplitOffset(d.getDiffFrom(top))
	if op.isEmpty() {
		d.dumpDoubleAddress(bytecode.OpJmpUp, idxConstOperand(hi), idxConstOperand(lo))
	} else {
		d.dumpTripleAddress(bytecode.OpIsTrueJmpUp, op, idxConstOperand(hi), idxConstOperand(lo))
	}
}

// dumpSimpleOrNestedJumpForRewrite emits a break/continue jump template:
// jmp_down when no try/with/for-in border is crossed, jmp_break_continue
// otherwise so the VM can run intervening finally blocks.
func (d *dumper) dumpSimpleOrNestedJumpForRewrite(isSimpleJump bool) int {
	pos := d.curPos()
	if isSimpleJump {
		d.dumpDoubleAddress(bytecode.OpJmpDown, unknownOperand(), unknownOperand())
	} else {
		d.dumpDoubleAddress(bytecode.OpJmpBreakContinue, unknownOperand(), unknownOperand())
	}
	return pos
}

// rewriteSimpleOrNestedJump patches a break/continue template to point at
// target.
func (d *dumper) rewriteSimpleOrNestedJump(pos, target int) {
	om := d.getOpMeta(pos)
	if om.op.Op != bytecode.OpJmpDown && om.op.Op != bytecode.OpJmpBreakContinue {
		panic("dumper: break/continue rewrite target has unexpected opcode")
	}
	d.rewriteJumpArgs(pos, om.op.Op, uint16(target-pos))
}

// --- Switch case clauses ---

func (d *dumper) startDumpingCaseClauses() {
	d.u8 = append(d.u8, len(d.caseClauses), len(d.caseClauses))
}

func (d *dumper) dumpCaseClauseCheckForRewrite(switchExpr, caseExpr operand) {
	res := d.tmpOperand()
	d.dumpTripleAddress(bytecode.OpEqualValueType, res, switchExpr, caseExpr)
	d.caseClauses = append(d.caseClauses, d.curPos())
	d.dumpTripleAddress(bytecode.OpIsTrueJmpDown, res, unknownOperand(), unknownOperand())
}

func (d *dumper) dumpDefaultClauseCheckForRewrite() {
	d.caseClauses = append(d.caseClauses, d.curPos())
	d.dumpDoubleAddress(bytecode.OpJmpDown, unknownOperand(), unknownOperand())
}

// rewriteCaseClause patches the next unresolved case jump (the cursor lives
// below the group base on the u8 stack).
func (d *dumper) rewriteCaseClause() {
	cursor := &d.u8[len(d.u8)-2]
	pos := d.caseClauses[*cursor]
	*cursor++
	d.rewriteJumpArgs(pos, bytecode.OpIsTrueJmpDown, d.getDiffFrom(pos))
}

func (d *dumper) rewriteDefaultClause() {
	pos := d.caseClauses[len(d.caseClauses)-1]
	d.rewriteJumpArgs(pos, bytecode.OpJmpDown, d.getDiffFrom(pos))
}

func (d *dumper) finishDumpingCaseClauses() {
	base := d.u8[len(d.u8)-1]
	d.caseClauses = d.caseClauses[:base]
	d.u8 = d.u8[:len(d.u8)-2]
}

// --- with / for-in ---

func (d *dumper) dumpWithForRewrite(op operand) int {
	pos := d.curPos()
	d.dumpTripleAddress(bytecode.OpWith, op, unknownOperand(), unknownOperand())
	return pos
}

func (d *dumper) rewriteWith(pos int) {
	d.rewriteJumpArgs(pos, bytecode.OpWith, d.getDiffFrom(pos))
}

func (d *dumper) dumpWithEnd() {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaEndWith)), emptyOperand(), emptyOperand())
}

func (d *dumper) dumpForInForRewrite(op operand) int {
	pos := d.curPos()
	d.dumpTripleAddress(bytecode.OpForIn, op, unknownOperand(), unknownOperand())
	return pos
}

func (d *dumper) rewriteForIn(pos int) {
	d.rewriteJumpArgs(pos, bytecode.OpForIn, d.getDiffFrom(pos))
}

func (d *dumper) dumpForInEnd() {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaEndForIn)), emptyOperand(), emptyOperand())
}

// --- try / catch / finally ---

func (d *dumper) dumpTryForRewrite() {
	d.tries = append(d.tries, d.curPos())
	d.dumpDoubleAddress(bytecode.OpTryBlock, unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteTry() {
	top := d.tries[len(d.tries)-1]
	d.rewriteJumpArgs(top, bytecode.OpTryBlock, d.getDiffFrom(top))
	d.tries = d.tries[:len(d.tries)-1]
}

func (d *dumper) dumpCatchForRewrite(exception operand) {
	d.catches = append(d.catches, d.curPos())
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaCatch)),
		unknownOperand(), unknownOperand())
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaCatchExceptionIdentifier)),
		exception, emptyOperand())
}

func (d *dumper) rewriteCatch() {
	top := d.catches[len(d.catches)-1]
	d.rewriteJumpArgs(top, bytecode.OpMeta, d.getDiffFrom(top))
	d.catches = d.catches[:len(d.catches)-1]
}

func (d *dumper) dumpFinallyForRewrite() {
	d.finallies = append(d.finallies, d.curPos())
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaFinally)),
		unknownOperand(), unknownOperand())
}

func (d *dumper) rewriteFinally() {
	top := d.finallies[len(d.finallies)-1]
	d.rewriteJumpArgs(top, bytecode.OpMeta, d.getDiffFrom(top))
	d.finallies = d.finallies[:len(d.finallies)-1]
}

func (d *dumper) dumpEndTryCatchFinally() {
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaEndTryCatchFinally)),
		emptyOperand(), emptyOperand())
}

func (d *dumper) dumpThrow(op operand) {
	d.dumpSingleAddress(bytecode.OpThrowValue, op)
}

// --- Scope header instructions ---

func (d *dumper) dumpScopeCodeFlagsForRewrite() int {
	pos := d.curPos()
	d.dumpTripleAddress(bytecode.OpMeta,
		idxConstOperand(uint8(bytecode.MetaScopeCodeFlags)),
		unknownOperand(), emptyOperand())
	return pos
}

func (d *dumper) rewriteScopeCodeFlags(pos int, flags bytecode.ScopeFlags) {
	om := d.getOpMeta(pos)
	om.op.Args[1] = uint8(flags)
	d.rewriteOpMeta(pos, om)
}

func (d *dumper) dumpRegVarDeclForRewrite() int {
	pos := d.curPos()
	d.dumpTripleAddress(bytecode.OpRegVarDecl,
		unknownOperand(), unknownOperand(), unknownOperand())
	return pos
}

func (d *dumper) rewriteRegVarDecl(pos int) {
	temps, locals, args := d.regs.regVarDeclCounts()
	om := d.getOpMeta(pos)
	om.op.Args[0] = temps
	om.op.Args[1] = locals
	om.op.Args[2] = args
	d.rewriteOpMeta(pos, om)
}

// --- return / throw trailers ---

func (d *dumper) dumpRet() {
	d.dump(makeOpMeta(bytecode.OpRet))
}

func (d *dumper) dumpRetval(op operand) {
	d.dumpSingleAddress(bytecode.OpRetval, op)
}
