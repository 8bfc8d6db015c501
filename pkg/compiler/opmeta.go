package compiler

import (
	"jerboa/pkg/bytecode"
	"jerboa/pkg/lit"
)

// opMeta is the emitter-internal envelope around one instruction: the
// instruction itself plus the literal ids bound to its argument slots. Only
// the scope instruction buffers hold op-metas; the serialized bytecode keeps
// the bare instructions and a separate literal map.
type opMeta struct {
	op    bytecode.Instr
	litID [3]lit.ID
}

// makeOpMeta builds an op-meta from an opcode and up to three operands.
// Unused trailing slots are filled with the empty sentinel.
func makeOpMeta(op bytecode.Opcode, ops ...operand) opMeta {
	var om opMeta
	om.op.Op = op
	for i := 0; i < 3; i++ {
		if i < len(ops) {
			om.op.Args[i] = ops[i].getIdx()
			om.litID[i] = ops[i].getLiteral()
		} else {
			om.op.Args[i] = bytecode.IdxEmpty
			om.litID[i] = lit.None
		}
	}
	return om
}
