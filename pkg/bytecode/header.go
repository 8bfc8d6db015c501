package bytecode

import (
	"fmt"
	"io"

	"jerboa/pkg/lit"
)

// LitMap resolves IdxRewriteLiteral argument slots to literal ids. The key
// addresses one argument of one instruction in the final linear array.
type LitMap map[LitMapKey]lit.ID

// LitMapKey identifies an argument slot of an instruction.
type LitMapKey struct {
	Instr int   // index into Header.Instrs
	Arg   uint8 // 0..2
}

// Set records the literal bound to an argument slot.
func (m LitMap) Set(instr int, arg uint8, id lit.ID) {
	m[LitMapKey{Instr: instr, Arg: arg}] = id
}

// Get returns the literal bound to an argument slot, or lit.None.
func (m LitMap) Get(instr int, arg uint8) lit.ID {
	return m[LitMapKey{Instr: instr, Arg: arg}]
}

// Header is the final compiled image: the merged linear instruction array,
// the literal side table, and the code flags of the root scope.
type Header struct {
	Instrs     []Instr
	LitMap     LitMap
	ScopeFlags ScopeFlags
}

// Disassemble writes a human-readable listing of the instruction array.
func (h *Header) Disassemble(w io.Writer, lits *lit.Table) {
	for i, in := range h.Instrs {
		fmt.Fprintf(w, "%5d  %s\n", i, h.FormatInstr(i, in, lits))
	}
}

// FormatInstr renders one instruction, resolving literal slots through the
// side table when a literal table is supplied.
func (h *Header) FormatInstr(idx int, in Instr, lits *lit.Table) string {
	name := in.Op.String()
	if in.Op == OpMeta {
		name = "meta " + MetaType(in.Args[0]).String()
	}
	out := name
	for a := uint8(0); a < 3; a++ {
		if in.Op == OpMeta && a == 0 {
			continue
		}
		v := in.Args[a]
		switch {
		case v == IdxEmpty:
			out += " -"
		case v == IdxRewriteLiteral:
			if id := h.LitMap.Get(idx, a); id != lit.None && lits != nil {
				out += fmt.Sprintf(" %q", lits.StringOf(id))
			} else {
				out += " <lit>"
			}
		case v == IdxRewriteGeneral:
			out += " <rewrite>"
		default:
			out += fmt.Sprintf(" %d", v)
		}
	}
	return out
}
