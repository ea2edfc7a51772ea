package link

import (
	werrors "tlog.app/go/errors"

	"github.com/kerbalko/ksmld/internal/ko"
	"github.com/kerbalko/ksmld/internal/value"
)

// ResolveOperand produces the value.Value a single instruction operand
// refers to. A relocated operand binds through the symbol table to
// either a call-target label string (Func) or a data entry (Object);
// an unrelocated operand is a direct index into the owning image's own
// ".data" section. Byte-offset assignment is left to the ksm package's
// argument-table builder, since offsets aren't fixed until the
// argument section is deduplicated.
func ResolveOperand(rs *ResolvedSymbol, instrIdx int, operandOrd int, raw uint32) (value.Value, error) {
	for _, rel := range rs.Unit.Image.RelocationsByFunc[rs.FunctionSectionIdx()] {
		if int(rel.InstrIdx) != instrIdx || int(rel.OperandOrd) != operandOrd {
			continue
		}
		target := rs.Unit.SymByIdx[rel.SymbolIdx]
		if target == nil {
			return value.Value{}, werrors.Wrap(ErrUndefinedReference,
				"relocation in %s func section %d instr %d operand %d",
				rs.Unit.Path, rs.FunctionSectionIdx(), instrIdx, operandOrd)
		}
		if target.IsFunc() {
			return value.NewString(target.Name), nil
		}
		return target.DataValue(), nil
	}

	// No relocation: raw is a plain index into this image's own .data
	// section.
	vals := rs.Unit.DataValues()
	if int(raw) >= len(vals) {
		return value.Value{}, werrors.Wrap(ko.ErrBadOperandOrdinal,
			"%s func section %d instr %d operand %d: .data index %d out of range (%d entries)",
			rs.Unit.Path, rs.FunctionSectionIdx(), instrIdx, operandOrd, raw, len(vals))
	}
	return vals[raw], nil
}

// ResolvedInstruction is one instruction with every used operand
// resolved to a value.Value, ready for the ksm argument-table builder.
type ResolvedInstruction struct {
	Opcode   byte
	Operands []value.Value
}

// ResolveFunction resolves every instruction of a live function in
// order.
func ResolveFunction(rs *ResolvedSymbol) ([]ResolvedInstruction, error) {
	instrs := rs.Instructions()

	// A relocation whose operand ordinal exceeds its target
	// instruction's actual operand count could never be visited by the
	// resolution loop below and would leave the KO-side 0 placeholder
	// unrewritten in spirit even though nothing downstream would ever
	// notice — a lost relocation, reported as a linker bug rather
	// than a user input error (ko.Parse's own validateRelocations
	// only checks the instruction index, not the ordinal against
	// that instruction's opcode-derived operand count).
	for _, rel := range rs.Unit.Image.RelocationsByFunc[rs.FunctionSectionIdx()] {
		if int(rel.InstrIdx) >= len(instrs) {
			continue // already rejected by ko.Parse
		}
		if int(rel.OperandOrd) > instrs[rel.InstrIdx].NumOperands {
			return nil, werrors.Wrap(ErrLostRelocation,
				"%s func section %d instr %d: relocation targets operand %d but instruction has %d",
				rs.Unit.Path, rs.FunctionSectionIdx(), rel.InstrIdx, rel.OperandOrd, instrs[rel.InstrIdx].NumOperands)
		}
	}

	out := make([]ResolvedInstruction, len(instrs))
	for i, instr := range instrs {
		// instr.NumOperands was already validated against the opcode
		// table when ko.Parse decoded this function section; no
		// opcode here can be undefined.
		ri := ResolvedInstruction{Opcode: instr.Opcode}
		for ord := 1; ord <= instr.NumOperands; ord++ {
			// CALL's second operand is always the reserved "no
			// delegate" placeholder: this
			// linker only ever emits direct calls, so operand 2 never
			// goes through relocation or .data-index resolution.
			if instr.Opcode == ko.OpCall && ord == ko.CallOperandDirect {
				ri.Operands = append(ri.Operands, value.NewString(""))
				continue
			}
			v, err := ResolveOperand(rs, i, ord, instr.Operands[ord-1])
			if err != nil {
				return nil, err
			}
			ri.Operands = append(ri.Operands, v)
		}
		out[i] = ri
	}
	return out, nil
}
