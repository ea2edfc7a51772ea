package ko

import "github.com/kerbalko/ksmld/internal/codec"

// Instruction is one KO-form instruction: an opcode and 0-2 operands,
// each a 32-bit index into the owning image's .data section unless a
// relocation entry overrides it, in which case the stored operand is
// 0.
type Instruction struct {
	Opcode   byte
	Operands [2]uint32
	NumOperands int
}

// DecodeFunctionSection decodes a sequence of (opcode, operands),
// using the opcode-to-operand-count table in format.go.
func DecodeFunctionSection(body []byte) ([]Instruction, error) {
	r := codec.NewReader(body)
	var out []Instruction
	for r.Len() > 0 {
		op, err := r.U8()
		if err != nil {
			return nil, err
		}
		n, ok := OperandCount(op)
		if !ok {
			return nil, ErrUndefinedOpcode
		}
		inst := Instruction{Opcode: op, NumOperands: n}
		for i := 0; i < n; i++ {
			v, err := r.U32()
			if err != nil {
				return nil, ErrTruncated
			}
			inst.Operands[i] = v
		}
		out = append(out, inst)
	}
	return out, nil
}

// EncodeFunctionSection re-serializes instructions to their KO on-disk
// form. Used by round-trip tests and the kotest fixture builder; the
// linker never writes KO, only KSM.
func EncodeFunctionSection(instrs []Instruction) []byte {
	w := codec.NewWriter()
	for _, in := range instrs {
		w.U8(in.Opcode)
		for i := 0; i < in.NumOperands; i++ {
			w.U32(in.Operands[i])
		}
	}
	return w.Bytes()
}
