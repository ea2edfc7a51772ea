// Package ko parses the KerbalObject relocatable object format: the
// simplified ELF-like container the link engine consumes. Parsing runs
// as a flat header, a section-header array, sequential body decoding,
// then a name-resolution pass.
package ko

// Magic is the four-byte KO file signature: 'k', 0x01,
// 'o', 'f'.
var Magic = [4]byte{0x6B, 0x01, 0x6F, 0x66}

// Version is the only version byte this reader accepts.
const Version = 3

// SectionKind enumerates the section-header "kind" byte.
type SectionKind uint8

const (
	KindNull SectionKind = iota
	KindSymbolTable
	KindStringTable
	KindFunction
	KindData
	KindDebug
	KindRelocation
)

func (k SectionKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindSymbolTable:
		return "SymbolTable"
	case KindStringTable:
		return "StringTable"
	case KindFunction:
		return "Function"
	case KindData:
		return "Data"
	case KindDebug:
		return "Debug"
	case KindRelocation:
		return "RelocationData"
	default:
		return "Unknown"
	}
}

// Binding enumerates a symbol's binding class.
type Binding uint8

const (
	Local Binding = iota
	Global
	Extern
)

func (b Binding) String() string {
	switch b {
	case Local:
		return "Local"
	case Global:
		return "Global"
	case Extern:
		return "Extern"
	default:
		return "Unknown"
	}
}

// SymType enumerates a symbol's type class.
type SymType uint8

const (
	NoType SymType = iota
	Object
	Func
	Section
	File
)

func (t SymType) String() string {
	switch t {
	case NoType:
		return "NoType"
	case Object:
		return "Object"
	case Func:
		return "Func"
	case Section:
		return "Section"
	case File:
		return "File"
	default:
		return "Unknown"
	}
}

// Specially named sections.
const (
	SectionSHStrTab = ".shstrtab"
	SectionSymTab   = ".symtab"
	SectionSymStrTab = ".symstrtab"
	SectionData     = ".data"
	SectionReld     = ".reld"
	SectionComment  = ".comment"
	SectionInit     = "_init"
	SectionStart    = "_start"
)

// opcodeOperands maps each opcode to the number of u32 operands it
// carries; an opcode absent from the table is undefined and rejected
// by the reader. The table mirrors the KSM opcode set and is
// intentionally small: this linker never interprets operands, it only
// needs to know how many 32-bit words follow each opcode byte so it
// can walk a function section and, later, rewrite operands in place.
var opcodeOperands = map[byte]int{
	OpEOF:                      0,
	OpAdd:                      0,
	OpSub:                      0,
	OpMul:                      0,
	OpDiv:                      0,
	OpPop:                      0,
	OpReturn:                   0,
	OpPush:                     1,
	OpCall:                     2,
	OpBranchFalse:              1,
	OpStoreLocal:               2,
	OpPushRelocateLater:        1,
	OpPushDelegateRelocateLater: 1,
	OpLabelReset:               0,
}

// Opcodes. Byte values avoid 0x25 ('%'), the KSM section-marker
// prefix.
const (
	OpEOF              byte = 0x00
	OpAdd              byte = 0x3C
	OpSub              byte = 0x3D
	OpMul              byte = 0x3E
	OpDiv              byte = 0x3F
	OpPop              byte = 0x35
	OpReturn           byte = 0x36
	OpPush             byte = 0x4E
	OpCall             byte = 0x4F
	OpBranchFalse      byte = 0x51
	OpStoreLocal       byte = 0x52

	// Placeholder opcodes the target runtime removes when loading;
	// this linker preserves them verbatim rather than stripping them.
	OpPushRelocateLater        byte = 0x60
	OpPushDelegateRelocateLater byte = 0x61
	OpLabelReset               byte = 0x62
)

// OperandCount looks up how many u32 operands follow opcode.
func OperandCount(opcode byte) (int, bool) {
	n, ok := opcodeOperands[opcode]
	return n, ok
}

// CallOperand names which of CALL's two operands carries which role.
// The linker always writes the empty-string direct-call placeholder
// into the second operand, since it never emits delegate/indirect
// calls.
const (
	CallOperandLabel  = 1
	CallOperandDirect = 2
)
