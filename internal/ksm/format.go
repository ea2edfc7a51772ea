// Package ksm writes the KerboScript Machine code container the link
// engine produces. Its writer sits on the trickiest boundary in the
// linker: KO indexes strings and data positionally, KSM indexes its
// argument section by byte offset, and every operand the linker ever
// emits crosses that translation exactly once, here.
package ksm

// Magic is the four-byte KSM file signature: 'k', 0x03,
// 'X', 'E'.
var Magic = [4]byte{0x6B, 0x03, 0x58, 0x45}

// Section markers: two ASCII bytes, '%' (0x25) followed by a letter
// naming the section. Opcode bytes are guaranteed never to
// collide with 0x25 (ko.format.go), so a reader can always tell a
// marker from an opcode.
var (
	MarkerArg   = [2]byte{'%', 'A'}
	MarkerFunc  = [2]byte{'%', 'F'}
	MarkerInit  = [2]byte{'%', 'I'}
	MarkerMain  = [2]byte{'%', 'M'}
	MarkerDebug = [2]byte{'%', 'D'}
)

// WidthFor returns the minimum operand width W in 1..4 such that
// every byte offset addressable within an argument section of the given
// total size fits in W bytes: W = ceil(log256(size+1)).
func WidthFor(argSectionSize int) int {
	n := argSectionSize + 1
	for w := 1; w < 4; w++ {
		if n <= 1<<(8*w) {
			return w
		}
	}
	return 4
}
