package link

// Order returns the surviving Func symbols in final code-stream
// order: the init function first (if present; it always runs
// before the entry point), then the entry function (executable mode
// only — shared-library mode has no %M and so no separate entry slot
// beyond _init itself), then every other live function in
// input-file order and, within a file, section-definition order.
//
// This module only decides order. Byte-offset assignment is driven by
// the KSM operand width W, which isn't known until the argument section
// is built, so the actual per-instruction offset bookkeeping lives in
// the ksm package's two-pass emitter (see ksm/writer.go), not here.
func Order(units []*Unit, liveFuncs []*ResolvedSymbol, initSym, entrySym *ResolvedSymbol, shared bool) []*ResolvedSymbol {
	live := map[*ResolvedSymbol]bool{}
	for _, rs := range liveFuncs {
		live[rs] = true
	}

	var out []*ResolvedSymbol
	placed := map[*ResolvedSymbol]bool{}

	place := func(rs *ResolvedSymbol) {
		if rs == nil || placed[rs] {
			return
		}
		out = append(out, rs)
		placed[rs] = true
	}

	place(initSym)
	if !shared {
		place(entrySym)
	}

	for _, u := range units {
		for i := range u.Image.Headers {
			for _, rs := range u.SymByIdx {
				if rs != nil && rs.IsFunc() && rs.Unit == u && rs.FunctionSectionIdx() == i && live[rs] {
					place(rs)
				}
			}
		}
	}

	return out
}
