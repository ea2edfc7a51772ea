package link

// MarkLive computes the transitive closure of Func symbols reachable
// from the given roots, following relocation-derived call edges: a
// worklist consumed from the front, pushing newly-discovered
// functions.
//
// Non-function symbols are never queued as nodes; they are implicitly
// "live" exactly when some live function's operand resolution reaches
// them, which falls out naturally of only walking live functions'
// instructions during emission (see ksm/writer.go) rather than needing a
// second liveness color.
func MarkLive(roots []*ResolvedSymbol) []*ResolvedSymbol {
	visited := map[*ResolvedSymbol]bool{}
	var order []*ResolvedSymbol
	queue := append([]*ResolvedSymbol{}, roots...)

	for len(queue) > 0 {
		rs := queue[0]
		queue = queue[1:]
		if rs == nil || visited[rs] || !rs.IsFunc() {
			continue
		}
		visited[rs] = true
		rs.live = true
		order = append(order, rs)

		for _, rel := range rs.Unit.Image.RelocationsByFunc[rs.FunctionSectionIdx()] {
			target := rs.Unit.SymByIdx[rel.SymbolIdx]
			if target == nil || !target.IsFunc() || visited[target] {
				continue
			}
			queue = append(queue, target)
		}
	}
	return order
}
