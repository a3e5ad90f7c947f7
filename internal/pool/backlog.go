package pool

// buildBacklogLocked computes per-category deficits and interleaves the
// work items breadth-first: round one takes a single slot from every
// category with remaining deficit (in registration order), round two a
// second slot, and so on. A category with a large deficit therefore
// never starves another category's first warm handle.
//
// Callers must hold m.mu.
func (m *Manager) buildBacklogLocked() []workItem {
	deficits := make(map[string]int, len(m.pools))
	for _, name := range m.order {
		p := m.pools[name]
		d := p.target - len(p.warm) - m.inflight[name]
		if d > 0 {
			deficits[name] = d
		}
	}

	var items []workItem
	for {
		progressed := false
		for _, name := range m.order {
			if deficits[name] > 0 {
				items = append(items, workItem{category: name})
				deficits[name]--
				progressed = true
			}
		}
		if !progressed {
			return items
		}
	}
}
