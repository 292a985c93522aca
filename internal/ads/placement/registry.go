package placement

// registry maps slot -> breakpoint -> div id, keeping first-seen order at
// both levels, and tracks every breakpoint seen across slots.
type registry struct {
	slots       []string
	entries     map[string]*slotEntry
	breakpoints []string
	seen        map[string]struct{}
}

type slotEntry struct {
	breakpoints []string
	divIDs      map[string]string
}

func newRegistry() *registry {
	return &registry{
		entries: map[string]*slotEntry{},
		seen:    map[string]struct{}{},
	}
}

// add registers the pair and reports whether it was new.
func (r *registry) add(slot, breakpoint string) (Placeholder, bool) {
	if _, ok := r.seen[breakpoint]; !ok {
		r.seen[breakpoint] = struct{}{}
		r.breakpoints = append(r.breakpoints, breakpoint)
	}

	entry, ok := r.entries[slot]
	if !ok {
		entry = &slotEntry{divIDs: map[string]string{}}
		r.entries[slot] = entry
		r.slots = append(r.slots, slot)
	}
	if divID, ok := entry.divIDs[breakpoint]; ok {
		return Placeholder{Slot: slot, Breakpoint: breakpoint, DivID: divID}, false
	}
	divID := DivID(slot, breakpoint)
	entry.divIDs[breakpoint] = divID
	entry.breakpoints = append(entry.breakpoints, breakpoint)
	return Placeholder{Slot: slot, Breakpoint: breakpoint, DivID: divID}, true
}

func (r *registry) divID(slot, breakpoint string) (string, bool) {
	entry, ok := r.entries[slot]
	if !ok {
		return "", false
	}
	divID, ok := entry.divIDs[breakpoint]
	return divID, ok
}
