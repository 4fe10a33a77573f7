package history

// GroupScope closes a group with defer:
//
//	defer h.GroupScope("indent").End()
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{history: h, active: true}
}

// End ends the group scope. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Transaction runs fn inside a group. Changes fn made before failing are
// still recorded, so the caller can undo them.
func (h *History) Transaction(name string, fn func() error) error {
	defer h.GroupScope(name).End()
	return fn()
}
