package session

import "slices"

// StatusTable maps project ids to their current display line, keeping the
// order in which projects first appeared.
type StatusTable struct {
	order  []string
	values map[string]string
}

// NewStatusTable returns an empty table.
func NewStatusTable() *StatusTable {
	return &StatusTable{values: make(map[string]string)}
}

// Upsert replaces the display line of a known project in place, or appends a
// new project at the end.
func (t *StatusTable) Upsert(projectID, display string) {
	if _, ok := t.values[projectID]; !ok {
		t.order = append(t.order, projectID)
	}
	t.values[projectID] = display
}

// Remove drops a project. Unknown ids are ignored.
func (t *StatusTable) Remove(projectID string) {
	if _, ok := t.values[projectID]; !ok {
		return
	}
	delete(t.values, projectID)
	if i := slices.Index(t.order, projectID); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

// Get returns the display line for a project.
func (t *StatusTable) Get(projectID string) (string, bool) {
	v, ok := t.values[projectID]
	return v, ok
}

// Len returns the number of tracked projects.
func (t *StatusTable) Len() int { return len(t.order) }

// Keys returns a copy of the project ids in insertion order.
func (t *StatusTable) Keys() []string {
	return slices.Clone(t.order)
}

// Values returns a copy of the display lines in insertion order.
func (t *StatusTable) Values() []string {
	out := make([]string, len(t.order))
	for i, id := range t.order {
		out[i] = t.values[id]
	}
	return out
}
