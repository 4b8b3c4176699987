package catalog

// Table is a read-only id -> definition map that remembers declaration order.
type Table[T any] struct {
	ids  []string
	byID map[string]T
}

func newTable[T any]() Table[T] {
	return Table[T]{byID: make(map[string]T)}
}

func (t *Table[T]) put(id string, v T) {
	if t.byID == nil {
		t.byID = make(map[string]T)
	}
	if _, exists := t.byID[id]; !exists {
		t.ids = append(t.ids, id)
	}
	t.byID[id] = v
}

// Get returns the definition for id.
func (t Table[T]) Get(id string) (T, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// Has reports whether id is defined.
func (t Table[T]) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// IDs returns the ids in declaration order.
func (t Table[T]) IDs() []string {
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

// Values returns the definitions in declaration order.
func (t Table[T]) Values() []T {
	out := make([]T, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.byID[id])
	}
	return out
}

// Len is the number of definitions.
func (t Table[T]) Len() int {
	return len(t.ids)
}

// NewItemTable builds a table from definitions keyed by their ID field.
func NewItemTable(defs ...ItemInfo) Table[ItemInfo] {
	t := newTable[ItemInfo]()
	for _, d := range defs {
		t.put(d.ID, d)
	}
	return t
}

// NewEventTable builds a table from definitions keyed by their ID field.
func NewEventTable(defs ...EventDefinition) Table[EventDefinition] {
	t := newTable[EventDefinition]()
	for _, d := range defs {
		t.put(d.ID, d)
	}
	return t
}

// NewAchievementTable builds a table from definitions keyed by their ID field.
func NewAchievementTable(defs ...AchievementDefinition) Table[AchievementDefinition] {
	t := newTable[AchievementDefinition]()
	for _, d := range defs {
		t.put(d.ID, d)
	}
	return t
}
