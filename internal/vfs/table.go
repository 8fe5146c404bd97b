package vfs

// entryTable is an insertion-ordered mapping from canonical path to
// [CovariantEntry]. It is the "master" map of the archive filesystem.
type entryTable struct {
	order []string
	byKey map[string]*CovariantEntry
}

func newEntryTable(sizeHint int) *entryTable {
	return &entryTable{
		byKey: make(map[string]*CovariantEntry, sizeHint),
	}
}

// size returns the number of distinct paths in the table.
func (t *entryTable) size() int {
	return len(t.order)
}

// add finds-or-creates the covariant wrapper at path and stores entry under
// its own type, returning the (possibly newly created) wrapper.
func (t *entryTable) add(path string, entry ArchiveEntry) *CovariantEntry {
	ce, ok := t.byKey[path]
	if !ok {
		ce = newCovariantEntry(path)
		t.byKey[path] = ce
		t.order = append(t.order, path)
	}
	ce.Put(entry.Type(), entry)

	return ce
}

// get returns the covariant entry at path, or nil if none exists.
func (t *entryTable) get(path string) *CovariantEntry {
	return t.byKey[path]
}

// remove deletes the entry at path, returning it, or nil if it did not exist.
func (t *entryTable) remove(path string) *CovariantEntry {
	ce, ok := t.byKey[path]
	if !ok {
		return nil
	}
	delete(t.byKey, path)

	for i, p := range t.order {
		if p == path {
			t.order = append(t.order[:i], t.order[i+1:]...)

			break
		}
	}

	return ce
}

// all returns every covariant entry in insertion order. Iteration over a
// mutating table is undefined; callers that need a stable
// snapshot should not mutate the filesystem while ranging over the result.
func (t *entryTable) all() []*CovariantEntry {
	out := make([]*CovariantEntry, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.byKey[p])
	}

	return out
}
