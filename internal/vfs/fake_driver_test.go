package vfs

import "fmt"

// fakeEntry is a minimal [ArchiveEntry] used by this package's own tests,
// standing in for a real archive driver's concrete entry type.
type fakeEntry struct {
	name  string
	typ   EntryType
	times [3]int64
	sizes [2]int64
}

func newFakeEntry(name string, t EntryType) *fakeEntry {
	e := &fakeEntry{name: name, typ: t}
	for i := range e.times {
		e.times[i] = Unknown
	}
	for i := range e.sizes {
		e.sizes[i] = Unknown
	}

	return e
}

func (e *fakeEntry) Name() string     { return e.name }
func (e *fakeEntry) Type() EntryType  { return e.typ }
func (e *fakeEntry) Time(a Access) int64 { return e.times[a] }

func (e *fakeEntry) SetTime(a Access, v int64) bool {
	e.times[a] = v

	return true
}

func (e *fakeEntry) Size(s Size) int64 { return e.sizes[s] }

func (e *fakeEntry) SetSize(s Size, v int64) bool {
	e.sizes[s] = v

	return true
}

// fakeDriver is a minimal [ArchiveDriver] used by this package's own tests.
type fakeDriver struct {
	// rejectNames causes NewEntry/AssertEncodable to fail for these names.
	rejectNames map[string]bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{rejectNames: map[string]bool{}}
}

func (d *fakeDriver) NewEntry(name string, t EntryType, template ArchiveEntry, _ Options) (ArchiveEntry, error) {
	if d.rejectNames[name] {
		return nil, fmt.Errorf("name %q rejected by fake driver", name)
	}

	e := newFakeEntry(name, t)
	if template != nil {
		for _, a := range AllAccessKinds {
			if v := template.Time(a); v != Unknown {
				e.SetTime(a, v)
			}
		}
		for _, s := range AllSizeKinds {
			if v := template.Size(s); v != Unknown {
				e.SetSize(s, v)
			}
		}
	}

	return e, nil
}

func (d *fakeDriver) AssertEncodable(name string) error {
	if d.rejectNames[name] {
		return fmt.Errorf("name %q rejected by fake driver", name)
	}

	return nil
}

// fakeContainer is a minimal [EntryContainer] used by this package's own tests.
type fakeContainer struct {
	entries []ArchiveEntry
}

func (c *fakeContainer) Entries() []ArchiveEntry { return c.entries }
func (c *fakeContainer) Size() int               { return len(c.entries) }

func (c *fakeContainer) Entry(name string) ArchiveEntry {
	for _, e := range c.entries {
		if e.Name() == name {
			return e
		}
	}

	return nil
}
