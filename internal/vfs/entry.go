package vfs

// EntryType is the type of an archive entry.
type EntryType int

const (
	// FILE is a regular file entry.
	FILE EntryType = iota
	// DIRECTORY is a directory entry.
	DIRECTORY
	// SPECIAL is any entry that is neither a file nor a directory.
	SPECIAL
)

func (t EntryType) String() string {
	switch t {
	case FILE:
		return "FILE"
	case DIRECTORY:
		return "DIRECTORY"
	case SPECIAL:
		return "SPECIAL"
	default:
		return "UNKNOWN"
	}
}

// Access identifies a kind of recorded entry time (last read, last write,
// creation, ...). The full set of access kinds is left to the driver; only
// iteration over AllAccessKinds is relied on by this package.
type Access int

const (
	// AccessRead is the time an entry was last read.
	AccessRead Access = iota
	// AccessWrite is the time an entry was last written.
	AccessWrite
	// AccessCreate is the time an entry was created.
	AccessCreate
)

// AllAccessKinds enumerates every access kind this package iterates over.
var AllAccessKinds = []Access{AccessRead, AccessWrite, AccessCreate}

// Size identifies a kind of recorded entry size.
type Size int

const (
	// SizeData is the decompressed ("uncompressed") data size.
	SizeData Size = iota
	// SizeStorage is the size an entry occupies in the archive container.
	SizeStorage
)

// AllSizeKinds enumerates every size kind this package iterates over.
var AllSizeKinds = []Size{SizeData, SizeStorage}

// Unknown is the sentinel value for an unset time or size.
const Unknown int64 = -1

// ArchiveEntry is the minimal capability an archive driver's concrete entry
// type must provide for use by [ArchiveFileSystem]. Driver implementations
// are expected to share storage with their own container representation:
// mutating an entry's time or size through this interface is visible to the
// driver.
type ArchiveEntry interface {
	// Name is the canonical archive path of this entry (no leading
	// separator, '/' delimited).
	Name() string

	// Type is the entry's type.
	Type() EntryType

	// Time returns the recorded time for the given access kind, or Unknown.
	Time(access Access) int64

	// SetTime sets the recorded time for the given access kind. It returns
	// false if the driver's entry cannot represent this access kind.
	SetTime(access Access, value int64) bool

	// Size returns the recorded size for the given size kind, or Unknown.
	Size(kind Size) int64

	// SetSize sets the recorded size for the given size kind. It returns
	// false if the driver's entry cannot represent this size kind.
	SetSize(kind Size, value int64) bool
}

// CovariantEntry bundles at most one archive entry per [EntryType] at a
// single canonical path, plus (for directories) the insertion-ordered set
// of member base names. A ZIP archive, for example, may contain both a
// file entry "foo" and a directory entry "foo/"; both are held here and
// the filesystem view projects the type a caller actually asked for.
type CovariantEntry struct {
	path     string
	variants [3]ArchiveEntry // indexed by EntryType
	members  *orderedSet
}

// newCovariantEntry returns an empty [CovariantEntry] rooted at path.
func newCovariantEntry(path string) *CovariantEntry {
	return &CovariantEntry{
		path:    path,
		members: newOrderedSet(),
	}
}

// Path returns the canonical path this entry is stored under.
func (c *CovariantEntry) Path() string {
	return c.path
}

// Put stores entry under the given type, replacing any prior entry of the
// same type at this path.
func (c *CovariantEntry) Put(t EntryType, entry ArchiveEntry) {
	c.variants[t] = entry
}

// Get returns the archive entry of the given type, or nil if none is held.
func (c *CovariantEntry) Get(t EntryType) ArchiveEntry {
	return c.variants[t]
}

// IsType reports whether an entry of the given type is held.
func (c *CovariantEntry) IsType(t EntryType) bool {
	return c.variants[t] != nil
}

// PreferredEntry returns the FILE variant if present, else the DIRECTORY
// variant if present, else the SPECIAL variant if present, else nil. This
// mirrors the source's FsCovariantEntry.getEntry(), which the commit-time
// touch logic in [Operation.Commit] depends on.
func (c *CovariantEntry) PreferredEntry() ArchiveEntry {
	for _, t := range []EntryType{FILE, DIRECTORY, SPECIAL} {
		if e := c.variants[t]; e != nil {
			return e
		}
	}

	return nil
}

// Members returns a copy of the insertion-ordered member base names. Callers
// may not mutate the live tree through the returned slice.
func (c *CovariantEntry) Members() []string {
	return c.members.items()
}

// Add adds a member base name to the directory's member set. It returns
// true if the member set actually grew (the name was not already present).
func (c *CovariantEntry) Add(member string) bool {
	return c.members.add(member)
}

// Remove removes a member base name from the directory's member set. It
// returns true if the member was present and removed.
func (c *CovariantEntry) Remove(member string) bool {
	return c.members.remove(member)
}

// clone returns a defensive copy of c: a new [CovariantEntry] with the same
// variant pointers (archive entries are shared with the driver's container
// by design) and an independently mutable member set.
func (c *CovariantEntry) clone() *CovariantEntry {
	cp := newCovariantEntry(c.path)
	cp.variants = c.variants
	cp.members = c.members.clone()

	return cp
}

// orderedSet is a minimal insertion-ordered string set.
type orderedSet struct {
	order []string
	index map[string]int
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]int)}
}

func (s *orderedSet) add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.order)
	s.order = append(s.order, v)

	return true
}

func (s *orderedSet) remove(v string) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	delete(s.index, v)
	s.order = append(s.order[:i], s.order[i+1:]...)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}

	return true
}

func (s *orderedSet) items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

func (s *orderedSet) clone() *orderedSet {
	cp := newOrderedSet()
	for _, v := range s.order {
		cp.add(v)
	}

	return cp
}

func (s *orderedSet) empty() bool {
	return len(s.order) == 0
}

func (s *orderedSet) size() int {
	return len(s.order)
}
