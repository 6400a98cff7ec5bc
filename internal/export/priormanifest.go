package export

// PriorManifest is the scanner's read-only view into a previously written
// backup archive's parsed __contents__.xml tree. It is implemented by the
// package that knows how to locate and parse archives on disk; this
// package only ever reads through the interface, so it can run an
// incremental export without importing anything about zip or filesystem
// layout. The predecessor archive's backup date, used for the
// needs-backup comparison in DocumentExporter, is a single value shared
// by every collection in the run and threaded separately (it is a
// property of the archive, not of any one collection's manifest).
type PriorManifest interface {
	// Child returns the PriorManifest for the subcollection named by the
	// full child URI, or nil if the predecessor archive never recorded it.
	Child(uri string) PriorManifest

	// Entries lists every subcollection/resource name this collection's
	// prior manifest recorded, used to detect deletions.
	Entries() []PriorEntry
}

// PriorEntry is one subcollection or resource name found in a predecessor
// manifest.
type PriorEntry struct {
	Name string
	Kind PriorEntryKind
}

// PriorEntryKind discriminates a PriorEntry.
type PriorEntryKind int

const (
	PriorResource PriorEntryKind = iota
	PriorCollection
)
