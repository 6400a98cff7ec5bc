// Package archive implements the uniform, scoped archive-writer interface
// the export engine streams collections and resources through, with
// interchangeable zip, filesystem-tree, and in-memory backends.
package archive

import "io"

// Sink is the uniform write interface for a backup archive. Every scope
// opened by NewCollection/NewContents/NewEntry is guaranteed closed by the
// corresponding Close call on every exit path, including failure — callers
// are expected to use defer for that, the same way every backend here
// guarantees it internally.
type Sink interface {
	// NewCollection opens a scope corresponding to one collection,
	// addressed by its path relative to the database root (already
	// safe-encoded). Resource and manifest writes that follow target this
	// collection until CloseCollection.
	NewCollection(relPath string) error
	CloseCollection() error

	// NewContents opens the manifest stream for the current collection.
	NewContents() (io.Writer, error)
	CloseContents() error

	// NewEntry opens one resource payload stream in the current
	// collection, addressed by its safe-encoded filename.
	NewEntry(filename string) (io.Writer, error)
	CloseEntry() error

	// SetProperties writes the root backup.properties sidecar once, as
	// key=value lines.
	SetProperties(props map[string]string) error

	// Close finalizes the archive. No further calls are valid afterward.
	Close() error
}
