package export

import "io"

// Sink is the scoped archive-writer interface the exporter streams
// collections, manifests, and resources through. It is declared here
// rather than imported from the archive package so this package stays
// free of any concrete archive format — the caller wires in whichever
// archive.Sink implementation it likes; Go's structural typing does the
// rest, the same way StorageBroker and PriorManifest keep this package
// decoupled from its other two collaborators.
type Sink interface {
	NewCollection(relPath string) error
	CloseCollection() error

	NewContents() (io.Writer, error)
	CloseContents() error

	NewEntry(filename string) (io.Writer, error)
	CloseEntry() error

	SetProperties(props map[string]string) error

	Close() error
}
