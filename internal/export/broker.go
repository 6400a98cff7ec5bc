// Package export implements the failsafe system export engine: a
// traversal of a database's collection and document indices that
// reconstructs a logical tree of collections and resources and emits a
// restorable backup archive, tolerating partial corruption along the way.
package export

import "io"

// StorageBroker is the external collaborator that owns raw index and blob
// access. The export engine never mutates anything through this interface;
// it only reads. Implementations are expected to come from the embedding
// database — this package treats storage internals as opaque.
type StorageBroker interface {
	// ScanCollectionsFailsafe invokes visit once per raw key found in the
	// collection index, in B-tree scan order. The visitor receives the
	// undecoded key bytes and a stream handle positioned at the start of
	// the serialized collection record; it returns false to stop the scan
	// early (cooperative cancellation), or an error if the caller's own
	// processing of this key failed — a returned error never aborts the
	// whole scan, it is reported and the scan continues with the next key.
	ScanCollectionsFailsafe(visit CollectionVisitor) error

	// ScanDocumentsFailsafe invokes visit once per raw key found in the
	// document index. directAccess requests the broker bypass any caches.
	ScanDocumentsFailsafe(visit DocumentVisitor, directAccess bool) error

	// DecodeCollection parses the collection record located by pointer
	// (as handed to a CollectionVisitor) into a Collection value.
	DecodeCollection(pointer RecordPointer) (*Collection, error)

	// DecodeDocument parses the document record located by pointer (as
	// handed to a DocumentVisitor) into a Document value. isBinary comes
	// from the type byte the scanner read out of the raw key.
	DecodeDocument(pointer RecordPointer, isBinary bool) (*Document, error)

	// ReadBinaryResource copies the blob bytes of doc to w.
	ReadBinaryResource(doc *Document, w io.Writer) error

	// XMLStreamReader returns a forward-only pull reader over the node
	// subtree rooted at the given top-level child index (0-based) of doc's
	// document node. The engine always calls this with recursive=false —
	// the reader still yields every descendant event, the flag only tells
	// the broker whether the caller wants nested element subtrees expanded
	// by the reader itself or is prepared to walk START_ELEMENT/END_ELEMENT
	// pairs unassisted; this engine does the latter.
	XMLStreamReader(doc *Document, childIndex int, recursive bool) (NodeStreamReader, error)
}

// CollectionVisitor is invoked once per raw collection-index key. key is
// the undecoded key as stored in the B-tree; decoding (collection URI,
// reserved-key filtering) is the scanner's job, not the broker's, since a
// corrupt key must never take down the broker's own iteration. pointer is
// an opaque record locator. Returning (false, nil) stops the scan early
// without reporting an error. Returning a non-nil error reports a per-key
// failure and continues the scan.
type CollectionVisitor func(key []byte, pointer RecordPointer) (cont bool, err error)

// DocumentVisitor is invoked once per raw document-index key.
type DocumentVisitor func(key []byte, pointer RecordPointer) (cont bool, err error)

// RecordPointer is an opaque locator a StorageBroker hands back to its own
// record-decoding helpers. The export engine never interprets it, except
// to pass it to DecodeCollection / DecodeDocument below.
type RecordPointer interface{}

// NodeStreamReader is a forward-only pull reader over one node subtree,
// mirroring the broker's native XML stream reader. Next advances to the
// next event and returns io.EOF once the subtree is exhausted.
type NodeStreamReader interface {
	Next() (StreamEvent, error)
	Close() error
}

// StreamEventKind discriminates the pulled event.
type StreamEventKind int

const (
	StartElement StreamEventKind = iota
	EndElement
	Characters
	CData
	Comment
	ProcessingInstruction
)

// StreamEvent is one pulled node event. Only the fields relevant to Kind
// are populated.
type StreamEvent struct {
	Kind StreamEventKind

	// StartElement / EndElement
	Name       QName
	Attrs      []Attr
	NewPrefixes []PrefixMapping // prefixes newly declared at this element

	// Characters / CData / Comment
	Text string

	// ProcessingInstruction
	PITarget string
	PIData   string
}

// QName is a namespace-qualified name.
type QName struct {
	Local  string
	URI    string
	Prefix string
}

// Attr is one element attribute.
type Attr struct {
	Name  QName
	Value string
}

// PrefixMapping is one namespace prefix declaration.
type PrefixMapping struct {
	Prefix string
	URI    string
}
