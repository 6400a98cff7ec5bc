package export

import "time"

// ResourceType discriminates the two document payload kinds the engine
// understands. The source database uses subclass dispatch for this; here
// it's a plain tagged field, set once by the broker's decoder from a type
// byte read out of the raw index key.
type ResourceType int

const (
	XMLResource ResourceType = iota
	BinaryResource
)

func (t ResourceType) String() string {
	if t == BinaryResource {
		return "BinaryResource"
	}
	return "XMLResource"
}

// Permissions mirrors the owner/group/mode triple every collection and
// document carries.
type Permissions struct {
	Owner string
	Group string
	Mode  uint32 // unix permission bits, rendered as octal in manifests
}

// DocType holds the optional DOCTYPE triple of an XML document.
type DocType struct {
	Name     string
	PublicID string
	SystemID string
}

// HasName reports whether any DOCTYPE field was set. A DocType read from a
// document with no declared DOCTYPE is the zero value.
func (d DocType) HasName() bool {
	return d.Name != "" || d.PublicID != "" || d.SystemID != ""
}

// Collection is a read-only view of one collection as decoded from the
// collection index. A collection record embeds the metadata of every
// document it directly contains (the same way the reference database's
// collection storage format does), so no further broker round-trip is
// needed to enumerate them. ChildURIs and Documents are ordered exactly as
// the broker's no-lock iterators produced them — the exporter must
// preserve that order in the manifest.
type Collection struct {
	ID          int64
	URI         string
	Permissions Permissions
	Created     time.Time
	ChildURIs   []string
	Documents   []*Document
}

// Document is a read-only view of one document as decoded from the
// document index. For XML documents, ChildCount is the number of
// top-level children of the document node, each streamed independently by
// XMLStreamRenderer; for binary documents it is always 0.
type Document struct {
	DocID       int64
	FileURI     string
	Type        ResourceType
	Permissions Permissions
	Created     time.Time
	Modified    time.Time
	MimeType    string
	DocType     DocType
	ChildCount  int
}
