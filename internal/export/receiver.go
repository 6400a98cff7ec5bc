package export

// Receiver is the SAX-style sink XMLStreamRenderer emits events to, and
// the same interface the manifest writer (§3 collection manifest) drives
// directly. Event order/pairing matches classic SAX: StartPrefixMapping
// calls for an element precede its StartElement; EndElement precedes the
// matching EndPrefixMapping calls, in reverse declaration order.
type Receiver interface {
	StartDocument() error
	EndDocument() error

	StartPrefixMapping(prefix, uri string) error
	EndPrefixMapping(prefix string) error

	StartElement(name QName, attrs []Attr) error
	EndElement(name QName) error

	Characters(text string) error
	CDataSection(text string) error
	Comment(text string) error
	ProcessingInstruction(target, data string) error
}
