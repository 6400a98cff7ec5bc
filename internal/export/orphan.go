package export

import (
	"fmt"
	"time"
)

// OrphanScanner scans the document index for documents the collection
// pass never reached — because their parent collection was destroyed,
// damaged, or itself orphaned — and rescues them into a synthetic
// /db/__lost_and_found__ collection.
type OrphanScanner struct {
	broker       StorageBroker
	sink         Sink
	status       StatusCallback
	directAccess bool
}

// NewOrphanScanner creates a scanner. directAccess is forwarded to the
// broker's document scan to request it bypass any caches, matching the
// reference tool's own orphan-rescue pass.
func NewOrphanScanner(broker StorageBroker, sink Sink, status StatusCallback, directAccess bool) *OrphanScanner {
	if status == nil {
		status = NopStatusCallback{}
	}
	return &OrphanScanner{broker: broker, sink: sink, status: status, directAccess: directAccess}
}

// Scan runs the orphan pass. exported is the DocumentSet the collection
// pass populated; any docId already in it is skipped.
func (s *OrphanScanner) Scan(exported *DocumentSet) error {
	if err := s.sink.NewCollection(SafeEncode(LostAndFoundURI)); err != nil {
		return fmt.Errorf("opening lost-and-found scope: %w", err)
	}
	defer s.sink.CloseCollection()

	w, err := s.sink.NewContents()
	if err != nil {
		return fmt.Errorf("opening lost-and-found manifest: %w", err)
	}
	defer s.sink.CloseContents()

	manifest := NewXMLSerializer(w, true)
	if err := manifest.StartDocument(); err != nil {
		return err
	}
	if err := manifest.StartPrefixMapping("", existNamespace); err != nil {
		return err
	}
	if err := manifest.StartElement(collectionQName, []Attr{
		qattr("name", LostAndFoundURI),
		qattr("version", fmt.Sprintf("%d", manifestVersion)),
		qattr("owner", "DBA"),
		qattr("group", "DBA"),
		qattr("mode", "0771"),
	}); err != nil {
		return err
	}

	written := make(map[string]bool)

	scanErr := s.broker.ScanDocumentsFailsafe(func(key []byte, pointer RecordPointer) (bool, error) {
		docID, isBinary := decodeDocumentKey(key)
		if exported.Contains(docID) {
			return true, nil
		}

		doc, err := s.broker.DecodeDocument(pointer, isBinary)
		if err != nil {
			s.status.Error("Caught an exception while scanning documents: "+err.Error(), err)
			return true, nil
		}

		s.status.Error("Found an orphaned document: "+doc.FileURI, nil)
		doc.FileURI = disambiguate(doc.FileURI, written)
		written[doc.FileURI] = true

		docExporter := NewDocumentExporter(s.broker, s.sink, s.status)
		if err := docExporter.Export(manifest, doc, time.Time{}); err != nil {
			if err == ErrTerminated {
				return false, err
			}
			s.status.Error("Caught an exception while scanning documents: "+err.Error(), err)
		}
		return true, nil
	}, s.directAccess)
	if scanErr != nil && scanErr != ErrTerminated {
		return scanErr
	}

	if err := manifest.EndElement(collectionQName); err != nil {
		return err
	}
	if err := manifest.EndPrefixMapping(""); err != nil {
		return err
	}
	return manifest.EndDocument()
}

// documentKeyOffset is the fixed byte offset into a raw document-index key
// at which the numeric document id begins; documentTypeOffset is the byte
// immediately after it, holding the binary-vs-xml discriminator.
const (
	documentKeyOffset  = 4
	documentTypeOffset = documentKeyOffset + 8
	binaryTypeByte     = 1
)

func decodeDocumentKey(key []byte) (docID int64, isBinary bool) {
	if len(key) < documentTypeOffset+1 {
		return 0, false
	}
	for i := 0; i < 8; i++ {
		docID = docID<<8 | int64(key[documentKeyOffset+i])
	}
	isBinary = key[documentTypeOffset] == binaryTypeByte
	return docID, isBinary
}

// disambiguate returns fileURI unchanged if unused in written, otherwise
// appends ".1", ".2", ... until it finds a name not yet claimed within
// this lost-and-found collection.
func disambiguate(fileURI string, written map[string]bool) string {
	if !written[fileURI] {
		return fileURI
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", fileURI, n)
		if !written[candidate] {
			return candidate
		}
	}
}
