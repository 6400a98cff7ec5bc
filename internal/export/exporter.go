package export

import (
	"fmt"
	"time"
)

// CollectionExporter writes one collection's manifest and its resources.
type CollectionExporter struct {
	broker StorageBroker
	sink   Sink
	status StatusCallback
	errors ErrorList
}

// NewCollectionExporter creates an exporter for one collection. A fresh
// instance is cheap; CollectionScanner creates one per collection.
func NewCollectionExporter(broker StorageBroker, sink Sink, status StatusCallback, errors ErrorList) *CollectionExporter {
	if status == nil {
		status = NopStatusCallback{}
	}
	return &CollectionExporter{broker: broker, sink: sink, status: status, errors: errors}
}

// Export writes collection's manifest, its documents and child
// subcollection entries, and any <deleted> markers implied by prev. docs
// accumulates the ids of every document written, so the orphan pass later
// knows what to skip. Per-document failures are reported by
// DocumentExporter and do not stop the collection. ErrTerminated aborts
// immediately; any other error is returned, and CollectionScanner reports
// it to status and moves on to the next collection.
func (e *CollectionExporter) Export(collection *Collection, prev PriorManifest, prevDate time.Time, docs *DocumentSet) error {
	isRoot := collection.URI == RootCollectionURI
	if !isRoot {
		if err := e.sink.NewCollection(SafeEncode(collection.URI)); err != nil {
			return fmt.Errorf("opening collection scope %s: %w", collection.URI, err)
		}
	}
	defer func() {
		if !isRoot {
			e.sink.CloseCollection()
		}
	}()

	w, err := e.sink.NewContents()
	if err != nil {
		return fmt.Errorf("opening manifest for %s: %w", collection.URI, err)
	}
	defer e.sink.CloseContents()

	manifest := NewXMLSerializer(w, true)
	if err := e.writeManifest(manifest, collection, prev, prevDate, docs); err != nil {
		return err
	}
	return nil
}

func (e *CollectionExporter) writeManifest(manifest Receiver, collection *Collection, prev PriorManifest, predecessorDate time.Time, docs *DocumentSet) error {
	if err := manifest.StartDocument(); err != nil {
		return err
	}
	if err := manifest.StartPrefixMapping("", existNamespace); err != nil {
		return err
	}

	attrs := []Attr{
		qattr("name", collection.URI),
		qattr("version", fmt.Sprintf("%d", manifestVersion)),
		qattr("owner", collection.Permissions.Owner),
		qattr("group", collection.Permissions.Group),
		qattr("mode", fmt.Sprintf("%o", collection.Permissions.Mode)),
		qattr("created", formatTimestamp(collection.Created)),
	}
	if err := manifest.StartElement(collectionQName, attrs); err != nil {
		return err
	}

	present := make(map[string]bool, len(collection.Documents)+len(collection.ChildURIs))

	for _, doc := range collection.Documents {
		if doc.FileURI == contentsFilename || doc.FileURI == lostAndFoundEntryName {
			continue
		}
		if e.errors.isDocumentDamaged(doc.DocID) {
			e.status.Error("Skipping damaged document "+doc.FileURI, nil)
			continue
		}
		present[doc.FileURI] = true

		docExporter := NewDocumentExporter(e.broker, e.sink, e.status)
		err := docExporter.Export(manifest, doc, predecessorDate)
		if err == ErrTerminated {
			return err
		}
		// A per-document write failure is reported inside Export itself;
		// the document is still counted as handled so the orphan pass
		// doesn't try to rescue it a second time.
		docs.Add(doc.DocID)
	}

	for _, childURI := range collection.ChildURIs {
		if childURI == tempCollectionURI {
			continue
		}
		if e.errors.isChildDamaged(childURI) {
			e.status.Error("Skipping damaged child collection "+childURI, nil)
			continue
		}
		present[childURI] = true

		if err := manifest.StartElement(subcollectionQName, []Attr{
			qattr("name", childURI),
			qattr("filename", SafeEncode(childURI)),
		}); err != nil {
			return err
		}
		if err := manifest.EndElement(subcollectionQName); err != nil {
			return err
		}
	}

	if prev != nil {
		for _, entry := range prev.Entries() {
			if present[entry.Name] {
				continue
			}
			kind := "resource"
			if entry.Kind == PriorCollection {
				kind = "collection"
			}
			if err := manifest.StartElement(deletedQName, []Attr{
				qattr("name", entry.Name),
				qattr("type", kind),
			}); err != nil {
				return err
			}
			if err := manifest.EndElement(deletedQName); err != nil {
				return err
			}
		}
	}

	if err := manifest.EndElement(collectionQName); err != nil {
		return err
	}
	if err := manifest.EndPrefixMapping(""); err != nil {
		return err
	}
	return manifest.EndDocument()
}
