package export

import (
	"fmt"
	"time"
)

// DocumentExporter writes one document's payload entry and its manifest
// <resource> record.
type DocumentExporter struct {
	broker StorageBroker
	sink   Sink
	status StatusCallback
}

// NewDocumentExporter creates an exporter bound to broker and sink.
func NewDocumentExporter(broker StorageBroker, sink Sink, status StatusCallback) *DocumentExporter {
	if status == nil {
		status = NopStatusCallback{}
	}
	return &DocumentExporter{broker: broker, sink: sink, status: status}
}

// Export streams doc's payload (unless the incremental rule says to skip
// it) and always emits its <resource> manifest entry. predecessorDate is
// the zero time for a full backup.
func (e *DocumentExporter) Export(manifest Receiver, doc *Document, predecessorDate time.Time) error {
	e.status.StartDocument(doc.FileURI, 0, 0)

	needsBackup := predecessorDate.IsZero() || predecessorDate.Before(doc.Modified)

	if needsBackup {
		if err := e.writePayload(doc); err != nil {
			e.status.Error(fmt.Sprintf("A write error occurred while exporting document: '%s'. Continuing with next document.", doc.FileURI), err)
			return e.writeManifestEntry(manifest, doc, false)
		}
	}

	return e.writeManifestEntry(manifest, doc, needsBackup)
}

func (e *DocumentExporter) writePayload(doc *Document) error {
	w, err := e.sink.NewEntry(SafeEncode(doc.FileURI))
	if err != nil {
		return fmt.Errorf("opening entry for %s: %w", doc.FileURI, err)
	}
	defer e.sink.CloseEntry()

	if doc.Type == BinaryResource {
		return e.broker.ReadBinaryResource(doc, w)
	}

	serializer := NewXMLSerializer(w, false)
	if err := serializer.StartDocument(); err != nil {
		return err
	}
	if err := RenderDocument(e.broker, doc, serializer); err != nil {
		return err
	}
	return serializer.EndDocument()
}

func (e *DocumentExporter) writeManifestEntry(manifest Receiver, doc *Document, wasWritten bool) error {
	skip := "yes"
	if wasWritten {
		skip = "no"
	}

	created := doc.Created
	modified := doc.Modified
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if modified.IsZero() {
		modified = created
	}

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "text/xml"
	}

	attrs := []Attr{
		qattr("type", doc.Type.String()),
		qattr("name", doc.FileURI),
		qattr("skip", skip),
		qattr("owner", doc.Permissions.Owner),
		qattr("group", doc.Permissions.Group),
		qattr("mode", fmt.Sprintf("%o", doc.Permissions.Mode)),
		qattr("created", formatTimestamp(created)),
		qattr("modified", formatTimestamp(modified)),
		qattr("filename", SafeEncode(doc.FileURI)),
		qattr("mimetype", mimeType),
	}
	if doc.Type == XMLResource && doc.DocType.HasName() {
		if doc.DocType.Name != "" {
			attrs = append(attrs, qattr("namedoctype", doc.DocType.Name))
		}
		if doc.DocType.PublicID != "" {
			attrs = append(attrs, qattr("publicid", doc.DocType.PublicID))
		}
		if doc.DocType.SystemID != "" {
			attrs = append(attrs, qattr("systemid", doc.DocType.SystemID))
		}
	}

	if err := manifest.StartElement(resourceQName, attrs); err != nil {
		return err
	}
	return manifest.EndElement(resourceQName)
}
