package export

import "io"

// RenderDocument streams doc's full node tree to receiver as a sequence
// of SAX-style events, one top-level child at a time. It never
// materializes a whole document in memory: each child is pulled one event
// at a time from the broker's NodeStreamReader.
//
// START_DOCUMENT/END_DOCUMENT events from the underlying reader are
// suppressed — the caller frames the document (DocumentExporter wraps
// this in its own StartDocument/EndDocument pair around the raw content).
func RenderDocument(broker StorageBroker, doc *Document, receiver Receiver) error {
	for i := 0; i < doc.ChildCount; i++ {
		if err := renderChild(broker, doc, i, receiver); err != nil {
			return err
		}
	}
	return nil
}

func renderChild(broker StorageBroker, doc *Document, childIndex int, receiver Receiver) error {
	reader, err := broker.XMLStreamReader(doc, childIndex, false)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		ev, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		single, err := renderEvent(ev, receiver)
		if err != nil {
			return err
		}
		// A top-level comment or processing instruction is a single-event
		// stream by construction — stop after emitting it.
		if single {
			return nil
		}
	}
}

// renderEvent emits one pulled event to receiver and reports whether the
// stream for this child is now exhausted (true for a bare comment or PI
// top-level node).
func renderEvent(ev StreamEvent, receiver Receiver) (bool, error) {
	switch ev.Kind {
	case StartElement:
		for _, pm := range ev.NewPrefixes {
			if err := receiver.StartPrefixMapping(pm.Prefix, pm.URI); err != nil {
				return false, err
			}
		}
		if err := receiver.StartElement(ev.Name, ev.Attrs); err != nil {
			return false, err
		}
		return false, nil

	case EndElement:
		if err := receiver.EndElement(ev.Name); err != nil {
			return false, err
		}
		// Paired in reverse order with the StartPrefixMapping calls
		// emitted for this same element.
		for i := len(ev.NewPrefixes) - 1; i >= 0; i-- {
			if err := receiver.EndPrefixMapping(ev.NewPrefixes[i].Prefix); err != nil {
				return false, err
			}
		}
		return false, nil

	case Characters:
		return false, receiver.Characters(ev.Text)

	case CData:
		return false, receiver.CDataSection(ev.Text)

	case Comment:
		return true, receiver.Comment(ev.Text)

	case ProcessingInstruction:
		return true, receiver.ProcessingInstruction(ev.PITarget, ev.PIData)

	default:
		return false, nil
	}
}
