package export

import "time"

// Reserved collection-index keys that never correspond to an actual
// collection record. The broker's key layout puts the decoded value right
// after a fixed header; these sentinel values live at the same offset a
// genuine collection URI would.
const (
	nextCollectionIDKey = "__next_collection_id__"
	nextDocIDKey        = "__next_doc_id__"
	freeCollectionIDKey = "__free_collection_id__"
	freeDocIDKey        = "__free_doc_id__"
)

// collectionKeyOffset is the fixed byte offset into a raw collection-index
// key at which the UTF-8 collection URI begins.
const collectionKeyOffset = 4

// CollectionScanner drives the failsafe traversal of the collection index
// and exports every collection it can read.
type CollectionScanner struct {
	broker   StorageBroker
	sink     Sink
	status   StatusCallback
	agent    ManagementAgent
	errors   ErrorList
	prevRoot PriorManifest // nil for a full backup
	prevDate time.Time     // predecessor archive's backup date, zero for a full backup

	counted         bool
	collectionCount int // cached denominator from the counting pass
	docs            *DocumentSet
}

// NewCollectionScanner creates a scanner for one export run. prevRoot and
// prevDate are both the zero value for a full (non-incremental) backup.
func NewCollectionScanner(broker StorageBroker, sink Sink, status StatusCallback, agent ManagementAgent, errors ErrorList, prevRoot PriorManifest, prevDate time.Time) *CollectionScanner {
	if status == nil {
		status = NopStatusCallback{}
	}
	return &CollectionScanner{
		broker:   broker,
		sink:     sink,
		status:   status,
		agent:    agent,
		errors:   errors,
		prevRoot: prevRoot,
		prevDate: prevDate,
		docs:     NewDocumentSet(),
	}
}

// Docs returns the set of document ids exported by the collection pass, so
// the orphan pass knows which documents to skip.
func (s *CollectionScanner) Docs() *DocumentSet {
	return s.docs
}

// Count runs a counting-only pass over the collection index and caches the
// result, matching the reference tool's two-pass denominator computation.
// Safe to call multiple times; only the first call actually scans.
func (s *CollectionScanner) Count() (int, error) {
	if s.counted {
		return s.collectionCount, nil
	}
	count := 0
	err := s.broker.ScanCollectionsFailsafe(func(key []byte, _ RecordPointer) (bool, error) {
		count++
		return true, nil
	})
	if err != nil && err != ErrTerminated {
		return 0, err
	}
	s.counted = true
	s.collectionCount = count
	return count, nil
}

// Scan runs the real, exporting pass over the collection index.
func (s *CollectionScanner) Scan() error {
	total, err := s.Count()
	if err != nil {
		return err
	}
	tracker := newPercentTracker(s.agent)

	seen := 0
	scanErr := s.broker.ScanCollectionsFailsafe(func(key []byte, pointer RecordPointer) (bool, error) {
		uri := decodeCollectionURI(key)
		if isReservedCollectionKey(uri) {
			return true, nil
		}

		seen++
		tracker.update(seen, total)

		collection, err := s.broker.DecodeCollection(pointer)
		if err != nil {
			s.status.Error("Caught exception while scanning collections: "+uri, err)
			return true, nil
		}

		if s.errors.isChildDamaged(collection.URI) {
			s.status.Error("Skipping damaged collection "+collection.URI, nil)
			return true, nil
		}

		s.status.StartCollection(collection.URI)

		var prevManifest PriorManifest
		if s.prevRoot != nil {
			if collection.URI == RootCollectionURI {
				prevManifest = s.prevRoot
			} else {
				prevManifest = s.prevRoot.Child(collection.URI)
			}
		}

		exporter := NewCollectionExporter(s.broker, s.sink, s.status, s.errors)
		if err := exporter.Export(collection, prevManifest, s.prevDate, s.docs); err != nil {
			if err == ErrTerminated {
				return false, err
			}
			s.status.Error("Caught exception while scanning collections: "+collection.URI, err)
		}
		return true, nil
	})
	if scanErr != nil && scanErr != ErrTerminated {
		return scanErr
	}
	return scanErr
}

func decodeCollectionURI(key []byte) string {
	if len(key) <= collectionKeyOffset {
		return ""
	}
	return string(key[collectionKeyOffset:])
}

func isReservedCollectionKey(uri string) bool {
	switch uri {
	case nextCollectionIDKey, nextDocIDKey, freeCollectionIDKey, freeDocIDKey:
		return true
	}
	return false
}
