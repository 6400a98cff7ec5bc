// Package fsbroker is a reference export.StorageBroker that treats a
// plain directory tree as the "database": every subdirectory becomes a
// collection, every regular file becomes a binary resource. It exists so
// the CLI has something real to export against without requiring an
// actual eXist-db-style engine to be running — production embedders are
// expected to supply their own broker backed by their real storage
// layer, the way the reference tool's SystemExport is handed one by the
// database kernel it runs inside.
package fsbroker

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dbexport/internal/export"
	"dbexport/internal/fs"
)

// Broker walks root once per Scan call and serves collections/documents
// out of that snapshot. A plain filesystem tree has no separate orphan
// index distinct from the directory tree itself, so Broker never reports
// orphans: every regular file is reachable from some directory, by
// construction.
//
// Broker is not safe for concurrent exports: paths records, for the
// lifetime of one scan, which real filesystem path each *Document came
// from (the Document itself only carries the bare filename the manifest
// needs), and is replaced wholesale on the next ScanCollectionsFailsafe.
type Broker struct {
	root   string
	paths  map[*export.Document]string
	ignore *fs.IgnoreMatcher
}

// NewBroker creates a Broker rooted at root, which must be a directory. If
// root contains a .dbexportignore file, patterns read from it exclude
// matching files and directories from every subsequent scan, the same
// gitignore-style convention the reference tool applies when walking a
// source tree.
func NewBroker(root string) *Broker {
	patterns, _ := fs.ParseIgnoreFile(filepath.Join(root, ".dbexportignore"))
	return &Broker{root: root, ignore: fs.NewIgnoreMatcher(patterns)}
}

func (b *Broker) collectionURI(dir string) string {
	rel, err := filepath.Rel(b.root, dir)
	if err != nil || rel == "." {
		return export.RootCollectionURI
	}
	return export.RootCollectionURI + "/" + filepath.ToSlash(rel)
}

// snapshot walks the tree and builds one Collection per directory, with
// its immediate documents and child URIs populated, matching the
// in-memory shape the reference database's own collection records carry
// (no further broker round-trip needed to enumerate a collection's
// contents).
func (b *Broker) snapshot() ([]*export.Collection, error) {
	byDir := make(map[string]*export.Collection)
	paths := make(map[*export.Document]string)
	var order []string

	err := filepath.WalkDir(b.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // failsafe: skip unreadable entries, never abort the walk
		}
		if rel, relErr := filepath.Rel(b.root, path); relErr == nil && rel != "." && b.ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			uri := b.collectionURI(path)
			info, statErr := d.Info()
			var created time.Time
			if statErr == nil {
				created = info.ModTime()
			}
			byDir[path] = &export.Collection{
				URI:         uri,
				Permissions: export.Permissions{Owner: "SYSTEM", Group: "dba", Mode: 0755},
				Created:     created,
			}
			order = append(order, path)
			return nil
		}

		parent := filepath.Dir(path)
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		doc := &export.Document{
			DocID:       fileDocID(path),
			FileURI:     d.Name(),
			Type:        export.BinaryResource,
			Permissions: export.Permissions{Owner: "SYSTEM", Group: "dba", Mode: 0644},
			Created:     info.ModTime(),
			Modified:    info.ModTime(),
			MimeType:    mimeTypeFor(d.Name()),
		}
		if c, ok := byDir[parent]; ok {
			c.Documents = append(c.Documents, doc)
			paths[doc] = path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", b.root, err)
	}
	b.paths = paths

	for _, dir := range order {
		c := byDir[dir]
		childEntries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range childEntries {
			if e.IsDir() {
				childPath := filepath.Join(dir, e.Name())
				if _, seen := byDir[childPath]; !seen {
					continue // excluded by .dbexportignore
				}
				c.ChildURIs = append(c.ChildURIs, b.collectionURI(childPath))
			}
		}
		sort.Strings(c.ChildURIs)
	}

	collections := make([]*export.Collection, 0, len(order))
	for _, dir := range order {
		collections = append(collections, byDir[dir])
	}
	return collections, nil
}

// fileDocID derives a stable id for path by hashing it; the reference
// database instead assigns sequential ids at document-creation time, but
// this broker has no persistent id allocator of its own to consult.
func fileDocID(path string) int64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(path); i++ {
		h ^= uint64(path[i])
		h *= 1099511628211
	}
	return int64(h >> 1)
}

func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			return t[:i]
		}
		return t
	}
	return "application/octet-stream"
}

// collectionKeyHeader is a placeholder for the fixed-width collection-ID
// header the real database's B-tree keys carry before the URI bytes
// (export.decodeCollectionURI strips exactly this many bytes); a plain
// directory tree has no collection ID of its own to put there.
const collectionKeyHeader = 4

func (b *Broker) ScanCollectionsFailsafe(visit export.CollectionVisitor) error {
	collections, err := b.snapshot()
	if err != nil {
		return err
	}
	for i, c := range collections {
		key := make([]byte, collectionKeyHeader+len(c.URI))
		copy(key[collectionKeyHeader:], c.URI)
		cont, err := visit(key, &collectionPointer{collections: collections, index: i})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// ScanDocumentsFailsafe never yields anything: a plain filesystem has no
// document index separate from the directory tree the collection scan
// already walked, so there is nothing left over for the orphan pass to
// find.
func (b *Broker) ScanDocumentsFailsafe(visit export.DocumentVisitor, directAccess bool) error {
	return nil
}

type collectionPointer struct {
	collections []*export.Collection
	index       int
}

func (b *Broker) DecodeCollection(pointer export.RecordPointer) (*export.Collection, error) {
	p, ok := pointer.(*collectionPointer)
	if !ok {
		return nil, fmt.Errorf("fsbroker: unexpected pointer type %T", pointer)
	}
	return p.collections[p.index], nil
}

func (b *Broker) DecodeDocument(pointer export.RecordPointer, isBinary bool) (*export.Document, error) {
	return nil, fmt.Errorf("fsbroker: no document index to decode from")
}

// ReadBinaryResource copies the file's bytes to w. doc.FileURI only holds
// the base filename, so the collection it belongs to isn't recoverable
// from doc alone; Broker instead resolves the original path it recorded
// during the snapshot walk.
func (b *Broker) ReadBinaryResource(doc *export.Document, w io.Writer) error {
	path, ok := b.paths[doc]
	if !ok {
		return fmt.Errorf("fsbroker: no source path recorded for %s", doc.FileURI)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func (b *Broker) XMLStreamReader(doc *export.Document, childIndex int, recursive bool) (export.NodeStreamReader, error) {
	return nil, fmt.Errorf("fsbroker: XML resources are not supported, every document is a binary resource")
}

var _ export.StorageBroker = (*Broker)(nil)
