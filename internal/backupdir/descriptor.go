package backupdir

import (
	"archive/zip"
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dbexport/internal/export"
)

// rootPrefix is the top-level segment every zip entry is nested under,
// matching the default the export engine's ArchiveSink config uses.
const rootPrefix = "db"

// Descriptor is a read-only handle onto a previously written backup
// archive, usable both for bookkeeping (name, date, sequence number) and,
// via PriorManifest, for the incremental scanner's deleted-entry
// comparisons (the needs-backup comparison uses Date, not PriorManifest).
type Descriptor struct {
	path string
	zip  bool

	props       map[string]string
	propsLoaded bool
}

// NewDescriptor wraps path (a backup.zip file or a backup directory tree)
// without touching disk yet.
func NewDescriptor(path string) *Descriptor {
	return &Descriptor{path: path, zip: strings.HasSuffix(path, ".zip")}
}

// Name returns the archive's base filename, e.g. "backup-20260803-0900.zip".
func (d *Descriptor) Name() string {
	return filepath.Base(d.path)
}

// SymbolicPath returns the full path this descriptor was opened with.
func (d *Descriptor) SymbolicPath() string {
	return d.path
}

// Properties returns the backup.properties sidecar, parsed into a flat
// key=value map. Returns an empty map, not an error, if the archive
// predates property tracking or the file is simply missing.
func (d *Descriptor) Properties() (map[string]string, error) {
	if d.propsLoaded {
		return d.props, nil
	}

	var r io.ReadCloser
	var err error
	if d.zip {
		r, err = d.openZipEntry("backup.properties")
	} else {
		r, err = os.Open(filepath.Join(d.path, "backup.properties"))
	}
	if err != nil {
		if os.IsNotExist(err) {
			d.props = map[string]string{}
			d.propsLoaded = true
			return d.props, nil
		}
		return nil, err
	}
	if r == nil {
		d.props = map[string]string{}
		d.propsLoaded = true
		return d.props, nil
	}
	defer r.Close()

	props, err := parseProperties(r)
	if err != nil {
		return nil, fmt.Errorf("parsing backup.properties for %s: %w", d.path, err)
	}
	d.props = props
	d.propsLoaded = true
	return d.props, nil
}

// Date returns this backup's recorded "date" property, parsed with the
// same layout the export engine's manifests use for timestamps.
func (d *Descriptor) Date() (time.Time, error) {
	props, err := d.Properties()
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := props["date"]
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(export.TimestampLayout, raw)
}

// SequenceNr returns the "nr-in-sequence" property, defaulting to 1 when
// absent or malformed — the caller is expected to log a warning on the
// malformed case, matching the reference tool's own tolerant fallback.
func (d *Descriptor) SequenceNr() int {
	props, err := d.Properties()
	if err != nil {
		return 1
	}
	var n int
	if _, err := fmt.Sscanf(props["nr-in-sequence"], "%d", &n); err != nil || n <= 0 {
		return 1
	}
	return n
}

// Entries implements export.PriorManifest for the archive's root
// collection manifest.
func (d *Descriptor) Entries() []export.PriorEntry {
	node, err := d.loadManifest(export.ContentsFilename)
	if err != nil || node == nil {
		return nil
	}
	return node.entries
}

// Child implements export.PriorManifest: it looks up the subcollection
// manifest for uri directly, by the same flat safe-encoded path the
// exporter wrote it under.
func (d *Descriptor) Child(uri string) export.PriorManifest {
	entryPath := export.SafeEncode(uri) + "/" + export.ContentsFilename
	node, err := d.loadManifest(entryPath)
	if err != nil || node == nil {
		return nil
	}
	return node
}

// manifestNode is a parsed collection manifest, usable as a PriorManifest
// in its own right for nested Child lookups.
type manifestNode struct {
	desc    *Descriptor
	entries []export.PriorEntry
}

func (n *manifestNode) Entries() []export.PriorEntry {
	return n.entries
}

func (n *manifestNode) Child(uri string) export.PriorManifest {
	return n.desc.Child(uri)
}

var _ export.PriorManifest = (*Descriptor)(nil)
var _ export.PriorManifest = (*manifestNode)(nil)

func (d *Descriptor) loadManifest(relEntryPath string) (*manifestNode, error) {
	var r io.ReadCloser
	var err error
	if d.zip {
		r, err = d.openZipEntry(rootPrefix + "/" + relEntryPath)
	} else {
		r, err = os.Open(filepath.Join(d.path, relEntryPath))
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	defer r.Close()

	var parsed collectionManifestXML
	if err := xml.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", relEntryPath, err)
	}

	entries := make([]export.PriorEntry, 0, len(parsed.Subcollections)+len(parsed.Resources))
	for _, sub := range parsed.Subcollections {
		entries = append(entries, export.PriorEntry{Name: sub.Name, Kind: export.PriorCollection})
	}
	for _, res := range parsed.Resources {
		entries = append(entries, export.PriorEntry{Name: res.Name, Kind: export.PriorResource})
	}
	return &manifestNode{desc: d, entries: entries}, nil
}

// openZipEntry returns a nil, nil result (not an error) when name isn't
// present in the archive — a predecessor archive is allowed to simply
// never have recorded a given collection.
func (d *Descriptor) openZipEntry(name string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(d.path)
	if err != nil {
		return nil, fmt.Errorf("opening zip archive %s: %w", d.path, err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				zr.Close()
				return nil, err
			}
			return &zipEntryReader{rc: rc, zr: zr}, nil
		}
	}
	zr.Close()
	return nil, nil
}

// zipEntryReader closes both the entry and the archive reader it came
// from, since archive/zip.OpenReader must stay open only as long as we're
// reading from one of its entries.
type zipEntryReader struct {
	rc io.ReadCloser
	zr *zip.ReadCloser
}

func (z *zipEntryReader) Read(p []byte) (int, error) { return z.rc.Read(p) }

func (z *zipEntryReader) Close() error {
	err := z.rc.Close()
	if cerr := z.zr.Close(); err == nil {
		err = cerr
	}
	return err
}

type collectionManifestXML struct {
	XMLName        xml.Name               `xml:"collection"`
	Subcollections []subcollectionXMLNode `xml:"subcollection"`
	Resources      []resourceXMLNode      `xml:"resource"`
}

type subcollectionXMLNode struct {
	Name string `xml:"name,attr"`
}

type resourceXMLNode struct {
	Name string `xml:"name,attr"`
}

// parseProperties reads key=value lines, mirroring writeProperties on the
// archive side.
func parseProperties(r io.Reader) (map[string]string, error) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		props[line[:idx]] = line[idx+1:]
	}
	return props, scanner.Err()
}
