package backupdir

import (
	"os"
	"path/filepath"
	"testing"

	"dbexport/internal/export"
)

const rootManifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<collection xmlns="http://exist.sourceforge.net/NS/exist" name="/db" version="1" owner="SYSTEM" group="dba" mode="755">
<subcollection name="/db/foo" filename="%2Fdb%2Ffoo"/>
<resource type="XMLResource" name="hello.xml" skip="no" owner="SYSTEM" group="dba" mode="644" created="2026-08-01T00:00:00.000Z" modified="2026-08-01T00:00:00.000Z" filename="hello.xml" mimetype="text/xml"/>
</collection>`

const childManifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<collection xmlns="http://exist.sourceforge.net/NS/exist" name="/db/foo" version="1" owner="SYSTEM" group="dba" mode="755">
<resource type="BinaryResource" name="data.bin" skip="no" owner="SYSTEM" group="dba" mode="644" created="2026-08-01T00:00:00.000Z" modified="2026-08-01T00:00:00.000Z" filename="data.bin" mimetype="application/octet-stream"/>
</collection>`

func writeFilesystemFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, export.ContentsFilename), []byte(rootManifestXML), 0644); err != nil {
		t.Fatalf("writing root manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "backup.properties"), []byte("date=2026-08-01T09:00:00.000Z\nincremental=no\nnr-in-sequence=1\n"), 0644); err != nil {
		t.Fatalf("writing properties: %v", err)
	}

	childDir := filepath.Join(root, export.SafeEncode("/db/foo"))
	if err := os.MkdirAll(childDir, 0755); err != nil {
		t.Fatalf("creating child dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(childDir, export.ContentsFilename), []byte(childManifestXML), 0644); err != nil {
		t.Fatalf("writing child manifest: %v", err)
	}

	return root
}

func TestDescriptor_Properties(t *testing.T) {
	root := writeFilesystemFixture(t)
	d := NewDescriptor(root)

	props, err := d.Properties()
	if err != nil {
		t.Fatalf("Properties() error = %v", err)
	}
	if props["incremental"] != "no" {
		t.Errorf("Properties()[incremental] = %q, want %q", props["incremental"], "no")
	}
	if d.SequenceNr() != 1 {
		t.Errorf("SequenceNr() = %d, want 1", d.SequenceNr())
	}
}

func TestDescriptor_Date(t *testing.T) {
	root := writeFilesystemFixture(t)
	d := NewDescriptor(root)

	date, err := d.Date()
	if err != nil {
		t.Fatalf("Date() error = %v", err)
	}
	if date.IsZero() {
		t.Error("Date() returned zero time, want parsed date")
	}
	if date.Year() != 2026 || date.Month() != 8 || date.Day() != 1 {
		t.Errorf("Date() = %v, want 2026-08-01", date)
	}
}

func TestDescriptor_Entries(t *testing.T) {
	root := writeFilesystemFixture(t)
	d := NewDescriptor(root)

	entries := d.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries() returned %d entries, want 2", len(entries))
	}

	var sawCollection, sawResource bool
	for _, e := range entries {
		switch {
		case e.Kind == export.PriorCollection && e.Name == "/db/foo":
			sawCollection = true
		case e.Kind == export.PriorResource && e.Name == "hello.xml":
			sawResource = true
		}
	}
	if !sawCollection {
		t.Error("Entries() missing the /db/foo subcollection entry")
	}
	if !sawResource {
		t.Error("Entries() missing the hello.xml resource entry")
	}
}

func TestDescriptor_Child(t *testing.T) {
	root := writeFilesystemFixture(t)
	d := NewDescriptor(root)

	child := d.Child("/db/foo")
	if child == nil {
		t.Fatal("Child(\"/db/foo\") returned nil, want the parsed manifest")
	}
	entries := child.Entries()
	if len(entries) != 1 || entries[0].Name != "data.bin" {
		t.Errorf("Child(\"/db/foo\").Entries() = %v, want [data.bin]", entries)
	}
}

func TestDescriptor_Child_Missing(t *testing.T) {
	root := writeFilesystemFixture(t)
	d := NewDescriptor(root)

	if child := d.Child("/db/nonexistent"); child != nil {
		t.Errorf("Child() for an unknown collection = %v, want nil", child)
	}
}
