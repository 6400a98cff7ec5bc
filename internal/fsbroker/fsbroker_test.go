package fsbroker

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"dbexport/internal/export"
)

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello world"), 0644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatalf("creating subdirectory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "data.bin"), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("writing nested fixture file: %v", err)
	}
	return root
}

func TestBroker_ScanCollectionsFailsafe(t *testing.T) {
	root := writeTree(t)
	b := NewBroker(root)

	var uris []string
	err := b.ScanCollectionsFailsafe(func(key []byte, pointer export.RecordPointer) (bool, error) {
		c, err := b.DecodeCollection(pointer)
		if err != nil {
			return false, err
		}
		uris = append(uris, c.URI)
		return true, nil
	})
	if err != nil {
		t.Fatalf("ScanCollectionsFailsafe() error = %v", err)
	}

	want := map[string]bool{export.RootCollectionURI: true, export.RootCollectionURI + "/sub": true}
	if len(uris) != len(want) {
		t.Fatalf("got %d collections, want %d: %v", len(uris), len(want), uris)
	}
	for _, u := range uris {
		if !want[u] {
			t.Errorf("unexpected collection URI %q", u)
		}
	}
}

func TestBroker_ReadBinaryResource(t *testing.T) {
	root := writeTree(t)
	b := NewBroker(root)

	var rootDoc *export.Document
	err := b.ScanCollectionsFailsafe(func(key []byte, pointer export.RecordPointer) (bool, error) {
		c, err := b.DecodeCollection(pointer)
		if err != nil {
			return false, err
		}
		if c.URI == export.RootCollectionURI {
			for _, d := range c.Documents {
				if d.FileURI == "hello.txt" {
					rootDoc = d
				}
			}
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("ScanCollectionsFailsafe() error = %v", err)
	}
	if rootDoc == nil {
		t.Fatal("hello.txt document not found in root collection")
	}

	var buf bytes.Buffer
	if err := b.ReadBinaryResource(rootDoc, &buf); err != nil {
		t.Fatalf("ReadBinaryResource() error = %v", err)
	}
	if buf.String() != "hello world" {
		t.Errorf("ReadBinaryResource() = %q, want %q", buf.String(), "hello world")
	}
}

func TestBroker_IgnoresConfiguredPatterns(t *testing.T) {
	root := writeTree(t)
	if err := os.MkdirAll(filepath.Join(root, "skipme"), 0755); err != nil {
		t.Fatalf("creating ignored subdirectory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "skipme", "secret.bin"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing ignored file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".dbexportignore"), []byte("skipme\n*.tmp\n"), 0644); err != nil {
		t.Fatalf("writing ignore file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}

	b := NewBroker(root)

	var uris []string
	var names []string
	err := b.ScanCollectionsFailsafe(func(key []byte, pointer export.RecordPointer) (bool, error) {
		c, err := b.DecodeCollection(pointer)
		if err != nil {
			return false, err
		}
		uris = append(uris, c.URI)
		for _, d := range c.Documents {
			names = append(names, d.FileURI)
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("ScanCollectionsFailsafe() error = %v", err)
	}

	for _, u := range uris {
		if u == export.RootCollectionURI+"/skipme" {
			t.Errorf("ignored directory %q should not have been scanned", u)
		}
	}
	for _, n := range names {
		if n == "secret.bin" || n == "scratch.tmp" {
			t.Errorf("ignored file %q should not have been scanned", n)
		}
	}
}

func TestBroker_ScanDocumentsFailsafe_NoOrphans(t *testing.T) {
	root := writeTree(t)
	b := NewBroker(root)

	called := false
	err := b.ScanDocumentsFailsafe(func(key []byte, pointer export.RecordPointer) (bool, error) {
		called = true
		return true, nil
	}, false)
	if err != nil {
		t.Fatalf("ScanDocumentsFailsafe() error = %v", err)
	}
	if called {
		t.Error("ScanDocumentsFailsafe() invoked visit, want no orphans ever reported")
	}
}
