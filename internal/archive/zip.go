package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
)

// ZipSink writes an archive as a single zip file, with every entry
// prefixed by the database root segment ("db"). archive/zip is the only
// zip implementation anywhere in the retrieved corpus (the CIPD packaging
// code builds its instance archives directly against it) — no
// third-party zip library is wired into any example repo, so this
// backend uses the standard library the same way that code does.
type ZipSink struct {
	f          *os.File
	zw         *zip.Writer
	rootPrefix string

	collectionPath string
	entryWriter    io.Writer
}

// NewZipSink creates a zip archive at path, rooted under rootPrefix
// (typically "db").
func NewZipSink(path, rootPrefix string) (*ZipSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive file: %w", err)
	}
	return &ZipSink{f: f, zw: zip.NewWriter(f), rootPrefix: rootPrefix}, nil
}

func (s *ZipSink) NewCollection(relPath string) error {
	s.collectionPath = relPath
	return nil
}

func (s *ZipSink) CloseCollection() error {
	s.collectionPath = ""
	return nil
}

func (s *ZipSink) NewContents() (io.Writer, error) {
	return s.openEntry("__contents__.xml")
}

func (s *ZipSink) CloseContents() error {
	return s.closeEntry()
}

func (s *ZipSink) NewEntry(filename string) (io.Writer, error) {
	return s.openEntry(filename)
}

func (s *ZipSink) CloseEntry() error {
	return s.closeEntry()
}

func (s *ZipSink) openEntry(filename string) (io.Writer, error) {
	w, err := s.zw.Create(s.entryName(filename))
	if err != nil {
		return nil, fmt.Errorf("creating zip entry: %w", err)
	}
	s.entryWriter = w
	return w, nil
}

func (s *ZipSink) closeEntry() error {
	// archive/zip entries are flushed automatically when the next Create
	// or Close is called; there is nothing to close per-entry, but the
	// method exists so callers have one guaranteed close point regardless
	// of backend.
	s.entryWriter = nil
	return nil
}

func (s *ZipSink) entryName(filename string) string {
	if s.collectionPath == "" {
		return path.Join(s.rootPrefix, filename)
	}
	return path.Join(s.rootPrefix, s.collectionPath, filename)
}

func (s *ZipSink) SetProperties(props map[string]string) error {
	w, err := s.zw.Create("backup.properties")
	if err != nil {
		return fmt.Errorf("creating properties entry: %w", err)
	}
	return writeProperties(w, props)
}

func (s *ZipSink) Close() error {
	if err := s.zw.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("closing zip writer: %w", err)
	}
	return s.f.Close()
}

var _ Sink = (*ZipSink)(nil)
