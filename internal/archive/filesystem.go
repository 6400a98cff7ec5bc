package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileTreeSink mirrors the archive layout into real directories under
// root. Resource entries and manifests are written with a plain
// os.Create — unlike the reference filesystem vault's content store,
// entries here are written exactly once by a single writer during one
// export call, so there is no concurrent reader to race against; the
// atomic temp-file-and-rename dance that vault uses for content survives
// only for backup.properties, which is read back by BackupDirectory while
// a different process could in principle be mid-write.
type FileTreeSink struct {
	root string

	collectionDir string
	contentsFile  *os.File
	entryFile     *os.File
}

// NewFileTreeSink creates (or reuses) a directory tree rooted at root.
func NewFileTreeSink(root string) (*FileTreeSink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating archive root: %w", err)
	}
	return &FileTreeSink{root: root, collectionDir: root}, nil
}

func (s *FileTreeSink) NewCollection(relPath string) error {
	dir := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}
	s.collectionDir = dir
	return nil
}

func (s *FileTreeSink) CloseCollection() error {
	s.collectionDir = s.root
	return nil
}

func (s *FileTreeSink) NewContents() (io.Writer, error) {
	f, err := os.Create(filepath.Join(s.collectionDir, "__contents__.xml"))
	if err != nil {
		return nil, fmt.Errorf("creating manifest file: %w", err)
	}
	s.contentsFile = f
	return f, nil
}

func (s *FileTreeSink) CloseContents() error {
	if s.contentsFile == nil {
		return nil
	}
	err := s.contentsFile.Close()
	s.contentsFile = nil
	return err
}

func (s *FileTreeSink) NewEntry(filename string) (io.Writer, error) {
	f, err := os.Create(filepath.Join(s.collectionDir, filename))
	if err != nil {
		return nil, fmt.Errorf("creating resource entry: %w", err)
	}
	s.entryFile = f
	return f, nil
}

func (s *FileTreeSink) CloseEntry() error {
	if s.entryFile == nil {
		return nil
	}
	err := s.entryFile.Close()
	s.entryFile = nil
	return err
}

// SetProperties writes backup.properties atomically via a temp file and
// rename, the same pattern the reference filesystem vault uses for its
// metadata writes.
func (s *FileTreeSink) SetProperties(props map[string]string) error {
	tmp, err := os.CreateTemp(s.root, ".backup-properties-*")
	if err != nil {
		return fmt.Errorf("creating temp properties file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := writeProperties(tmp, props); err != nil {
		tmp.Close()
		return fmt.Errorf("writing properties: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp properties file: %w", err)
	}

	destPath := filepath.Join(s.root, "backup.properties")
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming properties file: %w", err)
	}
	success = true
	return nil
}

func (s *FileTreeSink) Close() error {
	return nil
}

var _ Sink = (*FileTreeSink)(nil)
