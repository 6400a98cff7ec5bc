package archive

import (
	"bytes"
	"io"
)

// MemorySink is an in-memory Sink, grounded on the reference backup
// tool's MemoryVault. It exists so tests can assert exact manifest and
// entry contents without touching disk.
type MemorySink struct {
	Collections map[string]*MemoryCollection
	Properties  map[string]string

	current string

	contentsBuf *bytes.Buffer
	entryBuf    *bytes.Buffer
	entryName   string
}

// MemoryCollection holds the manifest and entries written under one
// collection scope.
type MemoryCollection struct {
	Contents []byte
	Entries  map[string][]byte
}

// NewMemorySink creates an empty in-memory archive, with the root
// collection pre-registered under "".
func NewMemorySink() *MemorySink {
	return &MemorySink{
		Collections: map[string]*MemoryCollection{
			"": {Entries: make(map[string][]byte)},
		},
	}
}

func (s *MemorySink) NewCollection(relPath string) error {
	s.current = relPath
	if _, ok := s.Collections[relPath]; !ok {
		s.Collections[relPath] = &MemoryCollection{Entries: make(map[string][]byte)}
	}
	return nil
}

func (s *MemorySink) CloseCollection() error {
	s.current = ""
	return nil
}

func (s *MemorySink) NewContents() (io.Writer, error) {
	s.contentsBuf = &bytes.Buffer{}
	return s.contentsBuf, nil
}

func (s *MemorySink) CloseContents() error {
	if s.contentsBuf == nil {
		return nil
	}
	s.Collections[s.current].Contents = s.contentsBuf.Bytes()
	s.contentsBuf = nil
	return nil
}

func (s *MemorySink) NewEntry(filename string) (io.Writer, error) {
	s.entryBuf = &bytes.Buffer{}
	s.entryName = filename
	return s.entryBuf, nil
}

func (s *MemorySink) CloseEntry() error {
	if s.entryBuf == nil {
		return nil
	}
	s.Collections[s.current].Entries[s.entryName] = s.entryBuf.Bytes()
	s.entryBuf = nil
	s.entryName = ""
	return nil
}

func (s *MemorySink) SetProperties(props map[string]string) error {
	s.Properties = props
	return nil
}

func (s *MemorySink) Close() error {
	return nil
}

// Collection returns the collection recorded under relPath, or nil.
func (s *MemorySink) Collection(relPath string) *MemoryCollection {
	return s.Collections[relPath]
}

var _ Sink = (*MemorySink)(nil)
