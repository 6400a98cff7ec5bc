package archive

import "fmt"

// Config selects and parameterizes one archive backend.
type Config struct {
	// Type is one of "zip", "filesystem", or "memory".
	Type string

	// Path is the destination for "zip" (a single file) or "filesystem"
	// (a directory root). Ignored for "memory".
	Path string

	// RootPrefix is the top-level segment every entry is nested under
	// inside a zip archive (the database's mount point, e.g. "db").
	// Ignored for "filesystem" and "memory".
	RootPrefix string
}

// NewSinkFromConfig creates a Sink implementation based on cfg.Type.
func NewSinkFromConfig(cfg Config) (Sink, error) {
	switch cfg.Type {
	case "zip":
		if cfg.Path == "" {
			return nil, fmt.Errorf("zip sink requires path to be set")
		}
		return NewZipSink(cfg.Path, cfg.RootPrefix)
	case "filesystem":
		if cfg.Path == "" {
			return nil, fmt.Errorf("filesystem sink requires path to be set")
		}
		return NewFileTreeSink(cfg.Path)
	case "memory":
		return NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unknown archive sink type: %s", cfg.Type)
	}
}
