// Package backupdir locates and parses previously written backup archives
// on disk, the way the export engine's reference tool discovers backups by
// directory listing rather than any side index: a descriptor that exists on
// disk but doesn't match the naming convention is simply invisible to it.
package backupdir

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// filenameDateLayout mirrors the reference tool's SimpleDateFormat
// "yyyyMMdd-HHmm" used to stamp backup filenames.
const filenameDateLayout = "20060102-1504"

// namePattern matches "backup-20060102-1504", "backup-20060102-1504_3",
// and the same with a trailing ".zip".
var namePattern = regexp.MustCompile(`^backup-(\d{8}-\d{4})(?:_(\d+))?(\.zip)?$`)

// Directory scans one target directory for backup archives and picks new
// filenames for the next one.
type Directory struct {
	path string
}

// NewDirectory creates a Directory rooted at path. path must already exist
// or be creatable by the caller; Directory itself never creates it.
func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// LastBackupFile returns a Descriptor for the most recent backup in the
// directory, or nil if none match the naming convention. Ties on
// timestamp are broken by the greater sequence suffix, matching the
// reference tool's own "biggest looks newest" resolution.
func (d *Directory) LastBackupFile() (*Descriptor, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing backup directory %s: %w", d.path, err)
	}

	var best *Descriptor
	var bestTime time.Time
	bestSeq := -1

	for _, entry := range entries {
		name := entry.Name()
		m := namePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		t, err := time.Parse(filenameDateLayout, m[1])
		if err != nil {
			continue
		}
		// A bare "backup-<ts>" (no "_N" suffix) is always the first
		// candidate CreateBackup tried at that timestamp, so it must
		// rank below an explicit "_0" produced by a later collision at
		// the same timestamp — not tie with it.
		seq := -1
		if m[2] != "" {
			fmt.Sscanf(m[2], "%d", &seq)
		}
		if best == nil || t.After(bestTime) || (t.Equal(bestTime) && seq > bestSeq) {
			best = NewDescriptor(filepath.Join(d.path, name))
			bestTime = t
			bestSeq = seq
		}
	}
	return best, nil
}

// CreateBackup picks the next unused backup filename in the directory,
// following the reference tool's getUniqueFile: "backup-<timestamp>",
// then "_0", "_1", ... appended until a name that doesn't already exist
// on disk is found. It does not create the file or directory itself — the
// archive sink does that.
func (d *Directory) CreateBackup(zip bool) (string, error) {
	ext := ""
	if zip {
		ext = ".zip"
	}
	base := "backup-" + time.Now().UTC().Format(filenameDateLayout)

	candidate := filepath.Join(d.path, base+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	for version := 0; ; version++ {
		candidate = filepath.Join(d.path, fmt.Sprintf("%s_%d%s", base, version, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}
