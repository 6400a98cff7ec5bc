package archive

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// writeProperties writes props as sorted key=value lines, matching the
// backup.properties sidecar format described by the archive spec.
// Sorting keeps output deterministic for tests and diffs.
func writeProperties(w io.Writer, props map[string]string) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	for _, k := range keys {
		if _, err := fmt.Fprintf(bw, "%s=%s\n", k, props[k]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
