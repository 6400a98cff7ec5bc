package main

import (
	"encoding/json"
	"fmt"
	"os"

	"dbexport/internal/export"
)

// errorReportJSON mirrors export.ErrorReport as a JSON-friendly shape;
// the consistency checker that produces these reports is an external,
// out-of-scope tool this command only reads output from.
type errorReportJSON struct {
	Kind          string `json:"kind"` // "resource_access_failed" or "child_collection"
	DocID         int64  `json:"doc_id,omitempty"`
	CollectionID  int64  `json:"collection_id,omitempty"`
	CollectionURI string `json:"collection_uri,omitempty"`
}

// loadErrorList reads a JSON array of errorReportJSON from path and
// converts it to an export.ErrorList.
func loadErrorList(path string) (export.ErrorList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading error report %s: %w", path, err)
	}

	var raw []errorReportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing error report %s: %w", path, err)
	}

	list := make(export.ErrorList, 0, len(raw))
	for _, r := range raw {
		switch r.Kind {
		case "resource_access_failed":
			list = append(list, export.ErrorReport{Kind: export.ResourceAccessFailed, DocID: r.DocID})
		case "child_collection":
			list = append(list, export.ErrorReport{Kind: export.ChildCollection, CollectionID: r.CollectionID, CollectionURI: r.CollectionURI})
		default:
			return nil, fmt.Errorf("unknown error report kind %q", r.Kind)
		}
	}
	return list, nil
}
