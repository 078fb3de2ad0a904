package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// idsFile is the listing-ID file written by ID discovery. Either key may be
// used.
type idsFile struct {
	IDs    []json.Number `json:"ids"`
	AllIDs []json.Number `json:"all_ids"`
}

// LoadIDs reads listing IDs from a JSON file. IDs may be strings or numbers;
// duplicates are dropped, first occurrence kept.
func LoadIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ids file: %w", err)
	}

	var f idsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ids file %s: %w", path, err)
	}

	raw := f.IDs
	if len(raw) == 0 {
		raw = f.AllIDs
	}

	ids := make([]string, 0, len(raw))
	for _, n := range raw {
		ids = append(ids, n.String())
	}
	return SplitIDs(strings.Join(ids, ",")), nil
}

// SplitIDs parses a comma-separated ID list, trimming blanks and duplicates.
func SplitIDs(s string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range strings.Split(s, ",") {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
