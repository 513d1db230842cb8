package content

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads an ordered list of records from the interchange file. Every
// record is validated; a single bad record fails the whole load so the game
// never runs on partially trusted ground truth.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("content: parse %s: %w", path, err)
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("content: record %d: %w", i, err)
		}
	}

	return records, nil
}

// Save writes the full record list to path, replacing any previous contents.
func Save(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("content: encode records: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("content: write %s: %w", path, err)
	}

	return nil
}
