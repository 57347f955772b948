package repository

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadWishFile loads a catalog override: a JSON array of wish strings.
func ReadWishFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wish file: read %s: %w", path, err)
	}

	var wishes []string
	if err := json.Unmarshal(data, &wishes); err != nil {
		return nil, fmt.Errorf("wish file: parse %s: %w", path, err)
	}
	return wishes, nil
}
