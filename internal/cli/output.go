package cli

import (
	"encoding/json"
	"fmt"
)

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}
