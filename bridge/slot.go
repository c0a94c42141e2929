package bridge

import (
	"encoding/json"
	"os"
)

// readSlot reads one JSON object from a slot file. A missing file, an empty
// file, or transiently malformed JSON (the receiver may be mid-write) all
// read as an empty object rather than an error.
func readSlot(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}

	var slot map[string]any
	if err := json.Unmarshal(data, &slot); err != nil || slot == nil {
		return map[string]any{}
	}
	return slot
}

// writeSlot overwrites a slot file with compact JSON.
func writeSlot(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// clearSlot resets a slot file to an empty JSON object.
func clearSlot(path string) error {
	return os.WriteFile(path, []byte("{}"), 0644)
}
