package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// ToolSchema describes one callable tool in provider-neutral JSON Schema
// form. The same schemas are handed to OpenAI as function tools and to
// Gemini as function declarations.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// LoadToolSchemas reads the tool schema file shipped with the agent.
// The file holds a JSON array of tool definitions.
func LoadToolSchemas(path string) ([]ToolSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool schemas: %w", err)
	}

	var schemas []ToolSchema
	if err := json.Unmarshal(data, &schemas); err != nil {
		return nil, fmt.Errorf("parse tool schemas: %w", err)
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no tool schemas defined in %s", path)
	}

	log.Printf("🔧 TOOL SCHEMAS LOADED: %d from %s", len(schemas), path)
	return schemas, nil
}
