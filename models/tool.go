package models

import (
	"encoding/json"
	"fmt"
)

// ToolResult is the structured outcome of a tool invocation. Every tool
// finishes with one of these, success or not; nothing a tool does halts the
// session.
type ToolResult struct {
	OK      bool
	Message string
	Data    map[string]any
}

// Success builds a passing result. Data fields ride along at the top level of
// the encoded object.
func Success(message string, data map[string]any) *ToolResult {
	return &ToolResult{OK: true, Message: message, Data: data}
}

// Failf builds a failed result with a formatted message.
func Failf(format string, args ...any) *ToolResult {
	return &ToolResult{OK: false, Message: fmt.Sprintf(format, args...)}
}

// MarshalJSON flattens the result into a single object
// ({"ok":...,"message":...,<data fields>}). The encoded bytes are handed back
// to the model verbatim as the function call output, so the shape stays flat.
func (r *ToolResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	out["ok"] = r.OK
	if r.Message != "" {
		out["message"] = r.Message
	}
	return json.Marshal(out)
}
