package coordination

import (
	"context"
	"log"

	"github.com/cjell/REAPER/agents/beat"
	"github.com/cjell/REAPER/bridge"
	"github.com/cjell/REAPER/models"
	"github.com/cjell/REAPER/samples"
)

// Tool names exposed to the LLM. They must match the schemas shipped in
// tools/reaper_tools.json.
const (
	ToolListSamples  = "list_samples"
	ToolInsertTrack  = "insert_track"
	ToolRemoveTrack  = "remove_track"
	ToolSetTempo     = "set_tempo"
	ToolAddBasicBeat = "add_basic_beat"
)

// Handler executes one tool call. The raw user text rides along so handlers
// can honor values the user stated directly (e.g. a BPM in plain words).
type Handler interface {
	Name() string
	Run(ctx context.Context, args map[string]any, userText string) *models.ToolResult
}

// ToolRunner maps tool calls from the model onto concrete handlers.
type ToolRunner struct {
	handlers map[string]Handler
}

// NewToolRunner wires the standard tool set over a bridge and sample library.
func NewToolRunner(br *bridge.Bridge, lib *samples.Library) *ToolRunner {
	beatAgent := beat.NewBeatAgent(br, lib)

	return NewToolRunnerWithHandlers(
		&listSamplesHandler{lib: lib},
		&insertTrackHandler{dispatcher: br},
		&removeTrackHandler{dispatcher: br},
		&setTempoHandler{dispatcher: br},
		&addBasicBeatHandler{agent: beatAgent},
	)
}

// NewToolRunnerWithHandlers creates a tool runner over an explicit handler set
func NewToolRunnerWithHandlers(handlers ...Handler) *ToolRunner {
	r := &ToolRunner{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Name()] = h
	}

	log.Printf("🔧 TOOL RUNNER INITIALIZED: %d tools", len(r.handlers))

	return r
}

// Run executes the named tool. An unknown name yields a structured failure
// rather than an error: tool names come from the model and are untrusted
// input, so a bad one must never halt the host process.
func (r *ToolRunner) Run(ctx context.Context, name string, args map[string]any, userText string) *models.ToolResult {
	h, ok := r.handlers[name]
	if !ok {
		log.Printf("⚠️ Unknown tool requested: %s", name)
		return models.Failf("Unknown tool: %s", name)
	}

	log.Printf("🔧 TOOL CALL: %s args=%v", name, args)
	return h.Run(ctx, args, userText)
}

// Helper functions for type conversion
func getFloat(m map[string]any, key string) (float64, bool) {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val, true
		case int:
			return float64(val), true
		case int64:
			return float64(val), true
		}
	}
	return 0, false
}

func getInt(m map[string]any, key string) (int, bool) {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case int:
			return val, true
		case int64:
			return int(val), true
		case float64:
			return int(val), true
		}
	}
	return 0, false
}

func getString(m map[string]any, key string) (string, bool) {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}
