package coordination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjell/REAPER/models"
)

type stubHandler struct {
	name    string
	result  *models.ToolResult
	gotArgs map[string]any
	gotText string
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Run(_ context.Context, args map[string]any, userText string) *models.ToolResult {
	h.gotArgs = args
	h.gotText = userText
	return h.result
}

func TestRunUnknownTool(t *testing.T) {
	r := NewToolRunnerWithHandlers()

	result := r.Run(context.Background(), "explode", map[string]any{}, "do something")

	require.NotNil(t, result)
	assert.False(t, result.OK)
	assert.Equal(t, "Unknown tool: explode", result.Message)
}

func TestRunRoutesToHandler(t *testing.T) {
	want := models.Success("sorted", nil)
	h := &stubHandler{name: ToolSetTempo, result: want}
	r := NewToolRunnerWithHandlers(h)

	args := map[string]any{"bpm": 95.0}
	got := r.Run(context.Background(), ToolSetTempo, args, "set tempo to 95")

	assert.Same(t, want, got)
	assert.Equal(t, args, h.gotArgs)
	assert.Equal(t, "set tempo to 95", h.gotText)
}

func TestGetFloat(t *testing.T) {
	m := map[string]any{
		"float":  95.5,
		"int":    90,
		"int64":  int64(85),
		"string": "100",
	}

	tests := []struct {
		key  string
		want float64
		ok   bool
	}{
		{"float", 95.5, true},
		{"int", 90, true},
		{"int64", 85, true},
		{"string", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := getFloat(m, tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	m := map[string]any{
		"int":    3,
		"int64":  int64(4),
		"float":  2.0,
		"string": "1",
	}

	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"int", 3, true},
		{"int64", 4, true},
		{"float", 2, true},
		{"string", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := getInt(m, tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetString(t *testing.T) {
	m := map[string]any{"query": "808", "limit": 5.0}

	got, ok := getString(m, "query")
	assert.True(t, ok)
	assert.Equal(t, "808", got)

	got, ok = getString(m, "limit")
	assert.False(t, ok)
	assert.Empty(t, got)

	_, ok = getString(m, "missing")
	assert.False(t, ok)
}
