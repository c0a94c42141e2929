package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSlotTolerance(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		write   bool
		want    map[string]any
	}{
		{
			name:  "missing file",
			write: false,
			want:  map[string]any{},
		},
		{
			name:    "empty file",
			content: "",
			write:   true,
			want:    map[string]any{},
		},
		{
			name:    "partial write",
			content: `{"id": "abc", "ok":`,
			write:   true,
			want:    map[string]any{},
		},
		{
			name:    "json null",
			content: "null",
			write:   true,
			want:    map[string]any{},
		},
		{
			name:    "valid object",
			content: `{"id": "abc", "ok": true}`,
			write:   true,
			want:    map[string]any{"id": "abc", "ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.write {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			}

			got := readSlot(path)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteAndClearSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slot.json")

	require.NoError(t, writeSlot(path, map[string]any{"id": "abc", "type": "set_tempo", "bpm": 120.0}))
	slot := readSlot(path)
	assert.Equal(t, "abc", slot["id"])
	assert.Equal(t, "set_tempo", slot["type"])
	assert.Equal(t, 120.0, slot["bpm"])

	require.NoError(t, clearSlot(path))
	assert.Empty(t, readSlot(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}
