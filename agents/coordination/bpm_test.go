package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBPM(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"bpm suffix", "set it to 128 bpm", 128, true},
		{"uppercase", "MAKE IT 95 BPM", 95, true},
		{"no space before bpm", "play at 101bpm", 101, true},
		{"tempo to", "change tempo to 140", 140, true},
		{"tempo without to", "tempo 87 please", 87, true},
		{"bpm prefix", "bpm 90", 90, true},
		{"no tempo stated", "add a beat on track 1", 0, false},
		{"single digit rejected", "1 bpm", 0, false},
		{"four digits rejected", "1234 bpm", 0, false},
		{"bare number ignored", "give me 120 of those", 0, false},
		{"empty text", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractBPM(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
