package beat

import "testing"

func TestBuildPlan(t *testing.T) {
	hits := buildPlan(1, 0, "kick.wav", "clap.wav", "hat.wav")

	if len(hits) != 6 {
		t.Fatalf("expected 6 hits for one bar, got %d", len(hits))
	}

	want := []struct {
		kind string
		path string
		beat float64
	}{
		{"kick", "kick.wav", 0},
		{"clap", "clap.wav", 2},
		{"hat", "hat.wav", 0},
		{"hat", "hat.wav", 1},
		{"hat", "hat.wav", 2},
		{"hat", "hat.wav", 3},
	}

	for i, w := range want {
		if hits[i].Kind != w.kind || hits[i].Path != w.path || hits[i].Beat != w.beat {
			t.Errorf("hit %d: got {%s %s %v}, want {%s %s %v}",
				i, hits[i].Kind, hits[i].Path, hits[i].Beat, w.kind, w.path, w.beat)
		}
	}
}

func TestBuildPlanMultipleBars(t *testing.T) {
	hits := buildPlan(3, 2, "kick.wav", "clap.wav", "hat.wav")

	if len(hits) != 18 {
		t.Fatalf("expected 18 hits for three bars, got %d", len(hits))
	}

	// Second bar starts 4 beats in, same kick/clap/hat layout
	if hits[6].Kind != "kick" || hits[6].Beat != 4 {
		t.Errorf("bar 2 kick: got {%s %v}, want {kick 4}", hits[6].Kind, hits[6].Beat)
	}
	if hits[7].Kind != "clap" || hits[7].Beat != 6 {
		t.Errorf("bar 2 clap: got {%s %v}, want {clap 6}", hits[7].Kind, hits[7].Beat)
	}
	if hits[17].Kind != "hat" || hits[17].Beat != 11 {
		t.Errorf("last hat: got {%s %v}, want {hat 11}", hits[17].Kind, hits[17].Beat)
	}

	for i, h := range hits {
		if h.Track != 2 {
			t.Errorf("hit %d: track %d, want 2", i, h.Track)
		}
	}
}

func TestBeatsToSeconds(t *testing.T) {
	tests := []struct {
		name  string
		beats float64
		bpm   float64
		want  float64
	}{
		{"start of plan", 0, 120, 0},
		{"one beat at 120", 1, 120, 0.5},
		{"two beats at 120", 2, 120, 1},
		{"three beats at 120", 3, 120, 1.5},
		{"one beat at 60", 1, 60, 1},
		{"one beat at 240", 1, 240, 0.25},
		{"bar boundary at 120", 4, 120, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := beatsToSeconds(tt.beats, tt.bpm); got != tt.want {
				t.Errorf("beatsToSeconds(%v, %v) = %v, want %v", tt.beats, tt.bpm, got, tt.want)
			}
		})
	}
}
