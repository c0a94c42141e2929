package beat

// beatsPerBar of the fixed 4/4 pattern
const beatsPerBar = 4

// Hit is one scheduled percussion event within a beat plan.
type Hit struct {
	Kind  string  // percussion role: kick, clap, hat
	Path  string  // resolved sample file
	Track int     // destination track index
	Beat  float64 // offset from plan start, in beats
}

// buildPlan lays out the fixed pattern for the given number of bars: one
// kick on beat 0 and one clap on beat 2 of each bar, then hats on all four
// beats. Commands are issued in exactly this order.
func buildPlan(bars, track int, kickPath, clapPath, hatPath string) []Hit {
	hits := make([]Hit, 0, bars*6)
	for bar := 0; bar < bars; bar++ {
		base := float64(bar * beatsPerBar)
		hits = append(hits,
			Hit{Kind: "kick", Path: kickPath, Track: track, Beat: base},
			Hit{Kind: "clap", Path: clapPath, Track: track, Beat: base + 2},
		)
		for b := 0; b < beatsPerBar; b++ {
			hits = append(hits, Hit{Kind: "hat", Path: hatPath, Track: track, Beat: base + float64(b)})
		}
	}
	return hits
}

// beatsToSeconds converts a beat offset to absolute seconds at the given tempo.
func beatsToSeconds(beats, bpm float64) float64 {
	return (60.0 / bpm) * beats
}
