package coordination

import (
	"regexp"
	"strconv"
)

// bpmPatterns match a 2-3 digit tempo stated in free text, e.g. "95 bpm",
// "tempo to 128", "bpm 90".
var bpmPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{2,3})\s*bpm\b`),
	regexp.MustCompile(`(?i)\btempo\s*(?:to\s*)?(\d{2,3})\b`),
	regexp.MustCompile(`(?i)\bbpm\s*(\d{2,3})\b`),
}

// ExtractBPM pulls an explicitly stated tempo out of user text. A tempo the
// user typed themselves takes precedence over whatever value the model put
// in the tool arguments.
func ExtractBPM(text string) (float64, bool) {
	for _, pat := range bpmPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			if bpm, err := strconv.ParseFloat(m[1], 64); err == nil {
				return bpm, true
			}
		}
	}
	return 0, false
}
