package assistant

import (
	"fmt"

	"github.com/cjell/REAPER/agents/beat"
	"github.com/cjell/REAPER/agents/coordination"
	"github.com/cjell/REAPER/models"
)

// renderFallback synthesizes a minimal reply from the tool result when the
// model produces no text after a tool round. Tools without a natural
// one-liner fall through to an empty reply.
func renderFallback(toolName string, result *models.ToolResult) string {
	if result == nil {
		return ""
	}

	switch toolName {
	case coordination.ToolSetTempo:
		return "Tempo updated."

	case coordination.ToolListSamples:
		count := 0
		if n, ok := result.Data["count"].(int); ok {
			count = n
		}
		return fmt.Sprintf("Found %d sample(s).", count)

	case coordination.ToolAddBasicBeat:
		if !result.OK {
			return fmt.Sprintf("Couldn't add beat: %s", result.Message)
		}
		used, _ := result.Data["used"].(beat.UsedSamples)
		return fmt.Sprintf("%s (kick=%s, clap=%s, hat=%s)", result.Message, used.Kick, used.Clap, used.Hat)

	default:
		return ""
	}
}
