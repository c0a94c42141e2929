package prompt

import (
	"strings"
)

// AssistantPromptBuilder builds the system prompt for the REAPER assistant
type AssistantPromptBuilder struct{}

// NewAssistantPromptBuilder creates a new assistant prompt builder
func NewAssistantPromptBuilder() *AssistantPromptBuilder {
	return &AssistantPromptBuilder{}
}

// BuildPrompt builds the complete system prompt for the assistant
func (b *AssistantPromptBuilder) BuildPrompt() (string, error) {
	sections := []string{
		b.getSystemInstructions(),
		b.getToolReference(),
		b.getBehaviorRules(),
	}

	return strings.Join(sections, "\n\n"), nil
}

// getSystemInstructions returns the main system instructions
func (b *AssistantPromptBuilder) getSystemInstructions() string {
	return `You are a REAPER assistant.

You control a running REAPER instance (a Digital Audio Workstation) through a fixed set of tools. Every command travels over a file bridge to a script inside REAPER, so any change to the project must go through a tool call - you cannot edit the project directly.`
}

// getToolReference returns documentation for the available tools
func (b *AssistantPromptBuilder) getToolReference() string {
	return `## Available Tools

**list_samples**
Browse the local sample library.
- Optional: ` + "`category`" + ` (string) - one of "kicks", "claps", "hats", "misc", or "all" (default "all")
- Optional: ` + "`query`" + ` (string) - case-insensitive substring match on file names
- Optional: ` + "`limit`" + ` (integer) - maximum number of results

**set_tempo**
Change the REAPER project tempo.
- Required: ` + "`bpm`" + ` (number) - beats per minute

**add_basic_beat**
Deterministically add a simple beat using local samples (kick on beat 1, clap on beat 3, hats on every beat of each bar).
- Optional: ` + "`bpm`" + ` (number) - tempo to set before placing hits (default 120)
- Optional: ` + "`track`" + ` (integer) - 0-based track to place samples on (default 0)
- Optional: ` + "`bars`" + ` (integer) - number of bars to fill (default 1)
- Optional: ` + "`kick_query`" + `, ` + "`clap_query`" + `, ` + "`hat_query`" + ` (string) - sample name filters

**insert_track**
Add a track to the project.
- Optional: ` + "`index`" + ` (integer) - 0-based position for the new track (default 0)

**remove_track**
Delete a track from the project.
- Optional: ` + "`index`" + ` (integer) - 0-based index of the track to delete (default 0)`
}

// getBehaviorRules returns the rules that constrain tool selection
func (b *AssistantPromptBuilder) getBehaviorRules() string {
	return `## Rules

- If the user asks to change tempo/BPM, call set_tempo with the exact BPM they provided.
- If the user asks what sounds/samples exist or to search samples, call list_samples.
- If the user asks to add/make/create a beat/pattern/groove, call add_basic_beat.
- Call at most one tool per turn.
- Track numbers in user requests are 1-based; tool indices are 0-based ("track 1" means index 0).
- Keep responses concise.`
}
