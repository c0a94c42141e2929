package llm

import "context"

// Role constants for conversation messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in the running conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a function call requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolInvoker runs a tool call requested by the model and returns the
// serialized result that is sent back on the followup request
type ToolInvoker func(ctx context.Context, call ToolCall) (string, error)

// TokenUsage aggregates token counts across every API call in a generation
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add returns the sum of two usage counts
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// GenerationRequest is a provider-agnostic generation request
type GenerationRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
}

// GenerationResponse is a provider-agnostic generation result
type GenerationResponse struct {
	Text     string     // Final assistant text, may be empty if the model went quiet after a tool call
	ToolName string     // Name of the tool the model invoked, empty if none
	Usage    TokenUsage // Token counts summed across the initial and followup calls
}

// Provider abstracts LLM providers (OpenAI, Gemini)
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate runs one assistant turn. When the model requests a tool
	// call, the provider runs it through invoke and feeds the result
	// back before returning the final response. At most one tool call
	// is honored per turn.
	Generate(ctx context.Context, request *GenerationRequest, invoke ToolInvoker) (*GenerationResponse, error)
}
