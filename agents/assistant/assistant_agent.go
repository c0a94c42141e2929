package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cjell/REAPER/config"
	"github.com/cjell/REAPER/llm"
	"github.com/cjell/REAPER/metrics"
	"github.com/cjell/REAPER/models"
	"github.com/cjell/REAPER/prompt"
	"github.com/getsentry/sentry-go"
)

// ToolRunner runs one named tool call and reports its structured result
type ToolRunner interface {
	Run(ctx context.Context, name string, args map[string]any, userText string) *models.ToolResult
}

// AssistantAgent drives the conversation loop: it sends user turns to the
// LLM provider, runs the tool call the model requests, and returns the
// final reply text.
type AssistantAgent struct {
	provider     llm.Provider
	runner       ToolRunner
	tools        []llm.ToolSchema
	systemPrompt string
	model        string
	metrics      *metrics.SentryMetrics
}

// NewAssistantAgent creates a new assistant agent
func NewAssistantAgent(cfg *config.Config, provider llm.Provider, runner ToolRunner, tools []llm.ToolSchema) (*AssistantAgent, error) {
	builder := prompt.NewAssistantPromptBuilder()
	systemPrompt, err := builder.BuildPrompt()
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	log.Printf("🤖 ASSISTANT AGENT INITIALIZED (model: %s, provider: %s, tools: %d)",
		cfg.Model, provider.Name(), len(tools))

	return &AssistantAgent{
		provider:     provider,
		runner:       runner,
		tools:        tools,
		systemPrompt: systemPrompt,
		model:        cfg.Model,
		metrics:      metrics.NewSentryMetrics(),
	}, nil
}

// RunTurn processes one user message. It returns the updated conversation
// history and the reply to show the user. The reply may be empty when the
// model had nothing to say and no fallback applied.
func (a *AssistantAgent) RunTurn(ctx context.Context, history []llm.Message, userText string) ([]llm.Message, string, error) {
	startTime := time.Now()
	log.Printf("🤖 ASSISTANT TURN STARTED (history: %d messages)", len(history))

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "assistant.run_turn")
	defer transaction.Finish()

	transaction.SetTag("model", a.model)
	transaction.SetTag("provider", a.provider.Name())
	ctx = transaction.Context()

	// Copy so the caller's slice is never mutated
	history = append(append([]llm.Message{}, history...), llm.Message{Role: llm.RoleUser, Content: userText})

	// The provider calls invoke when the model requests a tool. The last
	// result is kept so a fallback reply can be rendered from it.
	var lastTool string
	var lastResult *models.ToolResult

	invoke := func(ctx context.Context, call llm.ToolCall) (string, error) {
		result := a.runner.Run(ctx, call.Name, call.Arguments, userText)
		lastTool = call.Name
		lastResult = result

		encoded, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("encode result for %s: %w", call.Name, err)
		}
		return string(encoded), nil
	}

	request := &llm.GenerationRequest{
		Model:        a.model,
		SystemPrompt: a.systemPrompt,
		Messages:     history,
		Tools:        a.tools,
	}

	response, err := a.provider.Generate(ctx, request, invoke)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return history, "", fmt.Errorf("generate turn: %w", err)
	}

	reply := strings.TrimSpace(response.Text)
	if reply == "" && response.ToolName != "" {
		// The model sometimes goes quiet after a tool round
		reply = strings.TrimSpace(renderFallback(lastTool, lastResult))
		log.Printf("ℹ️  Model returned no text, rendered fallback for %s", lastTool)
	}

	duration := time.Since(startTime)
	transaction.SetTag("success", "true")
	transaction.SetTag("tool_called", fmt.Sprintf("%t", response.ToolName != ""))
	a.metrics.RecordGenerationDuration(ctx, duration, true)
	a.metrics.RecordTokenUsage(ctx, a.model,
		response.Usage.TotalTokens, response.Usage.InputTokens, response.Usage.OutputTokens)

	log.Printf("✅ ASSISTANT TURN COMPLETE in %v (tool: %q, reply: %d chars)", duration, response.ToolName, len(reply))

	return append(history, llm.Message{Role: llm.RoleAssistant, Content: reply}), reply, nil
}
