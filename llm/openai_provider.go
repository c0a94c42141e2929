package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	// Provider name
	providerNameOpenAI = "openai"

	// Output item type carrying a function call
	functionCallType = "function_call"

	// Logging limits
	maxArgsLogLength = 100
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate runs one assistant turn using OpenAI's Responses API. When the
// model emits a function call, the tool runs through invoke and its output
// is sent back on a followup request chained with PreviousResponseID.
func (p *OpenAIProvider) Generate(
	ctx context.Context, request *GenerationRequest, invoke ToolInvoker,
) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	// Build OpenAI-specific request parameters
	params := p.buildRequestParams(request)

	// Call OpenAI API with Sentry span
	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	usage := usageFromOpenAIResponse(resp)
	toolName := ""

	if call, ok := findFunctionCall(resp); ok {
		toolName = call.Name

		followup, followupErr := p.runToolRound(ctx, transaction, request, resp.ID, call, invoke)
		if followupErr != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(followupErr)
			return nil, followupErr
		}

		usage = usage.Add(usageFromOpenAIResponse(followup))
		resp = followup
	}

	text := resp.OutputText()
	log.Printf("📥 OPENAI RESPONSE: output_length=%d, output_items=%d, tokens=%d",
		len(text), len(resp.Output), resp.Usage.TotalTokens)
	p.logUsageStats(resp.Usage)

	transaction.SetTag("success", "true")
	transaction.SetTag("tool_called", fmt.Sprintf("%t", toolName != ""))
	log.Printf("✅ GENERATION COMPLETED in %v", time.Since(startTime))

	return &GenerationResponse{
		Text:     text,
		ToolName: toolName,
		Usage:    usage,
	}, nil
}

// runToolRound executes the model's function call and issues the followup
// request carrying the tool output
func (p *OpenAIProvider) runToolRound(
	ctx context.Context,
	transaction *sentry.Span,
	request *GenerationRequest,
	previousID string,
	call responses.ResponseFunctionToolCall,
	invoke ToolInvoker,
) (*responses.Response, error) {
	args := map[string]any{}
	if call.Arguments != "" {
		if parseErr := json.Unmarshal([]byte(call.Arguments), &args); parseErr != nil {
			log.Printf("⚠️  Failed to parse arguments for %s, running with none: %v", call.Name, parseErr)
			args = map[string]any{}
		}
	}
	log.Printf("🔧 TOOL CALL REQUESTED: %s args=%s", call.Name, truncate(call.Arguments, maxArgsLogLength))

	toolSpan := transaction.StartChild("tool.invoke")
	toolSpan.Description = call.Name
	output, invokeErr := invoke(ctx, ToolCall{ID: call.CallID, Name: call.Name, Arguments: args})
	toolSpan.Finish()
	if invokeErr != nil {
		return nil, fmt.Errorf("run tool %s: %w", call.Name, invokeErr)
	}
	log.Printf("📤 TOOL OUTPUT SENT: %s (%d chars)", call.Name, len(output))

	followupSpan := transaction.StartChild("openai.followup_call")
	followup, err := p.client.Responses.New(ctx, p.buildFollowupParams(request, previousID, call.CallID, output))
	followupSpan.Finish()
	if err != nil {
		log.Printf("❌ OPENAI FOLLOWUP FAILED: %v", err)
		return nil, fmt.Errorf("openai followup request failed: %w", err)
	}

	return followup, nil
}

// buildRequestParams converts GenerationRequest to OpenAI-specific ResponseNewParams
func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInputItems(request.Messages),
		},
		Instructions: openai.String(request.SystemPrompt),
	}

	if len(request.Tools) > 0 {
		params.Tools = buildFunctionTools(request.Tools)
		// One tool at a time keeps the dispatch loop strictly sequential
		params.ParallelToolCalls = openai.Bool(false)
		params.MaxToolCalls = openai.Int(1)
	}

	return params
}

// buildFollowupParams builds the second request of a tool round, chained to
// the first with PreviousResponseID and carrying the function call output
func (p *OpenAIProvider) buildFollowupParams(
	request *GenerationRequest, previousID, callID, output string,
) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfFunctionCallOutput(callID, output),
			},
		},
		Instructions:       openai.String(request.SystemPrompt),
		PreviousResponseID: openai.String(previousID),
	}

	if len(request.Tools) > 0 {
		params.Tools = buildFunctionTools(request.Tools)
		params.ParallelToolCalls = openai.Bool(false)
		params.MaxToolCalls = openai.Int(1)
	}

	return params
}

// buildInputItems converts conversation messages to OpenAI input items
func buildInputItems(messages []Message) responses.ResponseInputParam {
	inputItems := responses.ResponseInputParam{}

	for _, msg := range messages {
		if msg.Content == "" {
			log.Printf("⚠️  Skipping input message with empty content (role: %s)", msg.Role)
			continue
		}

		// Convert role string to OpenAI enum
		var roleEnum responses.EasyInputMessageRole
		switch msg.Role {
		case RoleAssistant:
			roleEnum = responses.EasyInputMessageRoleAssistant
		case RoleUser:
			roleEnum = responses.EasyInputMessageRoleUser
		default:
			roleEnum = responses.EasyInputMessageRoleUser
		}

		inputItems = append(inputItems,
			responses.ResponseInputItemParamOfMessage(msg.Content, roleEnum),
		)
	}

	return inputItems
}

// buildFunctionTools converts tool schemas to OpenAI function tools
func buildFunctionTools(schemas []ToolSchema) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, 0, len(schemas))
	for _, schema := range schemas {
		tool := responses.ToolParamOfFunction(schema.Name, schema.Parameters, false)
		if tool.OfFunction != nil && schema.Description != "" {
			tool.OfFunction.Description = openai.String(schema.Description)
		}
		tools = append(tools, tool)
	}
	return tools
}

// findFunctionCall returns the first function call in the response output
func findFunctionCall(resp *responses.Response) (responses.ResponseFunctionToolCall, bool) {
	for _, item := range resp.Output {
		if item.Type == functionCallType {
			return item.AsFunctionCall(), true
		}
	}
	return responses.ResponseFunctionToolCall{}, false
}

// usageFromOpenAIResponse converts OpenAI usage counts to TokenUsage
func usageFromOpenAIResponse(resp *responses.Response) TokenUsage {
	if resp == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
}

// logUsageStats logs token usage statistics
func (p *OpenAIProvider) logUsageStats(usage responses.ResponseUsage) {
	reasoningTokens := int64(0)
	if usage.OutputTokensDetails.ReasoningTokens > 0 {
		reasoningTokens = usage.OutputTokensDetails.ReasoningTokens
	}
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens,
		reasoningTokens, usage.TotalTokens)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
