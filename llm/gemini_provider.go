package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

// Provider name
const providerNameGemini = "gemini"

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// Generate runs one assistant turn using Gemini. Gemini has no response
// chaining, so a tool round replays the conversation with the function
// call and its response appended.
func (p *GeminiProvider) Generate(
	ctx context.Context, request *GenerationRequest, invoke ToolInvoker,
) (*GenerationResponse, error) {
	startTime := time.Now()
	log.Printf("🎵 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents := buildGeminiContents(request.Messages)
	genConfig := buildGeminiConfig(request)

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, request.Model, contents, genConfig)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	usage := usageFromGeminiResponse(resp)
	toolName := ""

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		call := calls[0]
		toolName = call.Name
		log.Printf("🔧 TOOL CALL REQUESTED: %s args=%v", call.Name, call.Args)

		toolSpan := transaction.StartChild("tool.invoke")
		toolSpan.Description = call.Name
		output, invokeErr := invoke(ctx, ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Args})
		toolSpan.Finish()
		if invokeErr != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(invokeErr)
			return nil, fmt.Errorf("run tool %s: %w", call.Name, invokeErr)
		}
		log.Printf("📤 TOOL OUTPUT SENT: %s (%d chars)", call.Name, len(output))

		contents = append(contents,
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionCall(call.Name, call.Args),
			}, genai.RoleModel),
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromFunctionResponse(call.Name, map[string]any{"output": output}),
			}, genai.RoleUser),
		)

		followupSpan := transaction.StartChild("gemini.followup_call")
		followup, followupErr := p.client.Models.GenerateContent(ctx, request.Model, contents, genConfig)
		followupSpan.Finish()
		if followupErr != nil {
			log.Printf("❌ GEMINI FOLLOWUP FAILED: %v", followupErr)
			transaction.SetTag("success", "false")
			sentry.CaptureException(followupErr)
			return nil, fmt.Errorf("gemini followup request failed: %w", followupErr)
		}

		usage = usage.Add(usageFromGeminiResponse(followup))
		resp = followup
	}

	text := resp.Text()
	log.Printf("📥 GEMINI RESPONSE: output_length=%d, tokens=%d", len(text), usage.TotalTokens)

	transaction.SetTag("success", "true")
	transaction.SetTag("tool_called", fmt.Sprintf("%t", toolName != ""))
	log.Printf("✅ GENERATION COMPLETED in %v", time.Since(startTime))

	return &GenerationResponse{
		Text:     text,
		ToolName: toolName,
		Usage:    usage,
	}, nil
}

// buildGeminiContents converts conversation messages to Gemini contents
func buildGeminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			log.Printf("⚠️  Skipping input message with empty content (role: %s)", msg.Role)
			continue
		}
		role := genai.Role(genai.RoleUser)
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// buildGeminiConfig converts GenerationRequest to Gemini generation config
func buildGeminiConfig(request *GenerationRequest) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{}

	if request.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(request.SystemPrompt, genai.RoleUser)
	}

	if len(request.Tools) > 0 {
		declarations := make([]*genai.FunctionDeclaration, 0, len(request.Tools))
		for _, schema := range request.Tools {
			declarations = append(declarations, &genai.FunctionDeclaration{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schemaFromJSON(schema.Parameters),
			})
		}
		genConfig.Tools = []*genai.Tool{
			{FunctionDeclarations: declarations},
		}
	}

	return genConfig
}

// schemaFromJSON converts a JSON Schema fragment into Gemini's schema type.
// Only the subset used by the shipped tool schemas is mapped: type,
// description, properties, items, required, and enum.
func schemaFromJSON(raw map[string]any) *genai.Schema {
	if raw == nil {
		return nil
	}

	schema := &genai.Schema{}
	if typeName, ok := raw["type"].(string); ok {
		schema.Type = geminiType(typeName)
	}
	if description, ok := raw["description"].(string); ok {
		schema.Description = description
	}
	if properties, ok := raw["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(properties))
		for name, value := range properties {
			if propMap, ok := value.(map[string]any); ok {
				schema.Properties[name] = schemaFromJSON(propMap)
			}
		}
	}
	if items, ok := raw["items"].(map[string]any); ok {
		schema.Items = schemaFromJSON(items)
	}
	if required, ok := raw["required"].([]any); ok {
		for _, value := range required {
			if name, ok := value.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	if enum, ok := raw["enum"].([]any); ok {
		for _, value := range enum {
			if option, ok := value.(string); ok {
				schema.Enum = append(schema.Enum, option)
			}
		}
	}

	return schema
}

// geminiType maps a JSON Schema type name to the Gemini schema type
func geminiType(name string) genai.Type {
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

// usageFromGeminiResponse converts Gemini usage metadata to TokenUsage
func usageFromGeminiResponse(resp *genai.GenerateContentResponse) TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}
