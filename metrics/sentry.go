package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordTokenUsage records LLM token usage metrics
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens int) {
	if !m.enabled {
		return
	}

	// Try adding data directly to the transaction span instead of creating a child span
	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("llm.model", model)
		transaction.SetTag("llm.total_tokens", fmt.Sprintf("%d", totalTokens))
		transaction.SetData("llm.total_tokens", totalTokens)
		transaction.SetData("llm.input_tokens", inputTokens)
		transaction.SetData("llm.output_tokens", outputTokens)
	}

	// Also create a child span for detailed tracking
	span := sentry.StartSpan(ctx, "llm.token_usage")
	defer span.Finish()

	span.SetTag("model", model)
	span.SetTag("total_tokens", fmt.Sprintf("%d", totalTokens))

	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)

	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordGenerationDuration records generation request duration
func (m *SentryMetrics) RecordGenerationDuration(ctx context.Context, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Generation Request: %t", success)
}

// RecordDispatchDuration records how long REAPER took to acknowledge a command
func (m *SentryMetrics) RecordDispatchDuration(ctx context.Context, commandType string, duration time.Duration, ok bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "bridge.ack_wait")
	defer span.Finish()

	span.SetTag("command_type", commandType)
	span.SetTag("ok", fmt.Sprintf("%t", ok))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("ok", ok)

	if ok {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusDeadlineExceeded
	}

	span.Description = fmt.Sprintf("Dispatch: %s", commandType)
}

// RecordBeatRun records the outcome of a beat-building run
func (m *SentryMetrics) RecordBeatRun(ctx context.Context, hits int, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "beat.run")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetTag("hits", fmt.Sprintf("%d", hits))

	span.SetData("hits", hits)
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("success", success)

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("Beat Run: %d hits", hits)
}
