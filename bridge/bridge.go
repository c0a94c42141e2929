package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/cjell/REAPER/metrics"
)

// Operation vocabulary understood by the bridge script inside REAPER.
// These names are part of the wire contract: extend by adding entries,
// never by redefining existing ones.
const (
	CmdSetTempo     = "set_tempo"     // {bpm}
	CmdInsertTrack  = "insert_track"  // {index}
	CmdRemoveTrack  = "remove_track"  // {index}
	CmdSetCursor    = "set_cursor"    // {seconds}
	CmdInsertSample = "insert_sample" // {path, track}
)

// Default timing for the ack wait loop
const (
	DefaultTimeout      = 3 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// timeoutMessage is carried by the synthetic ack returned when REAPER never
// acknowledges a command within the timeout window.
const timeoutMessage = "ack timeout"

// Command is one outbound request to REAPER. On the wire it is a flat JSON
// object: id and type sit alongside the operation-specific payload fields.
type Command struct {
	ID      string
	Type    string
	Payload map[string]any
}

// MarshalJSON merges the payload fields into the top-level object.
func (c Command) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(c.Payload)+2)
	for k, v := range c.Payload {
		flat[k] = v
	}
	flat["id"] = c.ID
	flat["type"] = c.Type
	return json.Marshal(flat)
}

// Ack is the receiver's response to a Command. Like Command it travels as a
// flat JSON object; fields beyond id/ok/message land in Payload.
type Ack struct {
	ID      string
	OK      bool
	Message string
	Payload map[string]any
}

// MarshalJSON merges the payload fields into the top-level object.
// The message field is omitted when empty.
func (a Ack) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(a.Payload)+3)
	for k, v := range a.Payload {
		flat[k] = v
	}
	flat["id"] = a.ID
	flat["ok"] = a.OK
	if a.Message != "" {
		flat["message"] = a.Message
	}
	return json.Marshal(flat)
}

// ackFromMap builds an Ack from a decoded slot object. Fields with
// unexpected types are ignored rather than failing the read.
func ackFromMap(m map[string]any) Ack {
	ack := Ack{Payload: map[string]any{}}
	for k, v := range m {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				ack.ID = s
			}
		case "ok":
			if b, ok := v.(bool); ok {
				ack.OK = b
			}
		case "message":
			if s, ok := v.(string); ok {
				ack.Message = s
			}
		default:
			ack.Payload[k] = v
		}
	}
	return ack
}

// Bridge drives the correlated command/ack exchange with the script running
// inside REAPER. It is strictly synchronous: one command in flight at a time,
// each dispatch blocking until its ack arrives or times out.
type Bridge struct {
	cmdPath string
	ackPath string
	timeout time.Duration
	poll    time.Duration
	metrics *metrics.SentryMetrics
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTimeout overrides how long Dispatch waits for an ack.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithPollInterval overrides how often Dispatch re-reads the ack slot.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bridge) { b.poll = d }
}

// New creates a Bridge over the two slot files shared with REAPER.
func New(cmdPath, ackPath string, opts ...Option) *Bridge {
	b := &Bridge{
		cmdPath: cmdPath,
		ackPath: ackPath,
		timeout: DefaultTimeout,
		poll:    DefaultPollInterval,
		metrics: metrics.NewSentryMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dispatch writes one command to the command slot and blocks until REAPER
// acknowledges it or the timeout elapses. A timeout is not a Go error: it
// yields a synthetic failed Ack carrying the command's id, so callers handle
// it like any other failed operation. The error return covers only local
// failures writing the command slot.
func (b *Bridge) Dispatch(ctx context.Context, cmdType string, payload map[string]any) (Ack, error) {
	span := sentry.StartSpan(ctx, "bridge.dispatch")
	defer span.Finish()
	span.SetTag("command_type", cmdType)

	cmd := Command{ID: uuid.NewString(), Type: cmdType, Payload: payload}
	if err := writeSlot(b.cmdPath, cmd); err != nil {
		span.Status = sentry.SpanStatusInternalError
		return Ack{}, fmt.Errorf("write command slot: %w", err)
	}

	log.Printf("📤 [dispatch] type=%s id=%s payload=%v", cmdType, shortID(cmd.ID), payload)

	start := time.Now()
	ack, matched := b.waitForAck(cmd.ID)
	elapsed := time.Since(start)
	b.metrics.RecordDispatchDuration(span.Context(), cmdType, elapsed, matched)

	if !matched {
		log.Printf("⏰ [ack] TIMEOUT type=%s id=%s after %s", cmdType, shortID(cmd.ID), elapsed.Round(time.Millisecond))
		span.Status = sentry.SpanStatusDeadlineExceeded
		return ack, nil
	}

	log.Printf("📥 [ack] id=%s ok=%t message=%q", shortID(ack.ID), ack.OK, ack.Message)
	span.Status = sentry.SpanStatusOK
	return ack, nil
}

// waitForAck polls the ack slot for a matching id within the timeout window.
// A matched ack is consumed: the slot is reset to an empty object so the next
// dispatch cannot re-read stale data. A non-matching ack is left untouched.
// The bool reports whether a real ack arrived; false means the returned Ack
// is the synthetic timeout ack.
func (b *Bridge) waitForAck(id string) (Ack, bool) {
	deadline := time.Now().Add(b.timeout)
	for time.Now().Before(deadline) {
		slot := readSlot(b.ackPath)
		if ackID, _ := slot["id"].(string); ackID == id {
			if err := clearSlot(b.ackPath); err != nil {
				log.Printf("⚠️ Failed to clear ack slot: %v", err)
			}
			return ackFromMap(slot), true
		}
		time.Sleep(b.poll)
	}
	return Ack{ID: id, OK: false, Message: timeoutMessage}, false
}

// shortID returns the first 8 characters of a correlation id for log lines.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
