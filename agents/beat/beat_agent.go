package beat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cjell/REAPER/bridge"
	"github.com/cjell/REAPER/metrics"
	"github.com/cjell/REAPER/samples"
)

// Dispatcher issues one command to REAPER and reports its acknowledgment.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmdType string, payload map[string]any) (bridge.Ack, error)
}

// Catalog resolves sample queries against the local library.
type Catalog interface {
	PickFirst(category samples.Category, query string) (*samples.Sample, error)
}

// Params describes one beat-building request.
type Params struct {
	BPM       float64
	Track     int
	Bars      int
	KickQuery string
	HatQuery  string
	ClapQuery string
}

// UsedSamples reports which sample each percussion role resolved to.
type UsedSamples struct {
	Kick string `json:"kick"`
	Clap string `json:"clap"`
	Hat  string `json:"hat"`
}

// Result summarizes a completed beat run.
type Result struct {
	Message string      `json:"message"`
	Used    UsedSamples `json:"used"`
	Hits    int         `json:"hits"`
	BPM     float64     `json:"bpm"`
	Track   int         `json:"track"`
	Bars    int         `json:"bars"`
}

// stepResolve marks a failure during sample resolution, before any command
// has been issued.
const stepResolve = "resolve"

// StepError reports which step of the beat sequence failed. The sequence
// aborts on the first failed step.
type StepError struct {
	Step    string // stepResolve or the command type that failed
	Message string
}

func (e *StepError) Error() string {
	switch e.Step {
	case stepResolve:
		return e.Message
	case bridge.CmdSetTempo:
		return fmt.Sprintf("Failed setting tempo: %s", e.Message)
	default:
		return fmt.Sprintf("Failed %s: %s", e.Step, e.Message)
	}
}

// BeatAgent drives a deterministic beat onto a REAPER track: resolve one
// sample per role, set the tempo, then walk the plan issuing cursor moves
// and sample inserts.
type BeatAgent struct {
	dispatcher Dispatcher
	catalog    Catalog
	metrics    *metrics.SentryMetrics
}

// NewBeatAgent creates a new beat agent
func NewBeatAgent(dispatcher Dispatcher, catalog Catalog) *BeatAgent {
	agent := &BeatAgent{
		dispatcher: dispatcher,
		catalog:    catalog,
		metrics:    metrics.NewSentryMetrics(),
	}

	log.Printf("🥁 BEAT AGENT INITIALIZED")

	return agent
}

// AddBasicBeat resolves samples and issues the full command sequence for the
// requested pattern. Failures surface as *StepError: resolution failures
// issue no commands at all, and a failed command stops the sequence
// immediately. A non-StepError means local infrastructure broke (the command
// slot could not be written).
func (a *BeatAgent) AddBasicBeat(ctx context.Context, params Params) (*Result, error) {
	startTime := time.Now()
	log.Printf("🥁 BEAT REQUEST STARTED (%.0f BPM, track %d, %d bars)", params.BPM, params.Track, params.Bars)

	transaction := sentry.StartTransaction(ctx, "beat.add_basic_beat")
	defer transaction.Finish()

	transaction.SetTag("bpm", fmt.Sprintf("%.0f", params.BPM))
	transaction.SetTag("bars", fmt.Sprintf("%d", params.Bars))
	ctx = transaction.Context()

	kick, err := a.resolve(samples.Kicks, params.KickQuery)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}
	hat, err := a.resolve(samples.Hats, params.HatQuery)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}
	clap, err := a.resolve(samples.Claps, params.ClapQuery)
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}

	if kick == nil || hat == nil || clap == nil {
		transaction.SetTag("success", "false")
		return nil, &StepError{
			Step:    stepResolve,
			Message: "Missing samples in one or more categories. Check your sounds folders.",
		}
	}

	log.Printf("🔍 SAMPLES RESOLVED: kick=%s clap=%s hat=%s", kick.Name, clap.Name, hat.Name)

	// Tempo goes first so every cursor position lands on the new grid
	ack, err := a.dispatcher.Dispatch(ctx, bridge.CmdSetTempo, map[string]any{"bpm": params.BPM})
	if err != nil {
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("dispatch %s: %w", bridge.CmdSetTempo, err)
	}
	if !ack.OK {
		transaction.SetTag("success", "false")
		return nil, &StepError{Step: bridge.CmdSetTempo, Message: ack.Message}
	}

	hits := buildPlan(params.Bars, params.Track, kick.Path, clap.Path, hat.Path)
	for _, hit := range hits {
		seconds := beatsToSeconds(hit.Beat, params.BPM)

		ack, err = a.dispatcher.Dispatch(ctx, bridge.CmdSetCursor, map[string]any{"seconds": seconds})
		if err != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("dispatch %s: %w", bridge.CmdSetCursor, err)
		}
		if !ack.OK {
			transaction.SetTag("success", "false")
			return nil, &StepError{Step: bridge.CmdSetCursor, Message: ack.Message}
		}

		ack, err = a.dispatcher.Dispatch(ctx, bridge.CmdInsertSample, map[string]any{"path": hit.Path, "track": hit.Track})
		if err != nil {
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("dispatch %s: %w", bridge.CmdInsertSample, err)
		}
		if !ack.OK {
			transaction.SetTag("success", "false")
			return nil, &StepError{Step: bridge.CmdInsertSample, Message: ack.Message}
		}
	}

	result := &Result{
		Message: fmt.Sprintf("Added %d bar(s) at %.0f BPM on track %d.", params.Bars, params.BPM, params.Track),
		Used:    UsedSamples{Kick: kick.Name, Clap: clap.Name, Hat: hat.Name},
		Hits:    len(hits),
		BPM:     params.BPM,
		Track:   params.Track,
		Bars:    params.Bars,
	}

	transaction.SetTag("success", "true")
	transaction.SetTag("hit_count", fmt.Sprintf("%d", len(hits)))

	duration := time.Since(startTime)
	a.metrics.RecordBeatRun(ctx, len(hits), duration, true)

	log.Printf("✅ BEAT COMPLETE: %d hits in %v", len(hits), duration)

	return result, nil
}

// resolve picks the first sample matching query, falling back to the first
// sample in the category when the query has no match. A nil sample with nil
// error means the category itself is empty.
func (a *BeatAgent) resolve(category samples.Category, query string) (*samples.Sample, error) {
	s, err := a.catalog.PickFirst(category, query)
	if err != nil {
		return nil, fmt.Errorf("resolve %s sample: %w", category, err)
	}
	if s == nil && query != "" {
		if s, err = a.catalog.PickFirst(category, ""); err != nil {
			return nil, fmt.Errorf("resolve %s sample: %w", category, err)
		}
	}
	return s, nil
}
