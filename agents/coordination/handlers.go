package coordination

import (
	"context"
	"errors"

	"github.com/cjell/REAPER/agents/beat"
	"github.com/cjell/REAPER/bridge"
	"github.com/cjell/REAPER/models"
	"github.com/cjell/REAPER/samples"
)

// Defaults applied when the model omits optional tool arguments
const (
	defaultBPM  = 120.0
	defaultBars = 1
)

// dispatcher issues one command to REAPER.
type dispatcher interface {
	Dispatch(ctx context.Context, cmdType string, payload map[string]any) (bridge.Ack, error)
}

// beatRunner runs the full beat sequence.
type beatRunner interface {
	AddBasicBeat(ctx context.Context, params beat.Params) (*beat.Result, error)
}

// sampleLister queries the sample library.
type sampleLister interface {
	List(category samples.Category, query string, limit int) ([]samples.Sample, error)
}

type listSamplesHandler struct {
	lib sampleLister
}

func (h *listSamplesHandler) Name() string { return ToolListSamples }

func (h *listSamplesHandler) Run(_ context.Context, args map[string]any, _ string) *models.ToolResult {
	category := samples.All
	if s, ok := getString(args, "category"); ok && s != "" {
		category = samples.Category(s)
	}
	query, _ := getString(args, "query")
	limit, ok := getInt(args, "limit")
	if !ok {
		limit = samples.DefaultListLimit
	}

	found, err := h.lib.List(category, query, limit)
	if err != nil {
		return models.Failf("Sample scan failed: %v", err)
	}

	return models.Success("", map[string]any{"count": len(found), "samples": found})
}

type insertTrackHandler struct {
	dispatcher dispatcher
}

func (h *insertTrackHandler) Name() string { return ToolInsertTrack }

func (h *insertTrackHandler) Run(ctx context.Context, args map[string]any, _ string) *models.ToolResult {
	index, _ := getInt(args, "index")

	ack, err := h.dispatcher.Dispatch(ctx, bridge.CmdInsertTrack, map[string]any{"index": index})
	if err != nil {
		return models.Failf("Dispatch failed: %v", err)
	}
	return ackResult(ack)
}

type removeTrackHandler struct {
	dispatcher dispatcher
}

func (h *removeTrackHandler) Name() string { return ToolRemoveTrack }

func (h *removeTrackHandler) Run(ctx context.Context, args map[string]any, _ string) *models.ToolResult {
	index, _ := getInt(args, "index")

	ack, err := h.dispatcher.Dispatch(ctx, bridge.CmdRemoveTrack, map[string]any{"index": index})
	if err != nil {
		return models.Failf("Dispatch failed: %v", err)
	}
	return ackResult(ack)
}

type setTempoHandler struct {
	dispatcher dispatcher
}

func (h *setTempoHandler) Name() string { return ToolSetTempo }

func (h *setTempoHandler) Run(ctx context.Context, args map[string]any, userText string) *models.ToolResult {
	// A tempo the user stated in plain words wins over the model's argument
	bpm, ok := ExtractBPM(userText)
	if !ok {
		if bpm, ok = getFloat(args, "bpm"); !ok {
			bpm = defaultBPM
		}
	}

	ack, err := h.dispatcher.Dispatch(ctx, bridge.CmdSetTempo, map[string]any{"bpm": bpm})
	if err != nil {
		return models.Failf("Dispatch failed: %v", err)
	}
	return ackResult(ack)
}

type addBasicBeatHandler struct {
	agent beatRunner
}

func (h *addBasicBeatHandler) Name() string { return ToolAddBasicBeat }

func (h *addBasicBeatHandler) Run(ctx context.Context, args map[string]any, userText string) *models.ToolResult {
	params := beat.Params{BPM: defaultBPM, Bars: defaultBars}
	if bpm, ok := getFloat(args, "bpm"); ok {
		params.BPM = bpm
	}
	if bpm, ok := ExtractBPM(userText); ok {
		params.BPM = bpm
	}
	if track, ok := getInt(args, "track"); ok {
		params.Track = track
	}
	if bars, ok := getInt(args, "bars"); ok && bars > 0 {
		params.Bars = bars
	}
	params.KickQuery, _ = getString(args, "kick_query")
	params.HatQuery, _ = getString(args, "hat_query")
	params.ClapQuery, _ = getString(args, "clap_query")

	result, err := h.agent.AddBasicBeat(ctx, params)
	if err != nil {
		var stepErr *beat.StepError
		if errors.As(err, &stepErr) {
			return &models.ToolResult{
				OK:      false,
				Message: stepErr.Error(),
				Data:    map[string]any{"step": stepErr.Step},
			}
		}
		return models.Failf("Beat failed: %v", err)
	}

	return &models.ToolResult{
		OK:      true,
		Message: result.Message,
		Data:    map[string]any{"used": result.Used, "hits": result.Hits},
	}
}

// ackResult converts a bridge ack into a tool result, keeping the correlation
// id and any receiver-reported fields visible to the model.
func ackResult(ack bridge.Ack) *models.ToolResult {
	data := map[string]any{"id": ack.ID}
	for k, v := range ack.Payload {
		data[k] = v
	}
	return &models.ToolResult{OK: ack.OK, Message: ack.Message, Data: data}
}
