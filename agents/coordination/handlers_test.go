package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjell/REAPER/agents/beat"
	"github.com/cjell/REAPER/bridge"
	"github.com/cjell/REAPER/samples"
)

type fakeDispatcher struct {
	lastType    string
	lastPayload map[string]any
	ack         bridge.Ack
	err         error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cmdType string, payload map[string]any) (bridge.Ack, error) {
	d.lastType = cmdType
	d.lastPayload = payload
	return d.ack, d.err
}

type fakeLister struct {
	found       []samples.Sample
	err         error
	gotCategory samples.Category
	gotQuery    string
	gotLimit    int
}

func (l *fakeLister) List(category samples.Category, query string, limit int) ([]samples.Sample, error) {
	l.gotCategory = category
	l.gotQuery = query
	l.gotLimit = limit
	return l.found, l.err
}

type fakeBeatRunner struct {
	gotParams beat.Params
	result    *beat.Result
	err       error
}

func (b *fakeBeatRunner) AddBasicBeat(_ context.Context, params beat.Params) (*beat.Result, error) {
	b.gotParams = params
	return b.result, b.err
}

func TestListSamplesHandler(t *testing.T) {
	lister := &fakeLister{found: []samples.Sample{
		{Category: samples.Kicks, Name: "808_kick.wav", Path: "/sounds/kicks/808_kick.wav"},
		{Category: samples.Kicks, Name: "punchy_kick.wav", Path: "/sounds/kicks/punchy_kick.wav"},
	}}
	h := &listSamplesHandler{lib: lister}

	result := h.Run(context.Background(), map[string]any{"category": "kicks", "query": "kick", "limit": 5.0}, "")

	require.True(t, result.OK)
	assert.Equal(t, samples.Kicks, lister.gotCategory)
	assert.Equal(t, "kick", lister.gotQuery)
	assert.Equal(t, 5, lister.gotLimit)
	assert.Equal(t, 2, result.Data["count"])

	// The whole result flattens into one JSON object for the model
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, true, flat["ok"])
	assert.Equal(t, 2.0, flat["count"])
	assert.Len(t, flat["samples"], 2)
}

func TestListSamplesHandlerDefaults(t *testing.T) {
	lister := &fakeLister{}
	h := &listSamplesHandler{lib: lister}

	result := h.Run(context.Background(), map[string]any{}, "")

	require.True(t, result.OK)
	assert.Equal(t, samples.All, lister.gotCategory)
	assert.Empty(t, lister.gotQuery)
	assert.Equal(t, samples.DefaultListLimit, lister.gotLimit)
	assert.Equal(t, 0, result.Data["count"])
}

func TestListSamplesHandlerScanError(t *testing.T) {
	h := &listSamplesHandler{lib: &fakeLister{err: errors.New("permission denied")}}

	result := h.Run(context.Background(), map[string]any{"category": "kicks"}, "")

	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "Sample scan failed")
}

func TestInsertTrackHandler(t *testing.T) {
	d := &fakeDispatcher{ack: bridge.Ack{
		ID:      "abc-123",
		OK:      true,
		Payload: map[string]any{"track_count": 3.0},
	}}
	h := &insertTrackHandler{dispatcher: d}

	result := h.Run(context.Background(), map[string]any{"index": 2.0}, "")

	assert.Equal(t, bridge.CmdInsertTrack, d.lastType)
	assert.Equal(t, map[string]any{"index": 2}, d.lastPayload)

	// The ack passes through: id and receiver fields stay visible
	require.True(t, result.OK)
	assert.Equal(t, "abc-123", result.Data["id"])
	assert.Equal(t, 3.0, result.Data["track_count"])
}

func TestInsertTrackHandlerDefaultsIndex(t *testing.T) {
	d := &fakeDispatcher{ack: bridge.Ack{ID: "abc", OK: true}}
	h := &insertTrackHandler{dispatcher: d}

	h.Run(context.Background(), map[string]any{}, "")

	assert.Equal(t, map[string]any{"index": 0}, d.lastPayload)
}

func TestRemoveTrackHandler(t *testing.T) {
	d := &fakeDispatcher{ack: bridge.Ack{ID: "abc", OK: false, Message: "no such track"}}
	h := &removeTrackHandler{dispatcher: d}

	result := h.Run(context.Background(), map[string]any{"index": 7.0}, "")

	assert.Equal(t, bridge.CmdRemoveTrack, d.lastType)
	assert.Equal(t, map[string]any{"index": 7}, d.lastPayload)
	assert.False(t, result.OK)
	assert.Equal(t, "no such track", result.Message)
}

func TestSetTempoHandler(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		userText string
		wantBPM  float64
	}{
		{
			name:     "user text beats model argument",
			args:     map[string]any{"bpm": 100.0},
			userText: "make it 95 bpm",
			wantBPM:  95,
		},
		{
			name:     "model argument without user tempo",
			args:     map[string]any{"bpm": 100.0},
			userText: "a bit faster please",
			wantBPM:  100,
		},
		{
			name:     "default when nothing given",
			args:     map[string]any{},
			userText: "set the tempo",
			wantBPM:  defaultBPM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{ack: bridge.Ack{ID: "abc", OK: true}}
			h := &setTempoHandler{dispatcher: d}

			result := h.Run(context.Background(), tt.args, tt.userText)

			require.True(t, result.OK)
			assert.Equal(t, bridge.CmdSetTempo, d.lastType)
			assert.Equal(t, map[string]any{"bpm": tt.wantBPM}, d.lastPayload)
		})
	}
}

func TestSetTempoHandlerDispatchError(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("slot write failed")}
	h := &setTempoHandler{dispatcher: d}

	result := h.Run(context.Background(), map[string]any{"bpm": 120.0}, "")

	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "Dispatch failed")
}

func TestAddBasicBeatHandlerParams(t *testing.T) {
	runner := &fakeBeatRunner{result: &beat.Result{Message: "done"}}
	h := &addBasicBeatHandler{agent: runner}

	args := map[string]any{
		"bpm":        90.0,
		"track":      2.0,
		"bars":       3.0,
		"kick_query": "808",
		"hat_query":  "closed",
		"clap_query": "tight",
	}
	result := h.Run(context.Background(), args, "make a beat")

	require.True(t, result.OK)
	assert.Equal(t, beat.Params{
		BPM:       90,
		Track:     2,
		Bars:      3,
		KickQuery: "808",
		HatQuery:  "closed",
		ClapQuery: "tight",
	}, runner.gotParams)
}

func TestAddBasicBeatHandlerUserTempoWins(t *testing.T) {
	runner := &fakeBeatRunner{result: &beat.Result{Message: "done"}}
	h := &addBasicBeatHandler{agent: runner}

	h.Run(context.Background(), map[string]any{"bpm": 90.0}, "beat at 100 bpm")

	assert.Equal(t, 100.0, runner.gotParams.BPM)
}

func TestAddBasicBeatHandlerDefaults(t *testing.T) {
	runner := &fakeBeatRunner{result: &beat.Result{Message: "done"}}
	h := &addBasicBeatHandler{agent: runner}

	h.Run(context.Background(), map[string]any{}, "make a beat")

	assert.Equal(t, beat.Params{BPM: defaultBPM, Track: 0, Bars: defaultBars}, runner.gotParams)
}

func TestAddBasicBeatHandlerResult(t *testing.T) {
	runner := &fakeBeatRunner{result: &beat.Result{
		Message: "Added 1 bar(s) at 120 BPM on track 0.",
		Used:    beat.UsedSamples{Kick: "808_kick.wav", Clap: "clap_tight.wav", Hat: "hat_closed.wav"},
		Hits:    6,
	}}
	h := &addBasicBeatHandler{agent: runner}

	result := h.Run(context.Background(), map[string]any{}, "")

	require.True(t, result.OK)
	assert.Equal(t, "Added 1 bar(s) at 120 BPM on track 0.", result.Message)
	assert.Equal(t, 6, result.Data["hits"])
	assert.Equal(t, beat.UsedSamples{Kick: "808_kick.wav", Clap: "clap_tight.wav", Hat: "hat_closed.wav"}, result.Data["used"])
}

func TestAddBasicBeatHandlerStepError(t *testing.T) {
	runner := &fakeBeatRunner{err: &beat.StepError{Step: bridge.CmdSetTempo, Message: "ack timeout"}}
	h := &addBasicBeatHandler{agent: runner}

	result := h.Run(context.Background(), map[string]any{}, "")

	assert.False(t, result.OK)
	assert.Equal(t, "Failed setting tempo: ack timeout", result.Message)
	assert.Equal(t, bridge.CmdSetTempo, result.Data["step"])
}

func TestAddBasicBeatHandlerInfraError(t *testing.T) {
	runner := &fakeBeatRunner{err: errors.New("slot write failed")}
	h := &addBasicBeatHandler{agent: runner}

	result := h.Run(context.Background(), map[string]any{}, "")

	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "Beat failed")
	assert.Nil(t, result.Data)
}
