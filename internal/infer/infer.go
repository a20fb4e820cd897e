// Package infer is the inference orchestrator (spec.md §4.F): it owns the
// three ONNX sessions per model bundle (duration, pitch, decoder), builds
// their input tensors, applies post-processing, and routes style ids to
// the model bundle that serves them.
package infer

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/getcharzp/onnxruntime_purego"

	"github.com/voicevoxcore/voicevoxcore-go/model"
	"github.com/voicevoxcore/voicevoxcore-go/phoneme"
	"github.com/voicevoxcore/voicevoxcore-go/voicevoxerror"
)

// MinDuration is the floor applied to every duration the model returns.
const MinDuration float32 = 0.01

// padFrames pads the decoder's input on each side to avoid boundary
// clicks: round(0.4 * 24000 / 256).
const padFrames = 38

const framesPerSample = 256

// Predictor is what the pipeline driver needs from this package. Defined
// as an interface so the pipeline can be tested against a fake model
// without an ONNX runtime in the loop.
type Predictor interface {
	PredictDurations(ctx context.Context, phonemeIDs []int64, style model.StyleID) ([]float32, error)
	PredictPitches(ctx context.Context, vowelIDs, consonantIDs, startAccent, endAccent, startPhrase, endPhrase []int64, style model.StyleID) ([]float32, error)
	Decode(ctx context.Context, f0 []float32, phonemeOneHot [][]float32, style model.StyleID) ([]float32, error)
}

// ModelBundle is three inference sessions logically owned together
// (spec.md §3 Model bundle).
type ModelBundle struct {
	Duration *ort.Session
	Pitch    *ort.Session
	Decoder  *ort.Session
}

func (b *ModelBundle) destroy() {
	if b == nil {
		return
	}
	if b.Duration != nil {
		b.Duration.Destroy()
	}
	if b.Pitch != nil {
		b.Pitch.Destroy()
	}
	if b.Decoder != nil {
		b.Decoder.Destroy()
	}
}

// Opener constructs the three sessions of a model bundle from file paths.
// internal/onnxsession.Engine.NewSession satisfies this signature directly.
type Opener func(modelPath string) (*ort.Session, error)

// Orchestrator is the owned state of §4.F: per-model sessions, each model's
// shared metadata JSON, the style routing table, and the supported-style
// set derived from that metadata. Per spec.md §5, populating these maps
// requires the writer lock; once a slot is populated, concurrent readers
// need no further synchronization beyond the brief read lock each lookup
// takes.
type Orchestrator struct {
	open Opener

	mu        sync.RWMutex
	bundles   map[model.ModelID]*ModelBundle
	metadata  map[model.ModelID][]model.SpeakerMeta
	routing   map[model.StyleID]model.RouteTarget
	supported map[model.StyleID]struct{}
}

// New builds an empty orchestrator. open is used by LoadModel to turn a
// model-file path into a session; pass internal/onnxsession.Engine.NewSession.
func New(open Opener) *Orchestrator {
	return &Orchestrator{
		open:      open,
		bundles:   make(map[model.ModelID]*ModelBundle),
		metadata:  make(map[model.ModelID][]model.SpeakerMeta),
		routing:   make(map[model.StyleID]model.RouteTarget),
		supported: make(map[model.StyleID]struct{}),
	}
}

// LoadModel opens the three sessions for a model id, parses its metas.json
// byte stream, and marks every style id the metadata exposes as supported.
// A style id with no route yet is routed to this model; an existing route
// (from SetRoute or an earlier LoadModel) is kept. Safe to call again with
// different paths/metadata to replace an already-loaded model.
func (o *Orchestrator) LoadModel(id model.ModelID, durationPath, pitchPath, decoderPath string, metadataJSON []byte) error {
	metas, err := ParseMetadata(metadataJSON)
	if err != nil {
		return err
	}

	duration, err := o.open(durationPath)
	if err != nil {
		return voicevoxerror.Wrap(voicevoxerror.ModelNotLoaded, err)
	}
	pitch, err := o.open(pitchPath)
	if err != nil {
		duration.Destroy()
		return voicevoxerror.Wrap(voicevoxerror.ModelNotLoaded, err)
	}
	decoder, err := o.open(decoderPath)
	if err != nil {
		duration.Destroy()
		pitch.Destroy()
		return voicevoxerror.Wrap(voicevoxerror.ModelNotLoaded, err)
	}

	o.mu.Lock()
	if old, ok := o.bundles[id]; ok {
		old.destroy()
	}
	o.bundles[id] = &ModelBundle{Duration: duration, Pitch: pitch, Decoder: decoder}
	o.metadata[id] = metas

	for _, s := range stylesOf(metas) {
		o.supported[s] = struct{}{}
		if _, routed := o.routing[s]; !routed {
			o.routing[s] = model.RouteTarget{ModelID: id, ModelStyleID: s}
		}
	}
	o.mu.Unlock()
	return nil
}

// Metadata returns the speaker records LoadModel parsed for id, or nil if
// no model was loaded under that id.
func (o *Orchestrator) Metadata(id model.ModelID) []model.SpeakerMeta {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.metadata[id]
}

// SetRoute overrides the default identity routing for a style id.
func (o *Orchestrator) SetRoute(style model.StyleID, target model.RouteTarget) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routing[style] = target
}

// Close releases every loaded session.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, b := range o.bundles {
		b.destroy()
	}
	o.bundles = make(map[model.ModelID]*ModelBundle)
	o.metadata = make(map[model.ModelID][]model.SpeakerMeta)
}

// route resolves a style id to (model id, model-local style id), defaulting
// to (0, styleID) per spec.md §4.F when no explicit entry exists.
func (o *Orchestrator) route(style model.StyleID) model.RouteTarget {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if t, ok := o.routing[style]; ok {
		return t
	}
	return model.RouteTarget{ModelID: 0, ModelStyleID: style}
}

func (o *Orchestrator) validateStyle(style model.StyleID) error {
	o.mu.RLock()
	_, ok := o.supported[style]
	o.mu.RUnlock()
	if !ok {
		return voicevoxerror.New(voicevoxerror.StyleNotFound, fmt.Sprintf("style %d", style))
	}
	return nil
}

func (o *Orchestrator) bundleFor(style model.StyleID) (*ModelBundle, model.StyleID, error) {
	if err := o.validateStyle(style); err != nil {
		return nil, 0, err
	}
	target := o.route(style)
	o.mu.RLock()
	b, ok := o.bundles[target.ModelID]
	o.mu.RUnlock()
	if !ok {
		return nil, 0, voicevoxerror.New(voicevoxerror.ModelNotLoaded, fmt.Sprintf("model %d", target.ModelID))
	}
	return b, target.ModelStyleID, nil
}

// PredictDurations runs yukarin_s: phoneme_list/speaker_id in, phoneme
// durations out, each clamped to MinDuration.
func (o *Orchestrator) PredictDurations(ctx context.Context, phonemeIDs []int64, style model.StyleID) ([]float32, error) {
	bundle, modelStyle, err := o.bundleFor(style)
	if err != nil {
		return nil, err
	}

	phonemeList, err := ort.NewTensor([]int64{int64(len(phonemeIDs))}, phonemeIDs)
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer phonemeList.Destroy()

	speakerID, err := ort.NewTensor([]int64{1}, []int64{int64(modelStyle)})
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer speakerID.Destroy()

	outputs, err := runSession(ctx, bundle.Duration, map[string]*ort.Value{
		"phoneme_list": phonemeList,
		"speaker_id":   speakerID,
	})
	if err != nil {
		return nil, err
	}
	defer destroyAll(outputs)

	raw, err := ort.GetTensorData[float32](outputs["phoneme_length"])
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	return clampDurations(raw), nil
}

// clampDurations floors every duration at MinDuration. Split out from
// PredictDurations so the clamp arithmetic can be unit tested without an
// ONNX session in the loop.
func clampDurations(raw []float32) []float32 {
	out := make([]float32, len(raw))
	for i, d := range raw {
		if d < MinDuration {
			d = MinDuration
		}
		out[i] = d
	}
	return out
}

// PredictPitches runs yukarin_sa: six per-mora boundary vectors plus
// speaker_id in, f0 per mora out.
func (o *Orchestrator) PredictPitches(ctx context.Context, vowelIDs, consonantIDs, startAccent, endAccent, startPhrase, endPhrase []int64, style model.StyleID) ([]float32, error) {
	bundle, modelStyle, err := o.bundleFor(style)
	if err != nil {
		return nil, err
	}

	m := int64(len(vowelIDs))
	tensors := map[string]*ort.Value{}
	named := []struct {
		name string
		data []int64
	}{
		{"vowel_phoneme_list", vowelIDs},
		{"consonant_phoneme_list", consonantIDs},
		{"start_accent_list", startAccent},
		{"end_accent_list", endAccent},
		{"start_accent_phrase_list", startPhrase},
		{"end_accent_phrase_list", endPhrase},
	}
	for _, n := range named {
		t, err := ort.NewTensor([]int64{m}, n.data)
		if err != nil {
			destroyAll(tensors)
			return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
		}
		tensors[n.name] = t
	}
	defer destroyAll(tensors)

	length, err := ort.NewTensor([]int64{}, []int64{m})
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer length.Destroy()
	tensors["length"] = length

	speakerID, err := ort.NewTensor([]int64{1}, []int64{int64(modelStyle)})
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer speakerID.Destroy()
	tensors["speaker_id"] = speakerID

	outputs, err := runSession(ctx, bundle.Pitch, tensors)
	if err != nil {
		return nil, err
	}
	defer destroyAll(outputs)

	raw, err := ort.GetTensorData[float32](outputs["f0_list"])
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	f0 := make([]float32, len(raw))
	copy(f0, raw)
	return f0, nil
}

// Decode runs the waveform decoder with boundary padding (spec.md §4.F):
// padFrames of silence/pau one-hot are added to each side before the call
// and padFrames*256 samples are trimmed from each end of the result.
func (o *Orchestrator) Decode(ctx context.Context, f0 []float32, phonemeOneHot [][]float32, style model.StyleID) ([]float32, error) {
	bundle, modelStyle, err := o.bundleFor(style)
	if err != nil {
		return nil, err
	}

	paddedF0 := padF0(f0)
	paddedPhoneme := padPhoneme(phonemeOneHot)

	raw, err := decodeRaw(ctx, bundle.Decoder, paddedF0, paddedPhoneme, modelStyle)
	if err != nil {
		return nil, err
	}

	trim := padFrames * framesPerSample
	if len(raw) <= 2*trim {
		return nil, voicevoxerror.New(voicevoxerror.InferenceError, "decoder returned fewer samples than the padding it was given")
	}
	wave := make([]float32, len(raw)-2*trim)
	copy(wave, raw[trim:len(raw)-trim])
	return wave, nil
}

func padF0(f0 []float32) []float32 {
	out := make([]float32, len(f0)+2*padFrames)
	copy(out[padFrames:], f0)
	return out
}

func padPhoneme(rows [][]float32) [][]float32 {
	width := phoneme.NumPhonemes()
	out := make([][]float32, len(rows)+2*padFrames)
	pauRow := make([]float32, width)
	pauRow[phoneme.MustIDOf(phoneme.Pause)] = 1
	for i := 0; i < padFrames; i++ {
		out[i] = pauRow
		out[len(out)-1-i] = pauRow
	}
	copy(out[padFrames:], rows)
	return out
}

func decodeRaw(ctx context.Context, session *ort.Session, f0 []float32, phonemeOneHot [][]float32, modelStyle model.StyleID) ([]float32, error) {
	t := int64(len(f0))
	width := int64(phoneme.NumPhonemes())

	flatPhoneme := make([]float32, 0, t*width)
	for _, row := range phonemeOneHot {
		flatPhoneme = append(flatPhoneme, row...)
	}

	f0Tensor, err := ort.NewTensor([]int64{t, 1}, f0)
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer f0Tensor.Destroy()

	phonemeTensor, err := ort.NewTensor([]int64{t, width}, flatPhoneme)
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer phonemeTensor.Destroy()

	speakerID, err := ort.NewTensor([]int64{1}, []int64{int64(modelStyle)})
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	defer speakerID.Destroy()

	outputs, err := runSession(ctx, session, map[string]*ort.Value{
		"f0":         f0Tensor,
		"phoneme":    phonemeTensor,
		"speaker_id": speakerID,
	})
	if err != nil {
		return nil, err
	}
	defer destroyAll(outputs)

	raw, err := ort.GetTensorData[float32](outputs["wave"])
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	wave := make([]float32, len(raw))
	copy(wave, raw)
	return wave, nil
}

// WarmUp forces the decoder's allocator to expand once, right after
// loading a model on GPU, by running it on zeroed T=500 inputs and
// discarding the result.
func (o *Orchestrator) WarmUp(ctx context.Context, id model.ModelID) error {
	o.mu.RLock()
	bundle, ok := o.bundles[id]
	o.mu.RUnlock()
	if !ok {
		return voicevoxerror.New(voicevoxerror.ModelNotLoaded, fmt.Sprintf("model %d", id))
	}
	const t = 500
	f0 := make([]float32, t)
	rows := make([][]float32, t)
	width := phoneme.NumPhonemes()
	for i := range rows {
		rows[i] = make([]float32, width)
	}
	_, err := decodeRaw(ctx, bundle.Decoder, f0, rows, 0)
	return err
}

func runSession(ctx context.Context, session *ort.Session, inputs map[string]*ort.Value) (map[string]*ort.Value, error) {
	if session == nil {
		return nil, voicevoxerror.New(voicevoxerror.NotInitialized, "session not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outputs, err := session.Run(inputs)
	if err != nil {
		return nil, voicevoxerror.Wrap(voicevoxerror.InferenceError, err)
	}
	return outputs, nil
}

func destroyAll(values map[string]*ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}
