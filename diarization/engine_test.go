package diarization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/kbukum/voiceid/embedding"
	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/rangecache"
	"github.com/kbukum/voiceid/speaker"
	"github.com/kbukum/voiceid/storage/local"
	"github.com/kbukum/voiceid/transcription"
)

type fakeTranscriber struct {
	calls    atomic.Int32
	segments []transcription.Segment
}

func (f *fakeTranscriber) Name() string                       { return "fake" }
func (f *fakeTranscriber) IsAvailable(_ context.Context) bool { return true }
func (f *fakeTranscriber) Model() string                      { return "tiny" }

func (f *fakeTranscriber) Transcribe(_ context.Context, _ transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	f.calls.Add(1)
	return &transcription.TranscriptionResponse{Segments: f.segments}, nil
}

// twoSpeakerTalk has speaker A in [0, 3) and speaker B in [3, 6).
func twoSpeakerTalk() *fakeTranscriber {
	words := func(offset float64) []transcription.Word {
		return []transcription.Word{
			{Start: offset, End: offset + 0.3, Text: "one"},
			{Start: offset + 0.5, End: offset + 0.8, Text: "two"},
			{Start: offset + 1.0, End: offset + 1.3, Text: "three"},
		}
	}
	return &fakeTranscriber{segments: []transcription.Segment{
		{Start: 0, End: 1.3, Text: "one two three", Words: words(0)},
		{Start: 3, End: 4.3, Text: "one two three", Words: words(3)},
	}}
}

type fakeEmbedder struct {
	calls   atomic.Int32
	initErr error
	fail    error
}

func (f *fakeEmbedder) Name() string                       { return "fake-embedder" }
func (f *fakeEmbedder) IsAvailable(_ context.Context) bool { return true }
func (f *fakeEmbedder) Init(_ context.Context) error       { return f.initErr }

func (f *fakeEmbedder) Execute(_ context.Context, req embedding.Request) (embedding.Vector, error) {
	f.calls.Add(1)
	if f.fail != nil {
		return nil, f.fail
	}
	if req.Start < 3 {
		return embedding.Vector{1, 0, 0}, nil
	}
	return embedding.Vector{0, 1, 0}, nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Window = 0
	return opts
}

func newTestEngine(t *testing.T, emb embedding.Provider, speakers speaker.Store, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(testOptions(), emb, speakers, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func speakersOf(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Speaker
	}
	return out
}

func TestEngine_Diarize(t *testing.T) {
	ctx := context.Background()
	tr := twoSpeakerTalk()
	emb := &fakeEmbedder{}
	store := speaker.NewMemoryStore(speaker.Speaker{Name: "Alice", Embeddings: []embedding.Vector{{1, 0, 0}}})
	e := newTestEngine(t, emb, store, WithTranscriber(tr))

	resp, err := e.Diarize(ctx, DiarizationRequest{AudioPath: "/data/talk.wav", End: 6})
	if err != nil {
		t.Fatal(err)
	}
	if got := speakersOf(resp.Segments); fmt.Sprint(got) != "[Alice SPEAKER_1]" {
		t.Fatalf("speakers = %v", got)
	}
	if resp.NumSpeakers != 2 {
		t.Errorf("NumSpeakers = %d", resp.NumSpeakers)
	}
	if resp.Segments[1].Start != 3 || resp.Segments[1].Text != "one two three" {
		t.Errorf("second segment = %+v", resp.Segments[1])
	}
	st := resp.Stats
	if st.Units != 6 || st.Embedded != 6 || st.Segments != 2 || st.Clusters != 2 || st.Identified != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.RunID == "" || st.Strategy != DefaultStrategy {
		t.Errorf("run id %q strategy %q", st.RunID, st.Strategy)
	}
	if st.TranscriptionCached || st.DiarizationCached || st.IdentificationCached {
		t.Errorf("first run reported cache hits: %+v", st)
	}

	// Same range again is served entirely from the identification cache.
	again, err := e.Diarize(ctx, DiarizationRequest{AudioPath: "/data/talk.wav", End: 6})
	if err != nil {
		t.Fatal(err)
	}
	if !again.Stats.IdentificationCached {
		t.Error("second run missed the identification cache")
	}
	if a := again.Stats; a.Segments != 2 || a.Clusters != 2 || a.Identified != 1 || a.Excluded != 0 {
		t.Errorf("cached run stats = %+v", a)
	}
	if tr.calls.Load() != 1 || emb.calls.Load() != 6 {
		t.Errorf("transcriber calls = %d, embedder calls = %d", tr.calls.Load(), emb.calls.Load())
	}

	// A sub-range is a hit and only returns overlapping segments.
	sub, err := e.Diarize(ctx, DiarizationRequest{AudioPath: "/data/talk.wav", Start: 3.2, End: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Stats.IdentificationCached || len(sub.Segments) != 1 || sub.Segments[0].Speaker != "SPEAKER_1" {
		t.Errorf("sub-range = %+v", sub)
	}
}

func TestEngine_EnrollmentInvalidatesIdentification(t *testing.T) {
	ctx := context.Background()
	tr := twoSpeakerTalk()
	emb := &fakeEmbedder{}
	store := speaker.NewMemoryStore(speaker.Speaker{Name: "Alice", Embeddings: []embedding.Vector{{1, 0, 0}}})
	e := newTestEngine(t, emb, store, WithTranscriber(tr))
	req := DiarizationRequest{AudioPath: "talk.wav", End: 6}

	if _, err := e.Diarize(ctx, req); err != nil {
		t.Fatal(err)
	}
	if err := store.AddEmbedding(ctx, "Bob", embedding.Vector{0, 1, 0}); err != nil {
		t.Fatal(err)
	}

	resp, err := e.Diarize(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Stats.IdentificationCached || !resp.Stats.DiarizationCached {
		t.Errorf("cache flags = %+v", resp.Stats)
	}
	if resp.Stats.Clusters != 2 || resp.Stats.Identified != 2 {
		t.Errorf("stats after diarization hit = %+v", resp.Stats)
	}
	if got := speakersOf(resp.Segments); fmt.Sprint(got) != "[Alice Bob]" {
		t.Errorf("speakers = %v", got)
	}
	if emb.calls.Load() != 6 {
		t.Errorf("embedder calls = %d, want 6", emb.calls.Load())
	}
}

func TestEngine_LongerRangeRecomputes(t *testing.T) {
	ctx := context.Background()
	tr := twoSpeakerTalk()
	emb := &fakeEmbedder{}
	e := newTestEngine(t, emb, speaker.NewMemoryStore(), WithTranscriber(tr))

	first, err := e.Diarize(ctx, DiarizationRequest{AudioPath: "talk.wav", End: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Segments) != 1 || first.Stats.Units != 3 {
		t.Fatalf("first = %+v", first)
	}

	second, err := e.Diarize(ctx, DiarizationRequest{AudioPath: "talk.wav", End: 6})
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.TranscriptionCached || second.Stats.DiarizationCached {
		t.Errorf("longer range reported hits: %+v", second.Stats)
	}
	if len(second.Segments) != 2 || tr.calls.Load() != 2 {
		t.Errorf("segments = %d, transcriber calls = %d", len(second.Segments), tr.calls.Load())
	}
}

func TestEngine_PersistentStores(t *testing.T) {
	ctx := context.Background()
	fs, err := local.NewStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	stores := func() Stores {
		return Stores{
			Transcription:  rangecache.NewStorageStore[rangecache.Entry[transcription.Segment]](fs, StageTranscription),
			Diarization:    rangecache.NewStorageStore[rangecache.Entry[Segment]](fs, StageDiarization),
			Identification: rangecache.NewStorageStore[rangecache.Entry[Segment]](fs, StageIdentification),
		}
	}
	speakers := speaker.NewMemoryStore()
	req := DiarizationRequest{AudioPath: "talk.wav", End: 6}

	first := newTestEngine(t, &fakeEmbedder{}, speakers, WithTranscriber(twoSpeakerTalk()), WithStores(stores()))
	if _, err := first.Diarize(ctx, req); err != nil {
		t.Fatal(err)
	}

	emb, tr := &fakeEmbedder{}, twoSpeakerTalk()
	second := newTestEngine(t, emb, speakers, WithTranscriber(tr), WithStores(stores()))
	resp, err := second.Diarize(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Stats.IdentificationCached || len(resp.Segments) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if emb.calls.Load() != 0 || tr.calls.Load() != 0 {
		t.Errorf("embedder calls = %d, transcriber calls = %d", emb.calls.Load(), tr.calls.Load())
	}
}

func TestEngine_ModelLoadFailureIsFatal(t *testing.T) {
	emb := &fakeEmbedder{initErr: errors.New("weights missing")}
	e := newTestEngine(t, emb, speaker.NewMemoryStore(), WithTranscriber(twoSpeakerTalk()))

	_, err := e.Diarize(context.Background(), DiarizationRequest{AudioPath: "talk.wav", End: 6})
	if !apperrors.HasCode(err, apperrors.ErrCodeModelLoad) || !apperrors.IsFatal(err) {
		t.Fatalf("err = %v, want fatal model load error", err)
	}
	if emb.calls.Load() != 0 {
		t.Errorf("embedder called %d times after failed load", emb.calls.Load())
	}
}

func TestEngine_AllUnitsDropped(t *testing.T) {
	emb := &fakeEmbedder{fail: fmt.Errorf("decode: %w", embedding.ErrUnreadableAudio)}
	e := newTestEngine(t, emb, speaker.NewMemoryStore(), WithTranscriber(twoSpeakerTalk()))

	resp, err := e.Diarize(context.Background(), DiarizationRequest{AudioPath: "talk.wav", End: 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Segments) != 0 || resp.NumSpeakers != 0 {
		t.Errorf("segments = %+v", resp.Segments)
	}
	if resp.Stats.Skipped["unreadable_audio"] != 6 {
		t.Errorf("skipped = %v", resp.Stats.Skipped)
	}
}

func TestEngine_InvalidRequests(t *testing.T) {
	e := newTestEngine(t, &fakeEmbedder{}, speaker.NewMemoryStore())
	for _, req := range []DiarizationRequest{
		{End: 6},
		{AudioPath: "a.wav", Start: -1, End: 6},
		{AudioPath: "a.wav", Start: 5, End: 5},
	} {
		if _, err := e.Diarize(context.Background(), req); err == nil {
			t.Errorf("request %+v accepted", req)
		}
	}

	// No transcriber and nothing cached.
	_, err := e.Diarize(context.Background(), DiarizationRequest{AudioPath: "a.wav", End: 6})
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestNewEngine_Validation(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = "word-median"
	if _, err := NewEngine(opts, &fakeEmbedder{}, speaker.NewMemoryStore()); err == nil {
		t.Error("bad strategy accepted")
	}
	if _, err := NewEngine(DefaultOptions(), nil, speaker.NewMemoryStore()); err == nil {
		t.Error("nil embedder accepted")
	}
	if _, err := NewEngine(DefaultOptions(), &fakeEmbedder{}, nil); err == nil {
		t.Error("nil speaker store accepted")
	}
}

func TestEngine_Process(t *testing.T) {
	store := speaker.NewMemoryStore(
		speaker.Speaker{Name: "Alice", Embeddings: []embedding.Vector{{1, 0, 0}}},
		speaker.Speaker{Name: "Bob", Embeddings: []embedding.Vector{{0, 1, 0}}},
	)
	opts := testOptions()
	opts.Strategy = "segment-nearest"
	opts.Workers = 4
	e, err := NewEngine(opts, &fakeEmbedder{}, store)
	if err != nil {
		t.Fatal(err)
	}

	in := []Unit{
		{Start: 0, End: 1, Text: "hi"},
		{Start: 1, End: 2, Text: "hello"},
		{Start: 3, End: 4, Text: "hey"},
	}
	res, err := e.Process(context.Background(), "talk.wav", in)
	if err != nil {
		t.Fatal(err)
	}
	if got := speakersOf(res.Segments); fmt.Sprint(got) != "[Alice Alice Bob]" {
		t.Errorf("speakers = %v", got)
	}
	if len(res.Clusters) != 2 || len(res.Identifications) != 2 || res.Stats.Identified != 2 {
		t.Errorf("clusters = %d, identifications = %+v", len(res.Clusters), res.Identifications)
	}
}

func TestEngine_ZeroMinDurationKeepsShortUnits(t *testing.T) {
	opts := testOptions()
	opts.Strategy = "segment-prototype"
	opts.MinDuration, opts.MinStableDuration = 0, 0
	e, err := NewEngine(opts, &fakeEmbedder{}, speaker.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Options(); got.MinDuration != 0 || got.MinStableDuration != 0 {
		t.Fatalf("options = %+v, explicit zeros must be kept", got)
	}
	res, err := e.Process(context.Background(), "talk.wav", []Unit{
		{Start: 0, End: 0.01, Text: "a"}, {Start: 1, End: 2, Text: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Filtered != 0 || res.Stats.Embedded != 2 || len(res.Segments) != 2 {
		t.Errorf("stats = %+v, segments = %d", res.Stats, len(res.Segments))
	}
}

type sizedEmbedder struct {
	embedding.Provider
	dim int
}

func (s sizedEmbedder) Dimension() int { return s.dim }

func TestEngine_ProviderDimensionGuardsFirstVector(t *testing.T) {
	short := provider.Func("short-first", func(_ context.Context, req embedding.Request) (embedding.Vector, error) {
		if req.Start == 0 {
			return embedding.Vector{1, 0}, nil
		}
		return embedding.Vector{1, 0, 0}, nil
	})
	units := []Unit{{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3}}
	opts := testOptions()
	opts.Strategy = "segment-prototype"

	for name, c := range map[string]struct {
		emb  embedding.Provider
		opts []EngineOption
	}{
		"provider": {emb: sizedEmbedder{Provider: short, dim: 3}},
		"option":   {emb: short, opts: []EngineOption{WithDimension(3)}},
	} {
		e, err := NewEngine(opts, c.emb, speaker.NewMemoryStore(), c.opts...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		res, err := e.Process(context.Background(), "talk.wav", units)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Stats.Embedded != 2 || res.Stats.SkippedTotal() != 1 {
			t.Errorf("%s: stats = %+v", name, res.Stats)
		}
	}
}

func TestEngine_SegmentStrategyExcludesNaN(t *testing.T) {
	nan := provider.Func("nan", func(_ context.Context, req embedding.Request) (embedding.Vector, error) {
		if req.Start == 1 {
			return embedding.Vector{0, math.NaN(), 0}, nil
		}
		return embedding.Vector{1, 0, 0}, nil
	})
	opts := testOptions()
	opts.Strategy = "segment-prototype"
	e, err := NewEngine(opts, nan, speaker.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Process(context.Background(), "talk.wav", []Unit{
		{Start: 0, End: 1}, {Start: 1, End: 2}, {Start: 2, End: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := speakersOf(res.Segments); fmt.Sprint(got) != "[SPEAKER_0 UNKNOWN_NAN SPEAKER_0]" {
		t.Errorf("speakers = %v", got)
	}
	if res.Segments[1].Embedding != nil || res.Stats.Excluded != 1 || res.Stats.NaN != 1 {
		t.Errorf("excluded segment = %+v, stats = %+v", res.Segments[1], res.Stats)
	}
}

func TestEngine_Init(t *testing.T) {
	emb := &fakeEmbedder{}
	e := newTestEngine(t, emb, speaker.NewMemoryStore())
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Name() != "voiceid" || !e.IsAvailable(context.Background()) {
		t.Error("engine should be available")
	}
}
