package diarization

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/voiceid/embedding"
	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/observability"
	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/rangecache"
	"github.com/kbukum/voiceid/speaker"
	"github.com/kbukum/voiceid/transcription"
	"github.com/kbukum/voiceid/validation"
)

// Stage names, used for cache keys, spans and metrics.
const (
	StageTranscription  = "transcription"
	StageDiarization    = "diarization"
	StageIdentification = "identification"
)

// Result is the output of one uncached run over a unit list.
type Result struct {
	Segments        []Segment        `json:"segments"`
	Clusters        []Cluster        `json:"clusters"`
	Identifications []Identification `json:"identifications"`
	Stats           RunStats         `json:"stats"`
}

// Stores holds the entry stores behind the three stage caches. Nil fields
// fall back to in-memory stores.
type Stores struct {
	Transcription  provider.ContextStore[rangecache.Entry[transcription.Segment]]
	Diarization    provider.ContextStore[rangecache.Entry[Segment]]
	Identification provider.ContextStore[rangecache.Entry[Segment]]
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTranscriber sets the transcript source used by Diarize.
func WithTranscriber(t transcription.Provider) EngineOption {
	return func(e *Engine) { e.transcriber = t }
}

// WithStores sets the cache entry stores.
func WithStores(s Stores) EngineOption {
	return func(e *Engine) { e.stores = s }
}

// WithCacheTTL expires cache entries on stores that support expiry.
func WithCacheTTL(d time.Duration) EngineOption {
	return func(e *Engine) { e.cacheTTL = d }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records run, stage and unit metrics.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithModelName overrides the embedding model name used in cache keys.
// By default it is the provider's Model() when implemented, else its Name().
func WithModelName(name string) EngineOption {
	return func(e *Engine) { e.modelName = name }
}

// WithDimension sets the vector length the embedding model produces, for
// providers wrapped in middleware that hides their Dimension method.
func WithDimension(dim int) EngineOption {
	return func(e *Engine) { e.dimension = dim }
}

// Engine runs the diarization pipeline for one Strategy.
type Engine struct {
	opts        Options
	strategy    Strategy
	embedder    embedding.Provider
	speakers    speaker.Store
	transcriber transcription.Provider

	stores    Stores
	cacheTTL  time.Duration
	modelName string
	dimension int
	log       *logger.Logger
	metrics   *observability.Metrics

	transcripts *rangecache.Cache[transcription.Segment]
	diarized    *rangecache.Cache[Segment]
	identified  *rangecache.Cache[Segment]

	mu     sync.Mutex
	loaded bool
}

var _ Provider = (*Engine)(nil)

// NewEngine validates opts and builds an engine. The embedding model is not
// loaded until Init or the first run that needs it.
func NewEngine(opts Options, embedder embedding.Provider, speakers speaker.Store, options ...EngineOption) (*Engine, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(opts)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, apperrors.MissingField("embedder")
	}
	if speakers == nil {
		return nil, apperrors.MissingField("speakers")
	}

	e := &Engine{opts: opts, strategy: strategy, embedder: embedder, speakers: speakers}
	for _, o := range options {
		o(e)
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	e.log = e.log.WithComponent("diarization")
	if e.modelName == "" {
		e.modelName = embedder.Name()
		if d, ok := embedder.(interface{ Model() string }); ok && d.Model() != "" {
			e.modelName = d.Model()
		}
	}
	if e.stores.Transcription == nil {
		e.stores.Transcription = provider.NewMemoryStore[rangecache.Entry[transcription.Segment]]()
	}
	if e.stores.Diarization == nil {
		e.stores.Diarization = provider.NewMemoryStore[rangecache.Entry[Segment]]()
	}
	if e.stores.Identification == nil {
		e.stores.Identification = provider.NewMemoryStore[rangecache.Entry[Segment]]()
	}

	ttl := rangecache.WithTTL(e.cacheTTL)
	e.transcripts = rangecache.New(StageTranscription, e.stores.Transcription, e.log, ttl)
	e.diarized = rangecache.New(StageDiarization, e.stores.Diarization, e.log, ttl)
	e.identified = rangecache.New(StageIdentification, e.stores.Identification, e.log, ttl)
	return e, nil
}

// Name implements provider.Provider.
func (e *Engine) Name() string { return "voiceid" }

// IsAvailable reports whether the embedding provider is reachable.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	return e.embedder.IsAvailable(ctx)
}

// Strategy returns the strategy the engine was built with.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Options returns the normalized run options.
func (e *Engine) Options() Options { return e.opts }

// Init loads the embedding model. It is safe to call more than once; the
// model is loaded by the first successful call only.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	start := time.Now()
	if err := embedding.Load(ctx, e.embedder); err != nil {
		e.log.Error("Embedding model failed to load", map[string]interface{}{
			"model":           e.modelName,
			logger.FieldError: err.Error(),
		})
		return err
	}
	e.loaded = true
	e.log.Info("Embedding model loaded", map[string]interface{}{
		"model":               e.modelName,
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return nil
}

// Process runs segmentation, clustering and identification over units with
// no caching. Units must be in time order.
func (e *Engine) Process(ctx context.Context, audioPath string, units []Unit) (*Result, error) {
	stats := RunStats{RunID: uuid.NewString(), Strategy: e.strategy.Name}
	ctx = logger.ContextWithRunID(ctx, stats.RunID)
	start := time.Now()

	segments, clustering, err := e.diarize(ctx, audioPath, units, &stats)
	if err != nil {
		e.recordRun(ctx, err)
		return nil, err
	}
	speakers, err := e.speakers.Speakers(ctx)
	if err != nil {
		err = apperrors.ExternalServiceError("speaker store", err)
		e.recordRun(ctx, err)
		return nil, err
	}
	labeled, ids := e.identifier().Label(segments, speakers)
	stats.Identified = countKnown(ids)
	stats.Duration = time.Since(start)
	e.recordRun(ctx, nil)
	e.logSummary(ctx, stats)

	return &Result{
		Segments:        labeled,
		Clusters:        clustering.Clusters,
		Identifications: ids,
		Stats:           stats,
	}, nil
}

// Diarize labels the speakers of [req.Start, req.End). Results are computed
// over [0, req.End] so they can be cached and served for any later request
// ending at or before req.End.
func (e *Engine) Diarize(ctx context.Context, req DiarizationRequest) (*DiarizationResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.SourceID == "" {
		req.SourceID = strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	}

	stats := RunStats{RunID: uuid.NewString(), Strategy: e.strategy.Name}
	ctx = logger.ContextWithRunID(ctx, stats.RunID)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun, trace.WithAttributes(
		attribute.String(observability.AttrRunID, stats.RunID),
		attribute.String(observability.AttrSourceID, req.SourceID),
		attribute.String(observability.AttrStrategy, e.strategy.Name),
		attribute.Float64(observability.AttrRangeStart, req.Start),
		attribute.Float64(observability.AttrRangeEnd, req.End),
	))
	defer span.End()
	start := time.Now()

	segments, err := e.identify(ctx, req, &stats)
	if err != nil {
		observability.SetSpanError(ctx, err)
		e.recordRun(ctx, err)
		return nil, err
	}
	stats.Duration = time.Since(start)
	e.recordRun(ctx, nil)
	e.logSummary(ctx, stats)

	segments = rangecache.Overlapping(segments, req.Start, req.End)
	return &DiarizationResponse{
		Segments:    segments,
		NumSpeakers: countSpeakers(segments),
		Stats:       stats,
	}, nil
}

func validateRequest(req DiarizationRequest) error {
	v := validation.New().
		Required("audio_path", req.AudioPath).
		Finite("start", req.Start).
		NonNegative("start", req.Start).
		Finite("end", req.End).
		Before("start", req.Start, req.End)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// identify serves labeled segments from the identification cache or builds
// them from the diarization stage.
func (e *Engine) identify(ctx context.Context, req DiarizationRequest, stats *RunStats) ([]Segment, error) {
	dKey := e.diarizationKey(req)
	count, err := e.speakers.EmbeddingCount(ctx)
	if err != nil {
		return nil, apperrors.ExternalServiceError("speaker store", err)
	}
	iKey := rangecache.Key(StageIdentification, req.SourceID, e.identificationParams(dKey, count))

	ctx, stage := observability.StartStage(ctx, StageIdentification, e.metrics)
	if cached, ok := e.identified.Get(ctx, iKey, 0, req.End); ok {
		stage.CacheResult(ctx, true)
		stage.End(ctx, nil)
		stats.IdentificationCached = true
		stats.countCached(cached, true)
		e.logStage(ctx, StageIdentification, iKey, true)
		return cached, nil
	}
	stage.CacheResult(ctx, false)
	e.logStage(ctx, StageIdentification, iKey, false)

	segments, err := e.diarizeRange(ctx, req, dKey, stats)
	if err != nil {
		stage.End(ctx, err)
		return nil, err
	}
	speakers, err := e.speakers.Speakers(ctx)
	if err != nil {
		err = apperrors.ExternalServiceError("speaker store", err)
		stage.End(ctx, err)
		return nil, err
	}
	labeled, ids := e.identifier().Label(segments, speakers)
	stats.Identified = countKnown(ids)
	stage.End(ctx, nil)

	e.put(ctx, StageIdentification, iKey, func() error {
		return e.identified.Put(ctx, iKey, e.identificationParams(dKey, count), labeled, req.End)
	})
	return labeled, nil
}

// diarizeRange serves clustered segments over [0, req.End] from the
// diarization cache or computes them from the transcript.
func (e *Engine) diarizeRange(ctx context.Context, req DiarizationRequest, dKey string, stats *RunStats) ([]Segment, error) {
	ctx, stage := observability.StartStage(ctx, StageDiarization, e.metrics)
	if cached, ok := e.diarized.Get(ctx, dKey, 0, req.End); ok {
		stage.CacheResult(ctx, true)
		stage.End(ctx, nil)
		stats.DiarizationCached = true
		stats.countCached(cached, false)
		e.logStage(ctx, StageDiarization, dKey, true)
		return cached, nil
	}
	stage.CacheResult(ctx, false)
	e.logStage(ctx, StageDiarization, dKey, false)

	transcript, err := e.transcribe(ctx, req, stats)
	if err != nil {
		stage.End(ctx, err)
		return nil, err
	}
	units := rangecache.Overlapping(e.strategy.Segmentation.Units(transcript), 0, req.End)

	segments, _, err := e.diarize(ctx, req.AudioPath, units, stats)
	stage.End(ctx, err)
	if err != nil {
		return nil, err
	}
	e.put(ctx, StageDiarization, dKey, func() error {
		return e.diarized.Put(ctx, dKey, e.diarizationParams(req), segments, req.End)
	})
	return segments, nil
}

// transcribe serves transcript segments over [0, req.End] from the
// transcription cache or the transcriber.
func (e *Engine) transcribe(ctx context.Context, req DiarizationRequest, stats *RunStats) ([]transcription.Segment, error) {
	tKey := e.transcriptionKey(req)
	ctx, stage := observability.StartStage(ctx, StageTranscription, e.metrics)
	if cached, ok := e.transcripts.Get(ctx, tKey, 0, req.End); ok {
		stage.CacheResult(ctx, true)
		stage.End(ctx, nil)
		stats.TranscriptionCached = true
		e.logStage(ctx, StageTranscription, tKey, true)
		return cached, nil
	}
	stage.CacheResult(ctx, false)
	e.logStage(ctx, StageTranscription, tKey, false)

	if e.transcriber == nil {
		err := apperrors.InvalidInput("transcriber", "no transcription provider configured")
		stage.End(ctx, err)
		return nil, err
	}
	resp, err := e.transcriber.Transcribe(ctx, transcription.TranscriptionRequest{
		AudioPath: req.AudioPath,
		Language:  req.Language,
		End:       req.End,
	})
	if err != nil {
		err = apperrors.ExternalServiceError(e.transcriber.Name(), err)
		stage.End(ctx, err)
		return nil, err
	}
	stage.End(ctx, nil)

	e.put(ctx, StageTranscription, tKey, func() error {
		return e.transcripts.Put(ctx, tKey, e.transcriptionParams(req), resp.Segments, req.End)
	})
	return rangecache.Overlapping(resp.Segments, 0, req.End), nil
}

// diarize embeds, segments and clusters units. Only a model load failure
// or cancellation is returned as an error.
func (e *Engine) diarize(ctx context.Context, audioPath string, units []Unit, stats *RunStats) ([]Segment, Clustering, error) {
	if err := e.Init(ctx); err != nil {
		return nil, Clustering{}, err
	}

	seg := e.strategy.Segmentation
	extractor := &Extractor{
		Provider:          e.embedder,
		Window:            seg.Window(),
		MinDuration:       e.opts.MinDuration,
		MinStableDuration: e.opts.MinStableDuration,
		NaN:               seg.NaNPolicy(),
		Dimension:         e.embeddingDimension(),
		Workers:           e.opts.Workers,
		Log:               e.log.WithContext(ctx),
		Metrics:           e.metrics,
	}
	embedCtx, span := observability.StartSpan(ctx, observability.SpanEmbed,
		trace.WithAttributes(attribute.Int(observability.AttrUnitCount, len(units))))
	outcomes, err := extractor.Extract(embedCtx, audioPath, units)
	span.End()
	if err != nil {
		return nil, Clustering{}, err
	}
	Tally(stats, outcomes)

	usable := Usable(outcomes)
	if len(usable) == 0 {
		empty := apperrors.EmptyInput(len(units))
		e.log.WithContext(ctx).Warn("No usable units, returning no segments", map[string]interface{}{
			"units":           len(units),
			logger.FieldError: empty.Error(),
		})
		return []Segment{}, Clustering{}, nil
	}

	segments := seg.Segment(usable)
	rows := make([]embedding.Vector, len(segments))
	for i, s := range segments {
		rows[i] = s.Embedding
	}
	clustering := ClusterEngine{Threshold: e.opts.ClusterThreshold}.Cluster(rows)
	for i := range segments {
		segments[i].Cluster = clustering.Labels[i]
		if segments[i].Cluster == NoCluster {
			segments[i].Embedding = nil
		}
	}

	stats.Segments = len(segments)
	stats.Clusters = len(clustering.Clusters)
	stats.Excluded = clustering.Excluded()
	return segments, clustering, nil
}

// embeddingDimension is only known once the model has loaded.
func (e *Engine) embeddingDimension() int {
	if e.dimension > 0 {
		return e.dimension
	}
	if d, ok := e.embedder.(interface{ Dimension() int }); ok {
		return max(d.Dimension(), 0)
	}
	return 0
}

func (e *Engine) identifier() Identifier {
	return Identifier{Policy: e.strategy.Identification, Threshold: e.opts.IDThreshold}
}

// put writes a cache entry. Failures are logged and never fail the run.
func (e *Engine) put(ctx context.Context, stage, key string, write func() error) {
	if err := write(); err != nil {
		e.log.WithContext(ctx).Warn("Cache write failed", map[string]interface{}{
			logger.FieldStage:    stage,
			logger.FieldCacheKey: key,
			logger.FieldError:    err.Error(),
		})
		e.metrics.RecordError(ctx, "cache_write", stage)
	}
}

func (e *Engine) transcriptionParams(req DiarizationRequest) map[string]string {
	p := map[string]string{"provider": "none", "language": req.Language}
	if e.transcriber != nil {
		p["provider"] = e.transcriber.Name()
		if d, ok := e.transcriber.(transcription.Describer); ok {
			p["model"] = d.Model()
		}
	}
	return p
}

func (e *Engine) transcriptionKey(req DiarizationRequest) string {
	return rangecache.Key(StageTranscription, req.SourceID, e.transcriptionParams(req))
}

func (e *Engine) diarizationParams(req DiarizationRequest) map[string]string {
	return map[string]string{
		"transcript":          e.transcriptionKey(req),
		"segmentation":        e.strategy.Segmentation.Name(),
		"threshold":           rangecache.Float(e.opts.Threshold),
		"window":              strconv.Itoa(e.strategy.Segmentation.Window()),
		"cluster_threshold":   rangecache.Float(e.opts.ClusterThreshold),
		"min_duration":        rangecache.Float(e.opts.MinDuration),
		"min_stable_duration": rangecache.Float(e.opts.MinStableDuration),
		"embedding_model":     e.modelName,
	}
}

func (e *Engine) diarizationKey(req DiarizationRequest) string {
	return rangecache.Key(StageDiarization, req.SourceID, e.diarizationParams(req))
}

func (e *Engine) identificationParams(dKey string, embeddings int) map[string]string {
	return map[string]string{
		"diarization":  dKey,
		"policy":       e.strategy.Identification.Name(),
		"id_threshold": rangecache.Float(e.opts.IDThreshold),
		"embeddings":   strconv.Itoa(embeddings),
	}
}

func (e *Engine) logStage(ctx context.Context, stage, key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	e.log.WithContext(ctx).Debug(fmt.Sprintf("Stage cache %s", result), map[string]interface{}{
		logger.FieldStage:    stage,
		logger.FieldCacheKey: key,
	})
}

func (e *Engine) recordRun(ctx context.Context, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordRun(ctx, status)
}

func (e *Engine) logSummary(ctx context.Context, s RunStats) {
	e.log.WithContext(ctx).Info("Run complete", map[string]interface{}{
		logger.FieldStrategy:    s.Strategy,
		"units":                 s.Units,
		"filtered":              s.Filtered,
		"embedded":              s.Embedded,
		"substituted":           s.Substituted,
		"nan":                   s.NaN,
		"skipped":               s.SkippedTotal(),
		"segments":              s.Segments,
		"clusters":              s.Clusters,
		"excluded":              s.Excluded,
		"identified":            s.Identified,
		"transcription_cached":  s.TranscriptionCached,
		"diarization_cached":    s.DiarizationCached,
		"identification_cached": s.IdentificationCached,
		logger.FieldDuration:    s.Duration.Milliseconds(),
	})
}

// countCached fills the segment counts of a run served from a cache. A
// labeled cluster counts as identified when its label is not anonymous.
func (s *RunStats) countCached(segments []Segment, labeled bool) {
	clusters := make(map[int]bool)
	s.Segments, s.Excluded, s.Identified = len(segments), 0, 0
	for _, seg := range segments {
		if seg.Cluster == NoCluster {
			s.Excluded++
			continue
		}
		if clusters[seg.Cluster] {
			continue
		}
		clusters[seg.Cluster] = true
		if labeled && seg.Speaker != AnonymousLabel(seg.Cluster) {
			s.Identified++
		}
	}
	s.Clusters = len(clusters)
}

func countKnown(ids []Identification) int {
	n := 0
	for _, id := range ids {
		if id.Known {
			n++
		}
	}
	return n
}
