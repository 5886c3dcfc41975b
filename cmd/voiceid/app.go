package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/voiceid/bootstrap"
	"github.com/kbukum/voiceid/database"
	"github.com/kbukum/voiceid/diarization"
	"github.com/kbukum/voiceid/embedding"
	"github.com/kbukum/voiceid/embedding/sidecar"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/observability"
	"github.com/kbukum/voiceid/provider"
	"github.com/kbukum/voiceid/rangecache"
	"github.com/kbukum/voiceid/redis"
	"github.com/kbukum/voiceid/resilience"
	"github.com/kbukum/voiceid/speaker"
	"github.com/kbukum/voiceid/storage"
	"github.com/kbukum/voiceid/transcription"
	"github.com/kbukum/voiceid/transcription/whisper"

	_ "github.com/kbukum/voiceid/storage/local"
	_ "github.com/kbukum/voiceid/storage/s3"
)

// services is what a command works with once the app has started.
type services struct {
	embedder    embedding.Provider
	transcriber transcription.Provider
	speakers    speaker.ReadWriter
	engine      *diarization.Engine
}

type components struct {
	storage  *storage.Component
	redis    *redis.Component
	database *database.Component
}

// newApp registers the infrastructure the config selects and wires the
// services once it has started. svc is filled during startup.
func newApp(cfg *AppConfig, svc *services, opts ...bootstrap.Option) (*bootstrap.App[*AppConfig], error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	logger.RegisterComponents(app.Logger, "provider")

	var comps components
	if cfg.usesStorage() {
		comps.storage = storage.NewComponent("storage", cfg.Storage, app.Logger)
		if err := app.RegisterComponent(comps.storage); err != nil {
			return nil, err
		}
	}
	if cfg.Cache.Backend == CacheRedis {
		comps.redis = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(comps.redis); err != nil {
			return nil, err
		}
	}
	if cfg.Speakers.Backend == SpeakersSQL {
		comps.database = database.NewComponent(cfg.Database, app.Logger).WithAutoMigrate(speaker.Models()...)
		if err := app.RegisterComponent(comps.database); err != nil {
			return nil, err
		}
	}

	var metrics *observability.Metrics
	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Setup(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("observability: %w", err)
		}
		app.OnStop(shutdown)
		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		return err
	})

	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*AppConfig]) error {
		return svc.wire(ctx, a, comps, metrics)
	})
	return app, nil
}

func (s *services) wire(ctx context.Context, a *bootstrap.App[*AppConfig], comps components, metrics *observability.Metrics) error {
	cfg := a.Cfg

	embedders := embedding.NewManager()
	embedders.Register(sidecar.ProviderName, sidecar.Factory())
	raw, err := embedders.Open(ctx, cfg.Embedding.Provider, cfg.Embedding.Settings)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	a.OnStop(embedders.CloseAll)
	modelName := raw.Name()
	if d, ok := raw.(interface{ Model() string }); ok {
		modelName = d.Model()
	}
	dimension := 0
	if d, ok := raw.(interface{ Dimension() int }); ok {
		dimension = d.Dimension()
	}
	s.embedder = provider.Chain(
		provider.WithLogging[embedding.Request, embedding.Vector](a.Logger.WithComponent("embedding")),
		provider.WithTracing[embedding.Request, embedding.Vector](cfg.Name),
		provider.WithMetrics[embedding.Request, embedding.Vector](metrics),
		provider.WithResilience[embedding.Request, embedding.Vector](embeddingResilience(cfg.Embedding.Resilience, a.Logger)),
	)(raw)

	transcribers := transcription.NewManager()
	transcribers.Register(whisper.ProviderName, whisper.Factory())
	if s.transcriber, err = transcribers.Open(ctx, cfg.Transcription.Provider, cfg.Transcription.Settings); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	a.OnStop(transcribers.CloseAll)

	switch cfg.Speakers.Backend {
	case SpeakersSQL:
		s.speakers = speaker.NewSQLStore(comps.database.DB())
	default:
		s.speakers = speaker.NewDocumentStore(comps.storage.Storage(), cfg.Speakers.Path, a.Logger)
	}

	s.engine, err = diarization.NewEngine(cfg.Diarization, s.embedder, s.speakers,
		diarization.WithTranscriber(s.transcriber),
		diarization.WithStores(cacheStores(cfg, comps)),
		diarization.WithCacheTTL(cfg.Cache.TTL),
		diarization.WithModelName(modelName),
		diarization.WithDimension(dimension),
		diarization.WithLogger(a.Logger),
		diarization.WithMetrics(metrics),
	)
	return err
}

// embeddingResilience retries and counts only backend failures, so windows
// the model rejects neither repeat nor open the circuit.
func embeddingResilience(cfg provider.ResilienceConfig, log *logger.Logger) provider.ResilienceConfig {
	if cfg.Retry != nil {
		retry := *cfg.Retry
		retry.RetryIf = embedding.Retryable
		retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
			log.Debug("Retrying embedding call", map[string]interface{}{
				"attempt":         attempt,
				logger.FieldError: err.Error(),
				"backoff":         backoff.String(),
			})
		}
		cfg.Retry = &retry
	}
	if cfg.CircuitBreaker != nil {
		cb := *cfg.CircuitBreaker
		cb.IsFailure = embedding.Retryable
		cb.OnStateChange = func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed", map[string]interface{}{
				logger.FieldComponent: name,
				"from":                from.String(),
				"to":                  to.String(),
			})
		}
		cfg.CircuitBreaker = &cb
	}
	return cfg
}

// cacheStores builds the three stage entry stores for the configured
// backend. The memory backend leaves them nil so the engine uses its own.
func cacheStores(cfg *AppConfig, comps components) diarization.Stores {
	prefix := func(stage string) string { return cfg.Cache.Prefix + "/" + stage }
	switch cfg.Cache.Backend {
	case CacheRedis:
		client := comps.redis.Client()
		return diarization.Stores{
			Transcription:  redis.NewEntryStore[rangecache.Entry[transcription.Segment]](client, prefix(diarization.StageTranscription)),
			Diarization:    redis.NewEntryStore[rangecache.Entry[diarization.Segment]](client, prefix(diarization.StageDiarization)),
			Identification: redis.NewEntryStore[rangecache.Entry[diarization.Segment]](client, prefix(diarization.StageIdentification)),
		}
	case CacheStorage:
		s := comps.storage.Storage()
		return diarization.Stores{
			Transcription:  rangecache.NewStorageStore[rangecache.Entry[transcription.Segment]](s, prefix(diarization.StageTranscription)),
			Diarization:    rangecache.NewStorageStore[rangecache.Entry[diarization.Segment]](s, prefix(diarization.StageDiarization)),
			Identification: rangecache.NewStorageStore[rangecache.Entry[diarization.Segment]](s, prefix(diarization.StageIdentification)),
		}
	default:
		return diarization.Stores{}
	}
}
