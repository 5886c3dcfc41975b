// Package provider holds the plumbing shared by swappable backends:
// embedding models, transcribers and range cache stores.
//
// A Registry maps names to factories that build a backend from its settings
// section, decoded with DecodeSettings. A Manager opens the configured one,
// runs its Init hook and closes it at shutdown:
//
//	mgr := embedding.NewManager()
//	mgr.Register(sidecar.ProviderName, sidecar.Factory())
//	p, err := mgr.Open(ctx, cfg.Provider, cfg.Settings)
//
// Calls go through RequestResponse providers, which compose with
// middleware. The first middleware given to Chain is the outermost:
//
//	embedder := provider.Chain(
//		provider.WithLogging[embedding.Request, embedding.Vector](log),
//		provider.WithTracing[embedding.Request, embedding.Vector]("voiceid"),
//		provider.WithMetrics[embedding.Request, embedding.Vector](metrics),
//		provider.WithResilience[embedding.Request, embedding.Vector](rc),
//	)(p)
//
// ContextStore is the keyed persistence the range cache writes through.
// MemoryStore is the in-process one.
package provider
