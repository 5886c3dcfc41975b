package embedding

import "github.com/kbukum/voiceid/provider"

// NewRegistry creates a provider registry for embedding backends.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}

// NewManager creates a manager over a fresh embedding registry.
func NewManager() *provider.Manager[Provider] {
	return provider.NewManager(NewRegistry())
}
