package transcription

import "github.com/kbukum/voiceid/provider"

// NewRegistry creates a new provider registry for transcription providers.
func NewRegistry() *provider.Registry[Provider] {
	return provider.NewRegistry[Provider]()
}

// NewManager creates a manager over a fresh transcription registry.
func NewManager() *provider.Manager[Provider] {
	return provider.NewManager(NewRegistry())
}
