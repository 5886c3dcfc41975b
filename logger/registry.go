package logger

import "sync"

// named holds loggers bound by the app at startup, so helpers that are not
// handed a logger (provider managers) still log through the configured one.
var named sync.Map // string -> *Logger

// Register binds a logger to name.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get returns the logger registered under name, or the global logger
// scoped to name as its component.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents binds base.WithComponent(name) for every name.
func RegisterComponents(base *Logger, names ...string) {
	for _, name := range names {
		Register(name, base.WithComponent(name))
	}
}
