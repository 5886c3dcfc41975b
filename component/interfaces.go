package component

import "context"

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's answer to a health probe.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a piece of infrastructure the app starts before wiring
// services and stops on shutdown. Name must be unique within a Registry.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is what the startup log prints for a component. An empty
// Name falls back to Component.Name.
type Description struct {
	Name    string
	Type    string
	Details string
}

// Describable components report their settings when the registry starts
// them.
type Describable interface {
	Describe() Description
}
