package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/voiceid/component"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/provider"
)

// Component opens the configured backend at app start. Several can share a
// registry under different names.
type Component struct {
	name    string
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ provider.Provider     = (*Component)(nil)
)

func NewComponent(name string, cfg Config, log *logger.Logger) *Component {
	return &Component{name: name, cfg: cfg, log: log.WithComponent(name)}
}

// Storage is nil until Start succeeds.
func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return c.name }

func (c *Component) IsAvailable(context.Context) bool { return c.storage != nil }

func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.storage = s
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.storage = nil
	return nil
}

// Health probes the backend with an Exists call on a fixed path.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.name, Status: component.StatusUnhealthy}
	if c.storage == nil {
		h.Message = "not started"
		return h
	}
	if _, err := c.storage.Exists(ctx, ".health"); err != nil {
		h.Message = err.Error()
		return h
	}
	h.Status = component.StatusHealthy
	return h
}

func (c *Component) Describe() component.Description {
	where := c.cfg.BasePath
	if c.cfg.Provider == ProviderS3 {
		where = "s3://" + c.cfg.Bucket + "/" + c.cfg.Prefix
	}
	return component.Description{Name: c.name, Type: "storage", Details: fmt.Sprintf("%s %s", c.cfg.Provider, where)}
}
