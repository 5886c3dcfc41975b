package database

import (
	"context"
	"fmt"

	"github.com/kbukum/voiceid/component"
	"github.com/kbukum/voiceid/logger"
)

// Component opens the database on Start and migrates the models handed to
// WithAutoMigrate when cfg.AutoMigrate is set.
type Component struct {
	cfg    Config
	log    *logger.Logger
	models []interface{}
	db     *DB
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent("database")}
}

func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "database" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return err
		}
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.db == nil:
		h.Status, h.Message = component.StatusUnhealthy, "not started"
	case !c.db.IsAvailable(ctx):
		h.Status, h.Message = component.StatusUnhealthy, "ping failed"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Database",
		Type:    "sqlite",
		Details: fmt.Sprintf("dsn=%s pool=%d migrate=%t", c.cfg.DSN, c.cfg.MaxOpenConns, c.cfg.AutoMigrate),
	}
}
