package bootstrap

import (
	"github.com/kbukum/voiceid/config"
)

// Config is the constraint for application config types. Any struct that
// embeds config.ServiceConfig satisfies it through promoted methods, as
// long as it is used by pointer.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
