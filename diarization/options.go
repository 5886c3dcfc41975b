package diarization

import (
	"github.com/kbukum/voiceid/validation"
)

// Options are the run parameters. Every field that changes the output is
// part of the matching cache key.
type Options struct {
	// Strategy selects segmentation and identification; see ParseStrategy.
	Strategy string `mapstructure:"strategy" validate:"required,oneof=word-prototype word-nearest segment-prototype segment-nearest"`
	// Threshold is the cosine distance above which a new segment starts.
	Threshold float64 `mapstructure:"threshold" validate:"gt=0,lte=2"`
	// Window is the number of neighboring units on each side of a unit
	// included in its embedding window. Word-level strategies only.
	Window int `mapstructure:"window" validate:"gte=0,lte=50"`
	// ClusterThreshold is the average-linkage distance at which merging stops.
	ClusterThreshold float64 `mapstructure:"cluster_threshold" validate:"gt=0,lte=2"`
	// IDThreshold is the distance below which a cluster takes a known
	// speaker's name.
	IDThreshold float64 `mapstructure:"id_threshold" validate:"gt=0,lte=2"`
	// MinDuration drops units shorter than this many seconds.
	MinDuration float64 `mapstructure:"min_duration" validate:"gte=0"`
	// MinStableDuration is the shortest audio span an embedding window may cover.
	MinStableDuration float64 `mapstructure:"min_stable_duration" validate:"gte=0"`
	// Workers bounds concurrent embedding calls.
	Workers int `mapstructure:"workers" validate:"gte=1,lte=64"`
}

const (
	DefaultStrategy          = "word-prototype"
	DefaultThreshold         = 0.5
	DefaultWindow            = 2
	DefaultClusterThreshold  = 0.7
	DefaultIDThreshold       = 0.4
	DefaultMinDuration       = 0.02
	DefaultMinStableDuration = 0.05
	DefaultWorkers           = 1
)

// DefaultOptions returns the defaults for every field.
func DefaultOptions() Options {
	return Options{
		Strategy:          DefaultStrategy,
		Threshold:         DefaultThreshold,
		Window:            DefaultWindow,
		ClusterThreshold:  DefaultClusterThreshold,
		IDThreshold:       DefaultIDThreshold,
		MinDuration:       DefaultMinDuration,
		MinStableDuration: DefaultMinStableDuration,
		Workers:           DefaultWorkers,
	}
}

// ApplyDefaults fills zero-valued fields. Window, MinDuration and
// MinStableDuration are left alone since zero is valid for each; callers
// wanting their defaults start from DefaultOptions.
func (o *Options) ApplyDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.ClusterThreshold == 0 {
		o.ClusterThreshold = DefaultClusterThreshold
	}
	if o.IDThreshold == 0 {
		o.IDThreshold = DefaultIDThreshold
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
}

// Validate checks ranges and the strategy name.
func (o *Options) Validate() error {
	return validation.Validate(o)
}
