package diarization

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/voiceid/embedding"
	apperrors "github.com/kbukum/voiceid/errors"
	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/observability"
	"github.com/kbukum/voiceid/pipeline"
)

// OutcomeKind classifies what happened to one unit during extraction.
type OutcomeKind int

const (
	// OutcomeEmbedded: the provider returned a usable vector.
	OutcomeEmbedded OutcomeKind = iota
	// OutcomeSubstituted: the vector had NaN and was replaced.
	OutcomeSubstituted
	// OutcomeNaN: the vector had NaN and was kept.
	OutcomeNaN
	// OutcomeDropped: embedding failed; the unit is left out.
	OutcomeDropped
	// OutcomeFiltered: the unit was shorter than the minimum duration.
	OutcomeFiltered
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeEmbedded:
		return "embedded"
	case OutcomeSubstituted:
		return "substituted"
	case OutcomeNaN:
		return "nan"
	case OutcomeDropped:
		return "dropped"
	case OutcomeFiltered:
		return "filtered"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// UnitOutcome is the extraction result for one input unit.
type UnitOutcome struct {
	Index     int
	Unit      Unit
	Kind      OutcomeKind
	Embedding embedding.Vector
	// Err is set for dropped units and wraps an embedding sentinel.
	Err error
}

// Usable reports whether the unit continues to segmentation.
func (o UnitOutcome) Usable() bool {
	return o.Kind == OutcomeEmbedded || o.Kind == OutcomeSubstituted || o.Kind == OutcomeNaN
}

// Extractor computes one embedding per unit.
type Extractor struct {
	Provider          embedding.Provider
	Window            int
	MinDuration       float64
	MinStableDuration float64
	NaN               NaNPolicy
	// Dimension is the vector length the model produces. Zero takes it
	// from the first vector that comes back.
	Dimension int
	// Workers above one embeds units concurrently. Results are folded in
	// unit order either way.
	Workers int
	Log     *logger.Logger
	Metrics *observability.Metrics
}

type rawEmbedding struct {
	pos int
	vec embedding.Vector
	err error
}

// Extract embeds units from audioPath and returns one outcome per input
// unit, in input order. Only context cancellation is returned as an error;
// provider failures become dropped outcomes.
func (x *Extractor) Extract(ctx context.Context, audioPath string, units []Unit) ([]UnitOutcome, error) {
	outcomes := make([]UnitOutcome, len(units))
	var valid []Unit
	var positions []int
	for i, u := range units {
		outcomes[i] = UnitOutcome{Index: i, Unit: u}
		if u.Duration() < x.MinDuration {
			outcomes[i].Kind = OutcomeFiltered
			continue
		}
		valid = append(valid, u)
		positions = append(positions, i)
	}

	jobs := make([]int, len(valid))
	for p := range jobs {
		jobs[p] = p
	}
	embed := func(ctx context.Context, p int) (rawEmbedding, error) {
		if err := ctx.Err(); err != nil {
			return rawEmbedding{}, err
		}
		lo, hi := ContextWindow(valid, p, x.Window, x.MinStableDuration)
		vec, err := x.Provider.Execute(ctx, embedding.Request{
			AudioPath: audioPath,
			Start:     valid[lo].Start,
			End:       valid[hi].End,
		})
		return rawEmbedding{pos: p, vec: vec, err: err}, nil
	}
	raws, err := pipeline.Collect(ctx, pipeline.OrderedParallel(pipeline.FromSlice(jobs), x.Workers, embed))
	if err != nil {
		return nil, err
	}

	var prev embedding.Vector
	dim := x.Dimension
	for _, r := range raws {
		o := &outcomes[positions[r.pos]]
		vec, err := r.vec, r.err
		if err == nil {
			switch {
			case embedding.HasInf(vec):
				err = embedding.ErrNonFinite
			case len(vec) == 0 || (dim != 0 && len(vec) != dim):
				err = fmt.Errorf("%w: dimension %d, expected %d", embedding.ErrProvider, len(vec), dim)
			}
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			x.drop(ctx, o, err)
			continue
		}
		dim = len(vec)

		switch {
		case !embedding.HasNaN(vec):
			o.Kind, o.Embedding = OutcomeEmbedded, vec
			prev = vec
		case x.NaN == NaNKeep:
			o.Kind, o.Embedding = OutcomeNaN, vec
		case prev != nil:
			o.Kind, o.Embedding = OutcomeSubstituted, prev
		default:
			o.Kind, o.Embedding = OutcomeSubstituted, embedding.Zero(len(vec))
		}
		x.Metrics.RecordUnitProcessed(ctx)
	}
	return outcomes, nil
}

func (x *Extractor) drop(ctx context.Context, o *UnitOutcome, cause error) {
	o.Kind = OutcomeDropped
	o.Err = apperrors.UnitEmbedding(o.Index, o.Unit.Start, o.Unit.End, cause)
	reason := embedding.Reason(cause)
	if x.Log != nil {
		x.Log.Debug("Unit dropped", map[string]interface{}{
			logger.FieldUnit:   o.Index,
			logger.FieldReason: reason,
			logger.FieldError:  cause.Error(),
		})
	}
	x.Metrics.RecordUnitSkipped(ctx, reason)
}

// Usable returns the embedded units that continue to segmentation.
func Usable(outcomes []UnitOutcome) []Embedded {
	var out []Embedded
	for _, o := range outcomes {
		if o.Usable() {
			out = append(out, Embedded{Index: o.Index, Unit: o.Unit, Embedding: o.Embedding})
		}
	}
	return out
}

// Tally adds extraction counts to stats.
func Tally(stats *RunStats, outcomes []UnitOutcome) {
	stats.Units += len(outcomes)
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeEmbedded:
			stats.Embedded++
		case OutcomeSubstituted:
			stats.Substituted++
		case OutcomeNaN:
			stats.NaN++
		case OutcomeFiltered:
			stats.Filtered++
		case OutcomeDropped:
			if stats.Skipped == nil {
				stats.Skipped = make(map[string]int)
			}
			stats.Skipped[embedding.Reason(o.Err)]++
		}
	}
}
