// File: internal/experiment/experiment.go

// Package experiment drives the Monte Carlo loop: reps repetitions of
// assignment, observation and estimation over a population, reduced to a
// summary of the estimator's sampling behavior.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/xkilldash9x/atesim/internal/design"
	"github.com/xkilldash9x/atesim/internal/estimator"
	"github.com/xkilldash9x/atesim/internal/randstream"
)

// ErrInvalidConfig marks an experiment configuration rejected before any
// random draws are consumed.
var ErrInvalidConfig = errors.New("invalid experiment config")

// Design selects how the population behaves across repetitions.
type Design int

const (
	// Fixed generates one finite population up front and re-randomizes only
	// the assignment; the coverage target is the realized population ATE.
	Fixed Design = iota
	// Redraw generates a fresh population every repetition; the coverage
	// target is the super-population parameter tau0.
	Redraw
)

func (d Design) String() string {
	switch d {
	case Fixed:
		return "fixed"
	case Redraw:
		return "redraw"
	default:
		return fmt.Sprintf("design(%d)", int(d))
	}
}

// ParseDesign maps the user-facing design names onto the enum.
func ParseDesign(s string) (Design, error) {
	switch s {
	case "fixed":
		return Fixed, nil
	case "redraw":
		return Redraw, nil
	default:
		return 0, fmt.Errorf("%w: unknown design %q (want fixed or redraw)", ErrInvalidConfig, s)
	}
}

// Config holds everything one experiment run needs.
type Config struct {
	Design Design
	N      int
	NTreat int
	Reps   int
	Seed   int64
	Tau0   float64
	// Workers > 1 splits repetitions across goroutines, each consuming its
	// own derived substream. 0 or 1 runs the serial single-stream loop.
	Workers int
}

// Validate rejects malformed parameters synchronously, before the random
// stream is touched. Values are never silently clamped.
func (c Config) Validate() error {
	if c.N <= 0 {
		return fmt.Errorf("%w: n %d must be positive", ErrInvalidConfig, c.N)
	}
	if c.NTreat < 1 || c.NTreat > c.N-1 {
		return fmt.Errorf("%w: ntreat %d must be in [1, %d]", ErrInvalidConfig, c.NTreat, c.N-1)
	}
	if c.Reps <= 0 {
		return fmt.Errorf("%w: reps %d must be positive", ErrInvalidConfig, c.Reps)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must be non-negative", ErrInvalidConfig, c.Workers)
	}
	if c.Design != Fixed && c.Design != Redraw {
		return fmt.Errorf("%w: unknown design %d", ErrInvalidConfig, int(c.Design))
	}
	return nil
}

// Result is one repetition's output: the point estimate, its robust
// variance estimate and the coverage indicator. Never mutated once stored.
type Result struct {
	B       float64
	Vhat    float64
	Covered bool
}

// Summary reduces the repetition series. VarB is the sample variance of the
// point estimates across repetitions. Anomalies counts repetitions whose
// estimate or variance came out non-finite; those are excluded from the
// means rather than silently averaged in.
type Summary struct {
	Design       Design
	Target       float64
	MeanB        float64
	VarB         float64
	MeanVhat     float64
	CoverageRate float64
	Reps         int
	Anomalies    int
}

// Runner executes experiments. Safe for concurrent use; each Run owns all
// of its own mutable state.
type Runner struct {
	log *zap.Logger
}

// NewRunner returns a Runner logging through log. A nil logger disables
// logging.
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

// Run executes one full experiment: seed, (population), reps repetitions,
// reduction. Deterministic for a given (Config.Seed, Config.Workers).
func (r *Runner) Run(ctx context.Context, cfg Config) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	master := randstream.New(cfg.Seed)

	// The fixed design draws its one population from the master stream
	// before any repetition; its target is data-dependent. The redraw
	// design's target is the configured constant.
	var pop design.Population
	var target float64
	if cfg.Design == Fixed {
		var err error
		pop, err = design.GeneratePopulation(master, cfg.N, cfg.Tau0)
		if err != nil {
			return Summary{}, err
		}
		target = pop.ATE()
	} else {
		target = cfg.Tau0
	}

	results := make([]Result, cfg.Reps)
	var err error
	if cfg.Workers > 1 {
		err = r.runParallel(ctx, cfg, master, pop, target, results)
	} else {
		err = r.runSerial(ctx, cfg, master, pop, target, results)
	}
	if err != nil {
		return Summary{}, err
	}

	summary := reduce(cfg, target, results)
	r.log.Info("experiment complete",
		zap.Stringer("design", cfg.Design),
		zap.Int("reps", cfg.Reps),
		zap.Float64("target", summary.Target),
		zap.Float64("mean_b", summary.MeanB),
		zap.Float64("coverage_rate", summary.CoverageRate),
	)
	if summary.Anomalies > 0 {
		r.log.Warn("non-finite repetition results excluded from summary",
			zap.Stringer("design", cfg.Design),
			zap.Int("anomalies", summary.Anomalies),
		)
	}
	return summary, nil
}

// runSerial consumes the master stream in a fixed deterministic order, one
// repetition after another.
func (r *Runner) runSerial(ctx context.Context, cfg Config, rs *randstream.Stream, pop design.Population, target float64, results []Result) error {
	for i := range results {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		res, err := repetition(cfg, rs, pop, target)
		if err != nil {
			return err
		}
		results[i] = res
	}
	return nil
}

// runParallel fans repetitions out across cfg.Workers goroutines. Worker k
// owns substream Derive(k+1) and repetition indices congruent to k, so the
// result slice is filled without coordination and the run stays
// deterministic for a given worker count. The reduction itself is
// order-independent.
func (r *Runner) runParallel(ctx context.Context, cfg Config, master *randstream.Stream, pop design.Population, target float64, results []Result) error {
	g, ctx := errgroup.WithContext(ctx)
	for k := 0; k < cfg.Workers; k++ {
		sub := master.Derive(k + 1)
		g.Go(func() error {
			for i := k; i < cfg.Reps; i += cfg.Workers {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				res, err := repetition(cfg, sub, pop, target)
				if err != nil {
					return err
				}
				results[i] = res
			}
			return nil
		})
	}
	return g.Wait()
}

// repetition runs one draw-assign-observe-estimate cycle. Per-unit data
// lives only within this call; just the three summary scalars survive.
func repetition(cfg Config, rs *randstream.Stream, pop design.Population, target float64) (Result, error) {
	if cfg.Design == Redraw {
		var err error
		pop, err = design.GeneratePopulation(rs, cfg.N, cfg.Tau0)
		if err != nil {
			return Result{}, err
		}
	}
	asg, err := design.GenerateAssignment(rs, cfg.N, cfg.NTreat)
	if err != nil {
		return Result{}, err
	}

	sample := design.Observe(pop, asg)
	b, vhat := estimator.Estimate(sample)
	lo, hi := estimator.ConfidenceInterval(b, vhat)
	return Result{B: b, Vhat: vhat, Covered: estimator.Covers(target, lo, hi)}, nil
}

// reduce collapses the repetition series into the summary. Non-finite
// repetitions are counted as anomalies and left out of the moments and the
// coverage denominator.
func reduce(cfg Config, target float64, results []Result) Summary {
	bs := make([]float64, 0, len(results))
	vhats := make([]float64, 0, len(results))
	covered := 0
	anomalies := 0

	for _, res := range results {
		if !isFinite(res.B) || !isFinite(res.Vhat) {
			anomalies++
			continue
		}
		bs = append(bs, res.B)
		vhats = append(vhats, res.Vhat)
		if res.Covered {
			covered++
		}
	}

	s := Summary{
		Design:    cfg.Design,
		Target:    target,
		Reps:      len(results),
		Anomalies: anomalies,
	}
	if len(bs) > 0 {
		s.MeanB = stat.Mean(bs, nil)
		s.VarB = stat.Variance(bs, nil)
		s.MeanVhat = stat.Mean(vhats, nil)
		s.CoverageRate = float64(covered) / float64(len(bs))
	} else {
		s.MeanB = math.NaN()
		s.VarB = math.NaN()
		s.MeanVhat = math.NaN()
		s.CoverageRate = math.NaN()
	}
	return s
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
