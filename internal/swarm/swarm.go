package swarm

import (
	"math"

	"github.com/pkg/errors"

	"rbfswarm/internal/model"
	"rbfswarm/internal/nn"
	"rbfswarm/internal/rng"
)

const (
	DefaultInertia     = 0.729
	DefaultCognitive   = 1.49445
	DefaultSocial      = 1.49445
	DefaultMinPosition = -10.0
	DefaultMaxPosition = 10.0
	DefaultErrorGoal   = 0.060
)

// Objective scores a candidate position. Lower is better. It must not retain
// the slice it is given.
type Objective func(position []float64) (float64, error)

// IterationStats is reported after every completed iteration.
type IterationStats struct {
	Iteration   int
	BestError   float64
	Evaluations int
}

type Config struct {
	Dimensions    int
	Particles     int
	MaxIterations int

	Inertia   float64
	Cognitive float64
	Social    float64

	MinPosition float64
	MaxPosition float64
	// MaxVelocity bounds velocity to [-MaxVelocity, MaxVelocity]. Zero means
	// the width of the position range.
	MaxVelocity float64

	// ErrorGoal stops the search once the global best error drops below it.
	// Negative disables the early stop; zero uses DefaultErrorGoal.
	ErrorGoal float64

	Rand        rng.Source
	OnIteration func(IterationStats)
}

type Result struct {
	Best        []float64
	BestError   float64
	Iterations  int
	Evaluations int
	StopReason  string
	// History holds the global best error after initialization followed by one
	// entry per iteration.
	History []float64
}

type particle struct {
	position     []float64
	velocity     []float64
	err          float64
	bestPosition []float64
	bestErr      float64
}

func (c Config) withDefaults() Config {
	if c.Inertia == 0 {
		c.Inertia = DefaultInertia
	}
	if c.Cognitive == 0 {
		c.Cognitive = DefaultCognitive
	}
	if c.Social == 0 {
		c.Social = DefaultSocial
	}
	if c.MinPosition == 0 && c.MaxPosition == 0 {
		c.MinPosition = DefaultMinPosition
		c.MaxPosition = DefaultMaxPosition
	}
	if c.MaxVelocity == 0 {
		c.MaxVelocity = math.Abs(c.MaxPosition - c.MinPosition)
	}
	if c.ErrorGoal == 0 {
		c.ErrorGoal = DefaultErrorGoal
	}
	return c
}

func (c Config) validate() error {
	if c.Dimensions <= 0 {
		return errors.Wrapf(nn.ErrDimensionMismatch, "swarm dimensions must be > 0, got %d", c.Dimensions)
	}
	if c.Particles <= 0 {
		return errors.Errorf("swarm particles must be > 0, got %d", c.Particles)
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("swarm max iterations must be > 0, got %d", c.MaxIterations)
	}
	if c.MinPosition >= c.MaxPosition {
		return errors.Errorf("swarm position bounds are empty: [%f, %f]", c.MinPosition, c.MaxPosition)
	}
	if c.Rand == nil {
		return errors.New("swarm random source is required")
	}
	return nil
}

// Optimize searches for the position minimizing objective. Particles are
// updated in a freshly shuffled order each iteration and the global best is
// adopted immediately, so later particles in a pass steer toward improvements
// made earlier in the same pass.
func Optimize(cfg Config, objective Objective) (Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}
	if objective == nil {
		return Result{}, errors.New("swarm objective is required")
	}

	evaluations := 0
	score := func(position []float64) (float64, error) {
		evaluations++
		return objective(position)
	}

	swarm := make([]*particle, cfg.Particles)
	globalBest := make([]float64, cfg.Dimensions)
	globalErr := math.MaxFloat64
	for i := range swarm {
		position := make([]float64, cfg.Dimensions)
		for j := range position {
			position[j] = rng.Uniform(cfg.Rand, cfg.MinPosition, cfg.MaxPosition)
		}
		value, err := score(position)
		if err != nil {
			return Result{}, errors.Wrapf(err, "score initial particle %d", i)
		}
		velocity := make([]float64, cfg.Dimensions)
		for j := range velocity {
			velocity[j] = rng.Uniform(cfg.Rand, -cfg.MaxVelocity, cfg.MaxVelocity)
		}
		swarm[i] = &particle{
			position:     position,
			velocity:     velocity,
			err:          value,
			bestPosition: append([]float64(nil), position...),
			bestErr:      value,
		}
		if value < globalErr {
			globalErr = value
			copy(globalBest, position)
		}
	}

	history := make([]float64, 0, cfg.MaxIterations+1)
	history = append(history, globalErr)

	sequence := make([]int, len(swarm))
	for i := range sequence {
		sequence[i] = i
	}

	stopReason := model.StopReasonMaxIterations
	iteration := 0
	for iteration < cfg.MaxIterations {
		if cfg.ErrorGoal > 0 && globalErr < cfg.ErrorGoal {
			break
		}
		shuffle(sequence, cfg.Rand)

		for _, idx := range sequence {
			p := swarm[idx]
			for j := range p.velocity {
				r1 := cfg.Rand.Float64()
				r2 := cfg.Rand.Float64()
				v := cfg.Inertia*p.velocity[j] +
					cfg.Cognitive*r1*(p.bestPosition[j]-p.position[j]) +
					cfg.Social*r2*(globalBest[j]-p.position[j])
				p.velocity[j] = nn.Sat(v, cfg.MaxVelocity, -cfg.MaxVelocity)
			}
			for j := range p.position {
				p.position[j] = nn.Sat(p.position[j]+p.velocity[j], cfg.MaxPosition, cfg.MinPosition)
			}

			value, err := score(p.position)
			if err != nil {
				return Result{}, errors.Wrapf(err, "score particle %d at iteration %d", idx, iteration)
			}
			p.err = value
			if value < p.bestErr {
				copy(p.bestPosition, p.position)
				p.bestErr = value
			}
			if value < globalErr {
				copy(globalBest, p.position)
				globalErr = value
			}
		}

		iteration++
		history = append(history, globalErr)
		if cfg.OnIteration != nil {
			cfg.OnIteration(IterationStats{Iteration: iteration, BestError: globalErr, Evaluations: evaluations})
		}
	}
	if cfg.ErrorGoal > 0 && globalErr < cfg.ErrorGoal {
		stopReason = model.StopReasonErrorGoal
	}

	return Result{
		Best:        globalBest,
		BestError:   globalErr,
		Iterations:  iteration,
		Evaluations: evaluations,
		StopReason:  stopReason,
		History:     history,
	}, nil
}

// shuffle visits positions left to right, swapping each with a uniformly
// chosen position at or after it.
func shuffle(sequence []int, src rng.Source) {
	for i := range sequence {
		r := rng.IntRange(src, i, len(sequence))
		sequence[i], sequence[r] = sequence[r], sequence[i]
	}
}
