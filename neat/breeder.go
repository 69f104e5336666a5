package neat

import (
	"log/slog"
	"math/rand"
)

// Breeder carries the state shared by every stochastic operator of a run:
// the configuration, the innovation registry and the random source.
// Passing it explicitly keeps runs reproducible from a seed.
type Breeder struct {
	Config      *Config
	Innovations *InnovationRegistry
	Rand        *rand.Rand
	Logger      *slog.Logger
}

// NewBreeder creates a Breeder. A nil registry, random source or logger is
// replaced by a fresh registry, a source seeded from config.Neat.Seed and the
// default logger respectively.
func NewBreeder(config *Config, registry *InnovationRegistry, rng *rand.Rand, logger *slog.Logger) *Breeder {
	if config == nil {
		config = DefaultConfig()
	}
	if registry == nil {
		registry = NewInnovationRegistry()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(config.Neat.Seed))
	}
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "neat"))
	}
	return &Breeder{
		Config:      config,
		Innovations: registry,
		Rand:        rng,
		Logger:      logger,
	}
}

// chance reports true with probability p.
func (b *Breeder) chance(p float64) bool {
	return b.Rand.Float64() < p
}

// uniform draws from [lo, hi).
func (b *Breeder) uniform(lo, hi float64) float64 {
	return lo + b.Rand.Float64()*(hi-lo)
}
