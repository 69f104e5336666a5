package neat

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"
)

// FitnessFunc evaluates one genome in the external environment and returns
// its fitness. The engine only treats non-positive fitness specially when
// averaging species; keeping fitness non-negative is the caller's concern.
type FitnessFunc func(g *Genome) (float64, error)

// Population holds the state of the NEAT evolutionary process.
type Population struct {
	Config              *Config
	Species             map[int]*Species // species id -> species
	Generation          int
	TotalAverageFitness float64 // mean of the species averages used for the last allocation
	BestGenome          *Genome // best genome found so far (a copy)

	breeder *Breeder
}

type options struct {
	rng      *rand.Rand
	registry *InnovationRegistry
	logger   *slog.Logger
}

// Option customizes a Population.
type Option func(*options)

// WithRand sets the random source used by every stochastic operation.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSeed seeds a new random source.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

// WithRegistry shares an existing innovation registry.
func WithRegistry(registry *InnovationRegistry) Option {
	return func(o *options) { o.registry = registry }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newBreeder(config *Config, opts []Option) *Breeder {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return NewBreeder(config, o.registry, o.rng, o.logger)
}

// NewPopulation creates PopSize species holding one minimally connected genome each.
func NewPopulation(config *Config, opts ...Option) (*Population, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Population{
		Config:  config,
		Species: make(map[int]*Species, config.Neat.PopSize),
		breeder: newBreeder(config, opts),
	}
	for i := 0; i < config.Neat.PopSize; i++ {
		sp := NewSpecies(i)
		sp.GenerateGenome(p.breeder)
		p.Species[i] = sp
	}
	return p, nil
}

// Breeder returns the shared operator state of the population.
func (p *Population) Breeder() *Breeder {
	return p.breeder
}

// speciesIDs returns the species ids in ascending order.
func (p *Population) speciesIDs() []int {
	ids := make([]int, 0, len(p.Species))
	for sid := range p.Species {
		ids = append(ids, sid)
	}
	sort.Ints(ids)
	return ids
}

// Genomes returns every genome, ordered by species id then local id.
// This is the order in which Evaluate runs them.
func (p *Population) Genomes() []*Genome {
	var genomes []*Genome
	for _, sid := range p.speciesIDs() {
		genomes = append(genomes, p.Species[sid].Members()...)
	}
	return genomes
}

// Size returns the number of genomes across all species.
func (p *Population) Size() int {
	n := 0
	for _, sp := range p.Species {
		n += len(sp.Genomes)
	}
	return n
}

// Evaluate runs fitnessFunc on every genome and stores the results.
func (p *Population) Evaluate(fitnessFunc FitnessFunc) error {
	for _, g := range p.Genomes() {
		fitness, err := fitnessFunc(g)
		if err != nil {
			return fmt.Errorf("fitness evaluation failed for genome %d of species %d: %w", g.Name, g.Species, err)
		}
		g.Fitness = fitness
	}
	return nil
}

// RunGeneration evaluates the current generation and breeds the next one.
// It returns the best genome without breeding once the fitness threshold is
// met (unless NoFitnessTermination is set), and nil otherwise.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Genome, error) {
	start := time.Now()
	if err := p.Evaluate(fitnessFunc); err != nil {
		return nil, fmt.Errorf("generation %d: %w", p.Generation, err)
	}

	currentBest := p.findBestGenome()
	if currentBest != nil && (p.BestGenome == nil || currentBest.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = currentBest.Clone()
		p.breeder.Logger.Info("new best genome",
			slog.Int("generation", p.Generation),
			slog.Int("species", currentBest.Species),
			slog.Float64("fitness", currentBest.Fitness))
	}

	if !p.Config.Neat.NoFitnessTermination && p.BestGenome != nil &&
		p.BestGenome.Fitness >= p.Config.Neat.FitnessThreshold {
		return p.BestGenome, nil
	}

	p.NextGeneration()
	p.breeder.Logger.Debug("generation finished", slog.Duration("elapsed", time.Since(start)))
	return nil, nil
}

// findBestGenome finds the genome with the highest fitness in the current population.
func (p *Population) findBestGenome() *Genome {
	var best *Genome
	for _, g := range p.Genomes() {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// NextGeneration breeds the next generation from the evaluated one:
// re-speciate from scratch, cull each species, allocate quotas and mate,
// then reseed stale species.
func (p *Population) NextGeneration() {
	fitnesses := make([]float64, 0, p.Size())
	for _, g := range p.Genomes() {
		fitnesses = append(fitnesses, g.Fitness)
	}

	p.sortIntoSpecies()
	p.removeLowestPerformers()
	p.TotalAverageFitness = p.allocateSpecies()
	stale := p.pruneStaleSpecies()
	p.Generation++

	p.breeder.Logger.Info("generation complete",
		slog.Int("generation", p.Generation-1),
		slog.Int("species", len(p.Species)),
		slog.Int("stale_species", stale),
		slog.Float64("total_average_fitness", p.TotalAverageFitness),
		slog.Float64("best_fitness", MaxFloat(fitnesses)),
		slog.Float64("fitness_stdev", Stdev(fitnesses)),
		slog.Int("innovations", p.breeder.Innovations.Len()))
}

// sortIntoSpecies rebuilds every species from scratch. One random member of
// each non-empty species is kept as its representative; every genome then
// joins the first representative (by species id) closer than the
// compatibility threshold, or founds a new species. Empty species are dropped.
func (p *Population) sortIntoSpecies() {
	cfg := &p.Config.SpeciesSet
	representatives := make(map[int]*Genome)
	var repOrder []int
	var genomes []*Genome

	for _, sid := range p.speciesIDs() {
		sp := p.Species[sid]
		if len(sp.Genomes) == 0 {
			continue
		}
		genomes = append(genomes, sp.Members()...)
		representatives[sid] = sp.RandomGenome(p.breeder)
		repOrder = append(repOrder, sid)
		sp.Genomes = make(map[int]*Genome)
	}

	for _, g := range genomes {
		found := false
		for _, sid := range repOrder {
			if Distance(g, representatives[sid], cfg) < cfg.CompatibilityThreshold {
				p.Species[sid].AddGenome(g)
				found = true
				break
			}
		}
		if found {
			continue
		}

		sid := 0
		for {
			if _, taken := representatives[sid]; !taken {
				break
			}
			sid++
		}
		sp := NewSpecies(sid)
		sp.AddGenome(g)
		p.Species[sid] = sp
		representatives[sid] = g
		repOrder = append(repOrder, sid)
		sort.Ints(repOrder)
		p.breeder.Logger.Debug("created new species", slog.Int("species", sid))
	}

	for sid, sp := range p.Species {
		if len(sp.Genomes) == 0 {
			delete(p.Species, sid)
		}
	}
}

func (p *Population) removeLowestPerformers() {
	for _, sid := range p.speciesIDs() {
		p.Species[sid].EliminateLowestPerformers()
	}
}

// pruneStaleSpecies reseeds stale species and returns how many were reseeded.
func (p *Population) pruneStaleSpecies() int {
	stale := 0
	for _, sid := range p.speciesIDs() {
		if p.Species[sid].CheckForStaleness(p.breeder) {
			stale++
		}
	}
	return stale
}
