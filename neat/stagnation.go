package neat

import "log/slog"

// CalculateAverageFitness sets AverageFitness to the mean member fitness and
// counts the generation as stale unless the average improved.
func (s *Species) CalculateAverageFitness() {
	previous := s.AverageFitness
	s.AverageFitness = Mean(s.GetFitnesses())
	if s.AverageFitness <= previous {
		s.Staleness++
	}
}

// CheckForStaleness reseeds a species that has gone more than MaxStaleness
// generations without improving. The member count is kept. With probability
// SoleSurvivorProb the best prior genome survives and the remaining slots are
// filled with fresh minimal genomes; otherwise every member is fresh. The
// species' average fitness and staleness are reset. It reports whether the
// species was reseeded.
func (s *Species) CheckForStaleness(b *Breeder) bool {
	if len(s.Genomes) == 0 || s.Staleness <= b.Config.Stagnation.MaxStaleness {
		return false
	}

	count := len(s.Genomes)
	best := s.ranked()[0]
	b.Logger.Info("species has gone stale",
		slog.Int("species", s.Name),
		slog.Int("staleness", s.Staleness),
		slog.Float64("average_fitness", s.AverageFitness))

	s.Genomes = make(map[int]*Genome, count)
	s.AverageFitness = 0
	s.Staleness = 0

	if b.chance(b.Config.Stagnation.SoleSurvivorProb) {
		s.AddGenome(best)
	}
	for len(s.Genomes) < count {
		s.GenerateGenome(b)
	}
	return true
}
