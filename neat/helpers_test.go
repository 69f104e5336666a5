package neat

import (
	"io"
	"log/slog"
	"math/rand"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBreeder(config *Config, seed int64) *Breeder {
	if config == nil {
		config = DefaultConfig()
	}
	return NewBreeder(config, NewInnovationRegistry(), rand.New(rand.NewSource(seed)), quietLogger())
}

// frozenConfig disables every mutation gate so crossover results can be checked exactly.
func frozenConfig() *Config {
	config := DefaultConfig()
	config.Genome.ConnAddProb = 0
	config.Genome.NodeAddProb = 0
	config.Genome.WeightMutateProb = 0
	config.Genome.WeightsMutateProb = 0
	return config
}

// checkGenomeInvariants returns a description of the first broken structural rule, or "".
func checkGenomeInvariants(g *Genome) string {
	for _, gene := range g.Genes {
		if _, ok := g.Nodes[gene.Source]; !ok {
			return "gene source missing from nodes"
		}
		if _, ok := g.Nodes[gene.Target]; !ok {
			return "gene target missing from nodes"
		}
		if gene.Source >= gene.Target {
			return "gene does not point to a higher id"
		}
		if gene.Source > MaxLayer || gene.Target <= 0 {
			return "gene endpoints out of range"
		}
	}
	for i := 1; i <= g.NumInputs; i++ {
		if _, ok := g.Nodes[-i]; !ok {
			return "input node missing"
		}
	}
	for i := 1; i <= g.NumOutputs; i++ {
		if _, ok := g.Nodes[MaxLayer+i]; !ok {
			return "output node missing"
		}
	}
	if _, ok := g.Nodes[BiasNode]; !ok {
		return "bias node missing"
	}
	return ""
}
