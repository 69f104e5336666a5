package neat

import (
	"math"
	"sort"
)

// Species represents a group of genetically similar genomes.
// Local genome ids are reassigned every generation and carry no identity.
type Species struct {
	Name           int
	Genomes        map[int]*Genome // local id -> genome
	AverageFitness float64
	Staleness      int // generations without an improved average fitness
}

// NewSpecies creates an empty species.
func NewSpecies(name int) *Species {
	return &Species{
		Name:    name,
		Genomes: make(map[int]*Genome),
	}
}

// nextLocalID returns one past the largest local id in use.
func (s *Species) nextLocalID() int {
	next := 0
	for id := range s.Genomes {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// AddGenome stores the genome under a fresh local id and returns that id.
func (s *Species) AddGenome(g *Genome) int {
	id := s.nextLocalID()
	g.Species = s.Name
	g.Name = id
	s.Genomes[id] = g
	return id
}

// GenerateGenome adds a fresh, partially connected genome: one add-connection
// attempt is made per node of the empty genome.
func (s *Species) GenerateGenome(b *Breeder) *Genome {
	g := newMinimalGenome(b, s.Name, s.nextLocalID())
	s.AddGenome(g)
	return g
}

func newMinimalGenome(b *Breeder, species, name int) *Genome {
	g := NewGenome(b.Config.Genome.NumInputs, b.Config.Genome.NumOutputs, species, name)
	for i, n := 0, len(g.Nodes); i < n; i++ {
		g.AddConnection(b)
	}
	return g
}

// Members returns the genomes ordered by local id.
func (s *Species) Members() []*Genome {
	ids := make([]int, 0, len(s.Genomes))
	for id := range s.Genomes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	members := make([]*Genome, len(ids))
	for i, id := range ids {
		members[i] = s.Genomes[id]
	}
	return members
}

// ranked returns the genomes ordered by descending fitness. Ties keep local id order.
func (s *Species) ranked() []*Genome {
	members := s.Members()
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Fitness > members[j].Fitness
	})
	return members
}

// GetFitnesses returns a slice containing the fitness values of all members.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Genomes))
	for _, g := range s.Members() {
		fitnesses = append(fitnesses, g.Fitness)
	}
	return fitnesses
}

// RandomGenome returns a uniformly random member, or nil for an empty species.
func (s *Species) RandomGenome(b *Breeder) *Genome {
	members := s.Members()
	if len(members) == 0 {
		return nil
	}
	return members[b.Rand.Intn(len(members))]
}

// EliminateLowestPerformers removes the least fit half (rounded down) of the species.
func (s *Species) EliminateLowestPerformers() {
	ids := make([]int, 0, len(s.Genomes))
	for id := range s.Genomes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.Genomes[ids[i]].Fitness < s.Genomes[ids[j]].Fitness
	})
	for _, id := range ids[:len(ids)/2] {
		delete(s.Genomes, id)
	}
}

// MateGenomes replaces every member with exactly numChildren offspring.
//
// With five or more members, each child first tries up to StudCandidates
// rounds in which the member ranked j is picked as a stud with probability
// 1/(7e^j) and mated with a random member; if no stud is picked, two distinct
// random members are mated. Two to four members mate in random distinct
// pairs, and a lone member mates with itself.
func (s *Species) MateGenomes(b *Breeder, numChildren int) {
	parents := s.ranked()
	next := make(map[int]*Genome, max(numChildren, 0))

	for i := 0; i < numChildren; i++ {
		var child *Genome
		switch {
		case len(parents) >= b.Config.Reproduction.StudCandidates && len(parents) >= 2:
			child = s.mateWithStud(b, parents)
		case len(parents) >= 2:
			g1, g2 := pickTwo(b, parents)
			child = s.Mate(b, g1, g2)
		case len(parents) == 1:
			child = s.Mate(b, parents[0], parents[0])
		default:
			child = newMinimalGenome(b, s.Name, i)
		}
		child.Species = s.Name
		child.Name = i
		next[i] = child
	}
	s.Genomes = next
}

func (s *Species) mateWithStud(b *Breeder, ranked []*Genome) *Genome {
	for j := 0; j < b.Config.Reproduction.StudCandidates; j++ {
		if b.chance(studChance(j)) {
			partner := ranked[b.Rand.Intn(len(ranked))]
			return s.Mate(b, ranked[j], partner)
		}
	}
	g1, g2 := pickTwo(b, ranked)
	return s.Mate(b, g1, g2)
}

// studChance is the probability that the member of rank j becomes a stud.
func studChance(j int) float64 {
	return 1 / (7 * math.Exp(float64(j)))
}

// pickTwo draws two distinct members uniformly at random.
func pickTwo(b *Breeder, members []*Genome) (*Genome, *Genome) {
	i := b.Rand.Intn(len(members))
	j := b.Rand.Intn(len(members) - 1)
	if j >= i {
		j++
	}
	return members[i], members[j]
}

// Mate produces a child by crossover. The fitter parent becomes g1. For every
// innovation number of either parent, with probability GeneDominance the
// child takes g1's gene if g1 has one, otherwise g2's gene if g2 has one; a
// gene missing from the chosen parent is not inherited at all. The child's
// nodes are derived from its genes and it is mutated once.
func (s *Species) Mate(b *Breeder, g1, g2 *Genome) *Genome {
	if g2.Fitness > g1.Fitness {
		g1, g2 = g2, g1
	}

	child := NewGenome(g1.NumInputs, g1.NumOutputs, s.Name, 0)
	for _, innov := range unionInnovations(g1, g2) {
		source := g2
		if b.chance(b.Config.Reproduction.GeneDominance) {
			source = g1
		}
		if gene, ok := source.Genes[innov]; ok {
			child.Genes[innov] = gene.Copy()
		}
	}

	child.generateNodes()
	child.Mutate(b)
	return child
}

func unionInnovations(g1, g2 *Genome) []int {
	seen := make(map[int]struct{}, len(g1.Genes)+len(g2.Genes))
	for innov := range g1.Genes {
		seen[innov] = struct{}{}
	}
	for innov := range g2.Genes {
		seen[innov] = struct{}{}
	}
	innovs := make([]int, 0, len(seen))
	for innov := range seen {
		innovs = append(innovs, innov)
	}
	sort.Ints(innovs)
	return innovs
}
