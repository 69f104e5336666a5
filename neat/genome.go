package neat

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/baldhumanity/neat-breakout/neat/nn"
)

const (
	// MaxLayer is the largest hidden node id. Output ids start right above it.
	MaxLayer = nn.MaxLayer
	// BiasNode is the id of the always-on bias node.
	BiasNode = nn.BiasNode
)

// ErrInvalidInputLength is returned by Activate when the input vector does
// not have exactly one value per input node.
var ErrInvalidInputLength = errors.New("invalid input length")

// Genome represents an individual organism in the population.
//
// Node ids follow a fixed convention: inputs are -1..-NumInputs, the bias is
// 0, hidden nodes are 1..MaxLayer and outputs are MaxLayer+1..MaxLayer+NumOutputs.
// Evaluating nodes in ascending id order is the network's feed-forward order,
// so hidden ids are only ever created between the endpoints they split.
type Genome struct {
	Genes      map[int]*Gene    // innovation number -> gene
	Nodes      map[int]struct{} // node id set
	NumInputs  int
	NumOutputs int
	Species    int
	Name       int
	Fitness    float64

	network *nn.Network // derived from Genes, nil when stale
}

// NewGenome creates a genome holding only its input, bias and output nodes.
func NewGenome(numInputs, numOutputs, species, name int) *Genome {
	g := &Genome{
		Genes:      make(map[int]*Gene),
		Nodes:      make(map[int]struct{}, numInputs+numOutputs+1),
		NumInputs:  numInputs,
		NumOutputs: numOutputs,
		Species:    species,
		Name:       name,
	}
	g.addFixedNodes()
	return g
}

func (g *Genome) addFixedNodes() {
	for i := 0; i < g.NumInputs; i++ {
		g.Nodes[-1-i] = struct{}{}
	}
	for i := 0; i < g.NumOutputs; i++ {
		g.Nodes[MaxLayer+1+i] = struct{}{}
	}
	g.Nodes[BiasNode] = struct{}{}
}

// Clone creates a deep copy of the genome. The compiled network is not copied.
func (g *Genome) Clone() *Genome {
	c := &Genome{
		Genes:      make(map[int]*Gene, len(g.Genes)),
		Nodes:      make(map[int]struct{}, len(g.Nodes)),
		NumInputs:  g.NumInputs,
		NumOutputs: g.NumOutputs,
		Species:    g.Species,
		Name:       g.Name,
		Fitness:    g.Fitness,
	}
	for innov, gene := range g.Genes {
		c.Genes[innov] = gene.Copy()
	}
	for id := range g.Nodes {
		c.Nodes[id] = struct{}{}
	}
	return c
}

// SortedNodes returns the node ids in ascending order.
func (g *Genome) SortedNodes() []int {
	nodes := make([]int, 0, len(g.Nodes))
	for id := range g.Nodes {
		nodes = append(nodes, id)
	}
	sort.Ints(nodes)
	return nodes
}

// Innovations returns the innovation numbers of the genome in ascending order.
func (g *Genome) Innovations() []int {
	innovs := make([]int, 0, len(g.Genes))
	for innov := range g.Genes {
		innovs = append(innovs, innov)
	}
	sort.Ints(innovs)
	return innovs
}

// generateNodes adds every gene endpoint to the node set.
func (g *Genome) generateNodes() {
	for _, gene := range g.Genes {
		g.Nodes[gene.Source] = struct{}{}
		g.Nodes[gene.Target] = struct{}{}
	}
}

// invalidate drops the compiled network after a gene change.
func (g *Genome) invalidate() {
	g.network = nil
}

// --------------------------- Network ---------------------------

// BuildNetwork compiles the enabled genes into a network. It is idempotent and
// must be called again after any mutation; Activate does so automatically.
func (g *Genome) BuildNetwork() error {
	edges := make([]nn.Edge, 0, len(g.Genes))
	for _, innov := range g.Innovations() {
		gene := g.Genes[innov]
		if !gene.Enabled {
			continue
		}
		edges = append(edges, nn.Edge{Source: gene.Source, Target: gene.Target, Weight: gene.Weight})
	}
	net, err := nn.New(g.SortedNodes(), edges)
	if err != nil {
		return fmt.Errorf("failed to build network for genome %d of species %d: %w", g.Name, g.Species, err)
	}
	if net.NumInputs() != g.NumInputs {
		return fmt.Errorf("failed to build network for genome %d of species %d: %d input nodes, expected %d",
			g.Name, g.Species, net.NumInputs(), g.NumInputs)
	}
	g.network = net
	return nil
}

// Activate runs the network on inputs and returns output node id -> value.
func (g *Genome) Activate(inputs []float64) (map[int]float64, error) {
	if len(inputs) != g.NumInputs {
		return nil, fmt.Errorf("%w: got %d values, genome has %d inputs", ErrInvalidInputLength, len(inputs), g.NumInputs)
	}
	if g.network == nil {
		if err := g.BuildNetwork(); err != nil {
			return nil, err
		}
	}
	return g.network.Activate(inputs)
}

// OutputKeys returns the output node ids in ascending order.
func (g *Genome) OutputKeys() []int {
	keys := make([]int, g.NumOutputs)
	for i := range keys {
		keys[i] = MaxLayer + 1 + i
	}
	return keys
}

// --------------------------- Mutation ---------------------------

// Mutate applies the four mutation operators, each behind its own
// independent coin flip, in a fixed order. Any subset may fire.
func (g *Genome) Mutate(b *Breeder) {
	cfg := &b.Config.Genome
	if b.chance(cfg.ConnAddProb) {
		g.AddConnection(b)
	}
	if b.chance(cfg.NodeAddProb) {
		g.AddNeuron(b)
	}
	if b.chance(cfg.WeightMutateProb) {
		g.MutateOneWeight(b)
	}
	if b.chance(cfg.WeightsMutateProb) {
		g.MutateAllWeights(b)
	}
}

// AddConnection connects two random nodes. The pair is redrawn until one end
// can send and the other can receive, i.e. it is neither two outputs nor two
// of the input/bias nodes. An existing gene for the pair is re-enabled instead
// of duplicated.
func (g *Genome) AddConnection(b *Breeder) {
	nodes := g.SortedNodes()
	// The lowest and highest ids form a valid pair exactly when any valid pair exists.
	if len(nodes) < 2 || nodes[0] > MaxLayer || nodes[len(nodes)-1] <= 0 {
		return
	}

	var source, target int
	for {
		i := b.Rand.Intn(len(nodes))
		j := b.Rand.Intn(len(nodes) - 1)
		if j >= i {
			j++
		}
		source, target = nodes[i], nodes[j]
		if source > target {
			source, target = target, source
		}
		if source <= MaxLayer && target > 0 {
			break
		}
	}

	key := ConnectionKey{InNodeID: source, OutNodeID: target}
	for _, innov := range g.Innovations() {
		gene := g.Genes[innov]
		if gene.Key() == key {
			gene.Enabled = true
			g.invalidate()
			return
		}
	}

	g.addGene(b, source, target, b.uniform(b.Config.Genome.WeightInitMin, b.Config.Genome.WeightInitMax))
}

// addGene inserts an enabled gene under the registry's innovation number.
func (g *Genome) addGene(b *Breeder, source, target int, weight float64) {
	innov := b.Innovations.LookupOrCreate(source, target)
	g.Genes[innov] = &Gene{
		Source:  source,
		Target:  target,
		Weight:  weight,
		Enabled: true,
	}
	g.Nodes[source] = struct{}{}
	g.Nodes[target] = struct{}{}
	g.invalidate()
}

// AddNeuron splits a random gene with a new hidden node whose id lies strictly
// between the gene's endpoints. The old gene is disabled and replaced by
// source->new (weight 1) and new->target (old weight). If no hidden id fits
// between the endpoints, or the drawn id is already a node, nothing changes.
func (g *Genome) AddNeuron(b *Breeder) {
	if len(g.Genes) == 0 {
		return
	}
	innovs := g.Innovations()
	gene := g.Genes[innovs[b.Rand.Intn(len(innovs))]]

	lo := max(gene.Source+1, 1)
	hi := min(gene.Target-1, MaxLayer)
	if lo > hi {
		return
	}
	node := lo + b.Rand.Intn(hi-lo+1)
	if _, exists := g.Nodes[node]; exists {
		return
	}

	gene.Enabled = false
	g.addGene(b, gene.Source, node, 1.0)
	g.addGene(b, node, gene.Target, gene.Weight)
}

// MutateOneWeight nudges the weight of one random gene.
func (g *Genome) MutateOneWeight(b *Breeder) {
	if len(g.Genes) == 0 {
		return
	}
	innovs := g.Innovations()
	gene := g.Genes[innovs[b.Rand.Intn(len(innovs))]]
	gene.Weight += b.uniform(b.Config.Genome.WeightMutateMin, b.Config.Genome.WeightMutateMax)
	g.invalidate()
}

// MutateAllWeights nudges every gene's weight by an independent draw.
func (g *Genome) MutateAllWeights(b *Breeder) {
	for _, innov := range g.Innovations() {
		g.Genes[innov].Weight += b.uniform(b.Config.Genome.WeightsMutateMin, b.Config.Genome.WeightsMutateMax)
	}
	g.invalidate()
}

// --------------------------- Distance ---------------------------

// Distance calculates the genetic distance between two genomes:
//
//	delta = c1*D + c2*W
//
// where D is the number of innovation numbers present in only one genome
// divided by the larger gene count, and W is the mean absolute weight
// difference over shared innovation numbers (cfg.DisjointWeightDifference
// when nothing is shared). Two empty genomes are at distance 0.
func Distance(g1, g2 *Genome, cfg *SpeciesSetConfig) float64 {
	larger := max(len(g1.Genes), len(g2.Genes))
	if larger == 0 {
		return 0
	}

	disjoint := 0
	matching := 0
	weightDiff := 0.0
	// Sum in innovation order so the result does not depend on argument order.
	for _, innov := range g1.Innovations() {
		other, ok := g2.Genes[innov]
		if !ok {
			disjoint++
			continue
		}
		matching++
		weightDiff += math.Abs(g1.Genes[innov].Weight - other.Weight)
	}
	for innov := range g2.Genes {
		if _, ok := g1.Genes[innov]; !ok {
			disjoint++
		}
	}

	w := cfg.DisjointWeightDifference
	if matching > 0 {
		w = weightDiff / float64(matching)
	}
	return cfg.CompatibilityDisjointCoefficient*float64(disjoint)/float64(larger) +
		cfg.CompatibilityWeightCoefficient*w
}

// String returns the genes in innovation order followed by the node set.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome(Species: %d, Name: %d, Fitness: %.4f)\n", g.Species, g.Name, g.Fitness)
	for _, innov := range g.Innovations() {
		fmt.Fprintf(&sb, "  %d: %s\n", innov, g.Genes[innov])
	}
	fmt.Fprintf(&sb, "Nodes: %v", g.SortedNodes())
	return sb.String()
}
