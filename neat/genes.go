package neat

import "fmt"

// ConnectionKey identifies a connection by its ordered (source, target) node ids.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// Gene is a weighted, possibly disabled connection between two nodes.
// Its innovation number is the key under which a Genome stores it.
type Gene struct {
	Source  int
	Target  int
	Weight  float64
	Enabled bool
}

// Key returns the connection endpoints of the gene.
func (g *Gene) Key() ConnectionKey {
	return ConnectionKey{InNodeID: g.Source, OutNodeID: g.Target}
}

// Copy creates a deep copy of the Gene.
func (g *Gene) Copy() *Gene {
	return &Gene{
		Source:  g.Source,
		Target:  g.Target,
		Weight:  g.Weight,
		Enabled: g.Enabled,
	}
}

// String returns a string representation of the Gene.
func (g *Gene) String() string {
	return fmt.Sprintf("Gene(%d->%d, Weight: %.3f, Enabled: %t)", g.Source, g.Target, g.Weight, g.Enabled)
}
