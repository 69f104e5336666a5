package neat

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
)

// genomeRecord is the persisted form of a Genome. The compiled network is
// derived state and is never written.
type genomeRecord struct {
	Genes      map[int]Gene
	Nodes      []int
	NumInputs  int
	NumOutputs int
	Species    int
	Name       int
	Fitness    float64
}

func (g *Genome) record() genomeRecord {
	rec := genomeRecord{
		Genes:      make(map[int]Gene, len(g.Genes)),
		Nodes:      g.SortedNodes(),
		NumInputs:  g.NumInputs,
		NumOutputs: g.NumOutputs,
		Species:    g.Species,
		Name:       g.Name,
		Fitness:    g.Fitness,
	}
	for innov, gene := range g.Genes {
		rec.Genes[innov] = *gene
	}
	return rec
}

func genomeFromRecord(rec genomeRecord) (*Genome, error) {
	if rec.NumInputs <= 0 || rec.NumOutputs <= 0 {
		return nil, fmt.Errorf("corrupt genome: %d inputs, %d outputs", rec.NumInputs, rec.NumOutputs)
	}
	g := &Genome{
		Genes:      make(map[int]*Gene, len(rec.Genes)),
		Nodes:      make(map[int]struct{}, len(rec.Nodes)),
		NumInputs:  rec.NumInputs,
		NumOutputs: rec.NumOutputs,
		Species:    rec.Species,
		Name:       rec.Name,
		Fitness:    rec.Fitness,
	}
	if rec.NumOutputs > MaxLayer {
		return nil, fmt.Errorf("corrupt genome: %d outputs exceed %d", rec.NumOutputs, MaxLayer)
	}
	for _, id := range rec.Nodes {
		if id < -rec.NumInputs || id > MaxLayer+rec.NumOutputs {
			return nil, fmt.Errorf("corrupt genome: node %d outside %d..%d", id, -rec.NumInputs, MaxLayer+rec.NumOutputs)
		}
		g.Nodes[id] = struct{}{}
	}
	for _, id := range NewGenome(rec.NumInputs, rec.NumOutputs, 0, 0).SortedNodes() {
		if _, ok := g.Nodes[id]; !ok {
			return nil, fmt.Errorf("corrupt genome: missing input, bias or output node %d", id)
		}
	}
	for innov, gene := range rec.Genes {
		if _, ok := g.Nodes[gene.Source]; !ok {
			return nil, fmt.Errorf("corrupt genome: gene %d source %d is not a node", innov, gene.Source)
		}
		if _, ok := g.Nodes[gene.Target]; !ok {
			return nil, fmt.Errorf("corrupt genome: gene %d target %d is not a node", innov, gene.Target)
		}
		gene := gene
		g.Genes[innov] = &gene
	}
	return g, nil
}

// MarshalBinary encodes the genome with gob.
func (g *Genome) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g.record()); err != nil {
		return nil, fmt.Errorf("failed to encode genome: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the genome with the decoded data. On error the
// receiver is left untouched.
func (g *Genome) UnmarshalBinary(data []byte) error {
	var rec genomeRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return fmt.Errorf("failed to decode genome: %w", err)
	}
	decoded, err := genomeFromRecord(rec)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

// DecodeGenome decodes a genome produced by MarshalBinary.
func DecodeGenome(data []byte) (*Genome, error) {
	g := &Genome{}
	if err := g.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return g, nil
}

// SaveGenome writes the genome to a gzip-compressed file.
func (g *Genome) SaveGenome(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(g.record()); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode genome: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush genome file '%s': %w", filePath, err)
	}
	return nil
}

// LoadGenome reads a genome written by SaveGenome.
func LoadGenome(filePath string) (*Genome, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for genome: %w", err)
	}
	defer gzReader.Close()

	var rec genomeRecord
	if err := gob.NewDecoder(gzReader).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode genome from '%s': %w", filePath, err)
	}
	return genomeFromRecord(rec)
}
