package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// PopulationSaveData is a helper struct to hold only the parts of Population needed for saving.
// The Config is not saved; the caller supplies it again on load. The random
// source state is not saved either, so a resumed run is seeded afresh.
type PopulationSaveData struct {
	Species             map[int]speciesRecord
	Generation          int
	TotalAverageFitness float64
	Registry            RegistrySnapshot
	BestGenome          *genomeRecord
}

type speciesRecord struct {
	Name           int
	Genomes        map[int]genomeRecord
	AverageFitness float64
	Staleness      int
}

func (p *Population) saveData() PopulationSaveData {
	data := PopulationSaveData{
		Species:             make(map[int]speciesRecord, len(p.Species)),
		Generation:          p.Generation,
		TotalAverageFitness: p.TotalAverageFitness,
		Registry:            p.breeder.Innovations.Snapshot(),
	}
	for sid, sp := range p.Species {
		rec := speciesRecord{
			Name:           sp.Name,
			Genomes:        make(map[int]genomeRecord, len(sp.Genomes)),
			AverageFitness: sp.AverageFitness,
			Staleness:      sp.Staleness,
		}
		for id, g := range sp.Genomes {
			rec.Genomes[id] = g.record()
		}
		data.Species[sid] = rec
	}
	if p.BestGenome != nil {
		best := p.BestGenome.record()
		data.BestGenome = &best
	}
	return data
}

// WriteCheckpoint gzip-compresses a gob encoding of the population state into w.
func (p *Population) WriteCheckpoint(w io.Writer) error {
	gzWriter := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzWriter).Encode(p.saveData()); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush population data: %w", err)
	}
	return nil
}

// SaveCheckpoint saves the current state of the Population to a file.
func (p *Population) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := p.WriteCheckpoint(file); err != nil {
		return err
	}
	p.breeder.Logger.Info("checkpoint saved", "path", filePath, "generation", p.Generation)
	return nil
}

// ReadCheckpoint restores a population written by WriteCheckpoint. Any
// WithRegistry option is ignored; the registry comes from the checkpoint.
func ReadCheckpoint(r io.Reader, config *Config, opts ...Option) (*Population, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data PopulationSaveData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}

	species := make(map[int]*Species, len(data.Species))
	for sid, rec := range data.Species {
		sp := &Species{
			Name:           rec.Name,
			Genomes:        make(map[int]*Genome, len(rec.Genomes)),
			AverageFitness: rec.AverageFitness,
			Staleness:      rec.Staleness,
		}
		for id, grec := range rec.Genomes {
			g, err := genomeFromRecord(grec)
			if err != nil {
				return nil, fmt.Errorf("species %d genome %d: %w", sid, id, err)
			}
			sp.Genomes[id] = g
		}
		species[sid] = sp
	}

	var best *Genome
	if data.BestGenome != nil {
		best, err = genomeFromRecord(*data.BestGenome)
		if err != nil {
			return nil, fmt.Errorf("best genome: %w", err)
		}
	}

	opts = append(opts, WithRegistry(RestoreInnovationRegistry(data.Registry)))
	return &Population{
		Config:              config,
		Species:             species,
		Generation:          data.Generation,
		TotalAverageFitness: data.TotalAverageFitness,
		BestGenome:          best,
		breeder:             newBreeder(config, opts),
	}, nil
}

// LoadCheckpoint loads a Population state from a checkpoint file.
func LoadCheckpoint(checkpointPath string, config *Config, opts ...Option) (*Population, error) {
	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", checkpointPath, err)
	}
	defer file.Close()

	p, err := ReadCheckpoint(file, config, opts...)
	if err != nil {
		return nil, err
	}
	p.breeder.Logger.Info("checkpoint loaded", "path", checkpointPath, "generation", p.Generation)
	return p, nil
}
