package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Stagnation   StagnationConfig   `yaml:"stagnation"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"` // fixed total of genomes per generation
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"`
	Seed                 int64   `ini:"seed" yaml:"seed"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs  int `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs int `ini:"num_outputs" yaml:"num_outputs"`

	// Independent Bernoulli gates, applied in this order by Genome.Mutate.
	ConnAddProb       float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
	NodeAddProb       float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	WeightMutateProb  float64 `ini:"weight_mutate_prob" yaml:"weight_mutate_prob"`
	WeightsMutateProb float64 `ini:"weights_mutate_prob" yaml:"weights_mutate_prob"`

	WeightInitMin float64 `ini:"weight_init_min" yaml:"weight_init_min"`
	WeightInitMax float64 `ini:"weight_init_max" yaml:"weight_init_max"`
	// Perturbation range for a single gene.
	WeightMutateMin float64 `ini:"weight_mutate_min" yaml:"weight_mutate_min"`
	WeightMutateMax float64 `ini:"weight_mutate_max" yaml:"weight_mutate_max"`
	// Perturbation range applied to every gene. The default is asymmetric.
	WeightsMutateMin float64 `ini:"weights_mutate_min" yaml:"weights_mutate_min"`
	WeightsMutateMax float64 `ini:"weights_mutate_max" yaml:"weights_mutate_max"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold           float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`
	// Weight term used when two genomes share no innovation number.
	DisjointWeightDifference float64 `ini:"disjoint_weight_difference" yaml:"disjoint_weight_difference"`
}

// StagnationConfig holds parameters related to species staleness.
type StagnationConfig struct {
	MaxStaleness     int     `ini:"max_staleness" yaml:"max_staleness"`
	SoleSurvivorProb float64 `ini:"sole_survivor_prob" yaml:"sole_survivor_prob"`
}

// ReproductionConfig holds parameters related to mating and quota allocation.
type ReproductionConfig struct {
	GeneDominance  float64 `ini:"gene_dominance" yaml:"gene_dominance"` // chance a child gene comes from the fitter parent
	MaxPortion     float64 `ini:"max_portion" yaml:"max_portion"`       // largest share of PopSize one species may get
	StudCandidates int     `ini:"stud_candidates" yaml:"stud_candidates"`
}

// DefaultConfig returns the parameters the engine was tuned with.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:              200,
			FitnessThreshold:     0,
			NoFitnessTermination: true,
			Seed:                 1,
		},
		Genome: GenomeConfig{
			NumInputs:         3,
			NumOutputs:        2,
			ConnAddProb:       0.45,
			NodeAddProb:       0.05,
			WeightMutateProb:  0.5,
			WeightsMutateProb: 0.1,
			WeightInitMin:     -2,
			WeightInitMax:     2,
			WeightMutateMin:   -0.1,
			WeightMutateMax:   0.1,
			WeightsMutateMin:  -1.0,
			WeightsMutateMax:  0.2,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold:           0.5,
			CompatibilityDisjointCoefficient: 0.95,
			CompatibilityWeightCoefficient:   0.05,
			DisjointWeightDifference:         9,
		},
		Stagnation: StagnationConfig{
			MaxStaleness:     2,
			SoleSurvivorProb: 0.2,
		},
		Reproduction: ReproductionConfig{
			GeneDominance:  0.79,
			MaxPortion:     0.2,
			StudCandidates: 5,
		},
	}
}

// LoadConfig loads configuration parameters from an INI or YAML file.
// Keys missing from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
		}
	default:
		if err := loadIni(filePath, config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadIni(filePath string, config *Config) error {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	// Map sections to structs
	if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
		return fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
		return fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
	}
	if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
	}
	if err := cfg.Section("DefaultStagnation").MapTo(&config.Stagnation); err != nil {
		return fmt.Errorf("failed to map [DefaultStagnation] section: %w", err)
	}
	if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
		return fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Genome.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if c.Genome.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if c.Genome.NumOutputs > MaxLayer {
		return fmt.Errorf("config error: num_outputs cannot exceed %d", MaxLayer)
	}

	probs := map[string]float64{
		"conn_add_prob":       c.Genome.ConnAddProb,
		"node_add_prob":       c.Genome.NodeAddProb,
		"weight_mutate_prob":  c.Genome.WeightMutateProb,
		"weights_mutate_prob": c.Genome.WeightsMutateProb,
		"sole_survivor_prob":  c.Stagnation.SoleSurvivorProb,
		"gene_dominance":      c.Reproduction.GeneDominance,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}

	if c.Genome.WeightInitMax < c.Genome.WeightInitMin {
		return fmt.Errorf("config error: weight_init_max cannot be less than weight_init_min")
	}
	if c.Genome.WeightMutateMax < c.Genome.WeightMutateMin {
		return fmt.Errorf("config error: weight_mutate_max cannot be less than weight_mutate_min")
	}
	if c.Genome.WeightsMutateMax < c.Genome.WeightsMutateMin {
		return fmt.Errorf("config error: weights_mutate_max cannot be less than weights_mutate_min")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.SpeciesSet.CompatibilityDisjointCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_disjoint_coefficient cannot be negative")
	}
	if c.SpeciesSet.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_weight_coefficient cannot be negative")
	}
	if c.Stagnation.MaxStaleness < 0 {
		return fmt.Errorf("config error: max_staleness cannot be negative")
	}
	if c.Reproduction.MaxPortion <= 0 || c.Reproduction.MaxPortion > 1 {
		return fmt.Errorf("config error: max_portion must be in (0, 1]")
	}
	if c.Reproduction.StudCandidates <= 0 {
		return fmt.Errorf("config error: stud_candidates must be positive")
	}
	return nil
}
