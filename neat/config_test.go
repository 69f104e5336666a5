package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, 200, config.Neat.PopSize)
	assert.Equal(t, 0.5, config.SpeciesSet.CompatibilityThreshold)
	assert.Equal(t, -1.0, config.Genome.WeightsMutateMin)
	assert.Equal(t, 0.2, config.Genome.WeightsMutateMax)
	assert.Equal(t, 0.79, config.Reproduction.GeneDominance)
}

func TestLoadConfigINI(t *testing.T) {
	path := writeConfigFile(t, "run.ini", `
[NEAT]
pop_size = 80
fitness_threshold = 3.5
no_fitness_termination = false
seed = 9

[DefaultGenome]
num_inputs = 4
num_outputs = 3

[DefaultReproduction]
gene_dominance = 0.6
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 80, config.Neat.PopSize)
	assert.Equal(t, 3.5, config.Neat.FitnessThreshold)
	assert.False(t, config.Neat.NoFitnessTermination)
	assert.Equal(t, int64(9), config.Neat.Seed)
	assert.Equal(t, 4, config.Genome.NumInputs)
	assert.Equal(t, 3, config.Genome.NumOutputs)
	assert.Equal(t, 0.6, config.Reproduction.GeneDominance)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 0.45, config.Genome.ConnAddProb)
	assert.Equal(t, 2, config.Stagnation.MaxStaleness)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfigFile(t, "run.yaml", `
neat:
  pop_size: 120
genome:
  num_inputs: 5
  node_add_prob: 0.2
species_set:
  compatibility_threshold: 0.8
stagnation:
  max_staleness: 4
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120, config.Neat.PopSize)
	assert.Equal(t, 5, config.Genome.NumInputs)
	assert.Equal(t, 2, config.Genome.NumOutputs)
	assert.Equal(t, 0.2, config.Genome.NodeAddProb)
	assert.Equal(t, 0.8, config.SpeciesSet.CompatibilityThreshold)
	assert.Equal(t, 4, config.Stagnation.MaxStaleness)
}

func TestLoadBundledConfigs(t *testing.T) {
	xor, err := LoadConfig(filepath.Join("..", "configs", "xor.ini"))
	require.NoError(t, err)
	assert.Equal(t, 2, xor.Genome.NumInputs)
	assert.Equal(t, 1, xor.Genome.NumOutputs)

	breakout, err := LoadConfig(filepath.Join("..", "configs", "breakout.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, breakout.Genome.NumInputs)
	assert.Equal(t, 2, breakout.Genome.NumOutputs)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfigFile(t, "broken.yaml", "neat: [this is: not a map")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	path = writeConfigFile(t, "invalid.ini", "[DefaultGenome]\nconn_add_prob = 1.5\n")
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "conn_add_prob")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"pop size", func(c *Config) { c.Neat.PopSize = -1 }, "pop_size"},
		{"outputs", func(c *Config) { c.Genome.NumOutputs = 0 }, "num_outputs"},
		{"too many outputs", func(c *Config) { c.Genome.NumOutputs = MaxLayer + 1 }, "num_outputs"},
		{"probability", func(c *Config) { c.Reproduction.GeneDominance = -0.1 }, "gene_dominance"},
		{"init range", func(c *Config) { c.Genome.WeightInitMax = -3 }, "weight_init_max"},
		{"max portion", func(c *Config) { c.Reproduction.MaxPortion = 0 }, "max_portion"},
		{"stud candidates", func(c *Config) { c.Reproduction.StudCandidates = 0 }, "stud_candidates"},
		{"staleness", func(c *Config) { c.Stagnation.MaxStaleness = -1 }, "max_staleness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
