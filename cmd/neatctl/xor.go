package main

import (
	"errors"

	"github.com/baldhumanity/neat-breakout/neat"
)

// XOR inputs and expected outputs.
var xorInputs = [][]float64{
	{0.0, 0.0},
	{0.0, 1.0},
	{1.0, 0.0},
	{1.0, 1.0},
}
var xorOutputs = []float64{0.0, 1.0, 1.0, 0.0}

// xorConfig is the built-in configuration for the XOR environment.
func xorConfig() *neat.Config {
	config := neat.DefaultConfig()
	config.Genome.NumInputs = 2
	config.Genome.NumOutputs = 1
	config.Neat.PopSize = 150
	config.Neat.FitnessThreshold = 15.0
	config.Neat.NoFitnessTermination = false
	return config
}

// evalXOR scores a genome on the XOR truth table.
// Fitness = max(0, 4 - sum of squared errors) ^ 2, so a perfect genome scores 16.
func evalXOR(g *neat.Genome) (float64, error) {
	if g.NumInputs != 2 || g.NumOutputs < 1 {
		return 0, errors.New("xor environment needs 2 inputs and at least 1 output")
	}
	outputKey := g.OutputKeys()[0]

	sumSquaredError := 0.0
	for i, inputs := range xorInputs {
		outputs, err := g.Activate(inputs)
		if err != nil {
			return 0, err
		}
		diff := outputs[outputKey] - xorOutputs[i]
		sumSquaredError += diff * diff
	}

	baseFitness := 4.0 - sumSquaredError
	if baseFitness < 0 {
		baseFitness = 0
	}
	return baseFitness * baseFitness, nil
}
