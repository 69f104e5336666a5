package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-breakout/neat"
	"github.com/baldhumanity/neat-breakout/neat/store"
)

func TestEvalXOR(t *testing.T) {
	// An unconnected genome outputs 0 everywhere and misses two rows.
	fitness, err := evalXOR(neat.NewGenome(2, 1, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, fitness, 1e-12)

	_, err = evalXOR(neat.NewGenome(3, 2, 0, 0))
	assert.Error(t, err)
}

func TestEvolveRecordsRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	config := xorConfig()
	config.Neat.PopSize = 30
	pop, err := neat.NewPopulation(config, neat.WithSeed(7), neat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	db := store.NewSQLiteStore(filepath.Join(dir, "runs.db"))
	require.NoError(t, db.Init(ctx))
	t.Cleanup(func() {
		_ = db.Close()
	})
	runID, err := db.CreateRun(ctx)
	require.NoError(t, err)

	checkpointPath := filepath.Join(dir, "xor.ckpt")
	winner, err := evolve(ctx, pop, 3, db, runID, checkpointPath, 1)
	require.NoError(t, err)

	history, err := db.History(ctx, runID)
	require.NoError(t, err)
	if winner != nil {
		assert.GreaterOrEqual(t, winner.Fitness, config.Neat.FitnessThreshold)
		return
	}
	require.Len(t, history, 3)
	for i, rec := range history {
		assert.Equal(t, i, rec.Generation)
		assert.GreaterOrEqual(t, rec.BestFitness, 0.0)
	}

	_, err = os.Stat(checkpointPath)
	require.NoError(t, err)
	_, ok, err := db.LoadCheckpoint(ctx, runID, config)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvolveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := xorConfig()
	config.Neat.PopSize = 10
	pop, err := neat.NewPopulation(config, neat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	_, err = evolve(ctx, pop, 5, nil, "", "", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, pop.Generation)
}
