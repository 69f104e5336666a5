package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-breakout/neat"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neat.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func smallConfig() *neat.Config {
	config := neat.DefaultConfig()
	config.Neat.PopSize = 12
	return config
}

func quietOptions() []neat.Option {
	return []neat.Option{neat.WithSeed(5), neat.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neat.db"))
	_, err := store.CreateRun(context.Background())
	assert.Error(t, err)

	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
	assert.NoError(t, store.Close())
}

func TestSQLiteStoreRunsAndHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	runID, err := store.CreateRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)

	require.NoError(t, store.RecordGeneration(ctx, runID, GenerationRecord{Generation: 1, Species: 30, TotalAverageFitness: 2, BestFitness: 4}))
	require.NoError(t, store.RecordGeneration(ctx, runID, GenerationRecord{Generation: 0, Species: 200, TotalAverageFitness: 1, BestFitness: 3}))
	require.NoError(t, store.RecordGeneration(ctx, runID, GenerationRecord{Generation: 1, Species: 28, TotalAverageFitness: 2.5, BestFitness: 5}))

	history, err := store.History(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []GenerationRecord{
		{Generation: 0, Species: 200, TotalAverageFitness: 1, BestFitness: 3},
		{Generation: 1, Species: 28, TotalAverageFitness: 2.5, BestFitness: 5},
	}, history)

	other, err := store.History(ctx, "unknown-run")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteStoreGenomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	runID, err := store.CreateRun(ctx)
	require.NoError(t, err)

	p, err := neat.NewPopulation(smallConfig(), quietOptions()...)
	require.NoError(t, err)
	genome := p.Genomes()[0]
	genome.Fitness = 17

	require.NoError(t, store.SaveGenome(ctx, runID, "best", genome))
	loaded, ok, err := store.GetGenome(ctx, runID, "best")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, genome.Genes, loaded.Genes)
	assert.Equal(t, genome.Nodes, loaded.Nodes)
	assert.Equal(t, 17.0, loaded.Fitness)

	genome.Fitness = 18
	require.NoError(t, store.SaveGenome(ctx, runID, "best", genome))
	loaded, ok, err = store.GetGenome(ctx, runID, "best")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 18.0, loaded.Fitness)

	_, ok, err = store.GetGenome(ctx, runID, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	runID, err := store.CreateRun(ctx)
	require.NoError(t, err)

	_, ok, err := store.LoadCheckpoint(ctx, runID, smallConfig())
	require.NoError(t, err)
	assert.False(t, ok)

	config := smallConfig()
	p, err := neat.NewPopulation(config, quietOptions()...)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := p.RunGeneration(func(g *neat.Genome) (float64, error) {
			return float64(len(g.Genes)), nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, store.SaveCheckpoint(ctx, runID, p))

	restored, ok, err := store.LoadCheckpoint(ctx, runID, config, quietOptions()...)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Generation, restored.Generation)
	assert.Equal(t, p.Size(), restored.Size())
	assert.Equal(t, p.Breeder().Innovations.Len(), restored.Breeder().Innovations.Len())

	original, resumed := p.Genomes(), restored.Genomes()
	require.Len(t, resumed, len(original))
	for i := range original {
		assert.Equal(t, original[i].Genes, resumed[i].Genes)
	}
}
