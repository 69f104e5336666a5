package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/neat-breakout/neat"
	"github.com/baldhumanity/neat-breakout/neat/store"
)

func runEvolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	generations, _ := cmd.Flags().GetInt("generations")
	seed, _ := cmd.Flags().GetInt64("seed")
	dbPath, _ := cmd.Flags().GetString("db")
	checkpointPath, _ := cmd.Flags().GetString("checkpoint")
	checkpointEvery, _ := cmd.Flags().GetInt("checkpoint-every")
	resumePath, _ := cmd.Flags().GetString("resume")
	winnerPath, _ := cmd.Flags().GetString("winner")

	config := xorConfig()
	if configPath != "" {
		config, err = neat.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}
	if seed != 0 {
		config.Neat.Seed = seed
	}

	opts := []neat.Option{neat.WithSeed(config.Neat.Seed), neat.WithLogger(logger)}
	var pop *neat.Population
	if resumePath != "" {
		pop, err = neat.LoadCheckpoint(resumePath, config, opts...)
	} else {
		pop, err = neat.NewPopulation(config, opts...)
	}
	if err != nil {
		return err
	}

	var (
		db    *store.SQLiteStore
		runID string
	)
	if dbPath != "" {
		db = store.NewSQLiteStore(dbPath)
		if err := db.Init(ctx); err != nil {
			return fmt.Errorf("open run database: %w", err)
		}
		defer db.Close()
		if runID, err = db.CreateRun(ctx); err != nil {
			return err
		}
		logger.Info("recording run", slog.String("run_id", runID), slog.String("db", dbPath))
	}

	winner, err := evolve(ctx, pop, generations, db, runID, checkpointPath, checkpointEvery)
	if err != nil {
		return err
	}

	best := winner
	if best == nil {
		best = pop.BestGenome
		fmt.Fprintf(cmd.OutOrStdout(), "Reached maximum generations (%d).\n", generations)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Fitness threshold met!")
	}
	if best == nil {
		return nil
	}

	if err := best.SaveGenome(winnerPath); err != nil {
		return err
	}
	if db != nil {
		if err := db.SaveGenome(ctx, runID, "best", best); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Best genome (species %d, fitness %.4f) saved to %s\n", best.Species, best.Fitness, winnerPath)
	fmt.Fprintln(cmd.OutOrStdout(), " Input | Expected | Output")
	for i, inputs := range xorInputs {
		outputs, err := best.Activate(inputs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), " %v |   %.1f    | %.4f\n", inputs, xorOutputs[i], outputs[best.OutputKeys()[0]])
	}
	return nil
}

// evolve runs up to generations generations, recording each one in the
// store and writing periodic checkpoints. It returns the winner if the
// fitness threshold was met.
func evolve(ctx context.Context, pop *neat.Population, generations int, db *store.SQLiteStore, runID, checkpointPath string, checkpointEvery int) (*neat.Genome, error) {
	for i := 0; i < generations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		generation := pop.Generation
		speciesCount := len(pop.Species)
		winner, err := pop.RunGeneration(evalXOR)
		if err != nil {
			return nil, err
		}

		if db != nil {
			rec := store.GenerationRecord{
				Generation:          generation,
				Species:             speciesCount,
				TotalAverageFitness: pop.TotalAverageFitness,
			}
			if pop.BestGenome != nil {
				rec.BestFitness = pop.BestGenome.Fitness
			}
			if err := db.RecordGeneration(ctx, runID, rec); err != nil {
				return nil, err
			}
		}
		if winner != nil {
			return winner, nil
		}

		if checkpointEvery > 0 && pop.Generation%checkpointEvery == 0 {
			if checkpointPath != "" {
				if err := pop.SaveCheckpoint(checkpointPath); err != nil {
					return nil, err
				}
			}
			if db != nil {
				if err := db.SaveCheckpoint(ctx, runID, pop); err != nil {
					return nil, err
				}
			}
		}
	}
	return nil, nil
}
