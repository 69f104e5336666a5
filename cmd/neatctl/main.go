// Command neatctl drives the NEAT engine: it evolves controllers against a
// built-in environment, activates saved genomes and lists recorded runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "neatctl",
		Short: "Evolve neural network topologies with NEAT",
		Long: `neatctl evolves neural network controllers with NEAT.

Genomes grow their topology through mutation, mate by aligning genes on
innovation numbers and are grouped into species by genetic distance.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	evolveCmd := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve a population against the XOR environment",
		RunE:  runEvolve,
	}
	evolveCmd.Flags().String("config", "", "Config file (.ini or .yaml); defaults to the built-in XOR setup")
	evolveCmd.Flags().Int("generations", 100, "Maximum number of generations")
	evolveCmd.Flags().Int64("seed", 0, "Random seed (0 keeps the config seed)")
	evolveCmd.Flags().String("db", "", "SQLite database recording the run")
	evolveCmd.Flags().String("checkpoint", "", "Checkpoint file written while evolving")
	evolveCmd.Flags().Int("checkpoint-every", 10, "Generations between checkpoints")
	evolveCmd.Flags().String("resume", "", "Checkpoint file to resume from")
	evolveCmd.Flags().String("winner", "winning_genome.gz", "File receiving the best genome")
	rootCmd.AddCommand(evolveCmd)

	activateCmd := &cobra.Command{
		Use:   "activate [inputs...]",
		Short: "Activate a saved genome on the given inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runActivate,
	}
	activateCmd.Flags().String("genome", "winning_genome.gz", "Genome file")
	activateCmd.Flags().Bool("show", false, "Print the genome before activating")
	rootCmd.AddCommand(activateCmd)

	runsCmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or the history of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRuns,
	}
	runsCmd.Flags().String("db", "neat.db", "SQLite database")
	rootCmd.AddCommand(runsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(levelName))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
