package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/neat-breakout/neat/store"
)

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dbPath, _ := cmd.Flags().GetString("db")

	db := store.NewSQLiteStore(dbPath)
	if err := db.Init(ctx); err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		runs, err := db.Runs(ctx)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s\t%s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	history, err := db.History(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "generation\tspecies\ttotal_average_fitness\tbest_fitness")
	for _, rec := range history {
		fmt.Fprintf(out, "%d\t%d\t%.4f\t%.4f\n", rec.Generation, rec.Species, rec.TotalAverageFitness, rec.BestFitness)
	}
	return nil
}
