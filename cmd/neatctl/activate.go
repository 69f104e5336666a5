package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baldhumanity/neat-breakout/neat"
)

func runActivate(cmd *cobra.Command, args []string) error {
	genomePath, _ := cmd.Flags().GetString("genome")
	show, _ := cmd.Flags().GetBool("show")

	g, err := neat.LoadGenome(genomePath)
	if err != nil {
		return err
	}
	if show {
		fmt.Fprintln(cmd.OutOrStdout(), g)
	}

	inputs := make([]float64, len(args))
	for i, arg := range args {
		inputs[i], err = strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}

	outputs, err := g.Activate(inputs)
	if err != nil {
		return err
	}
	for _, key := range g.OutputKeys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.6f\n", key, outputs[key])
	}
	return nil
}
