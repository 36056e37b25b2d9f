package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/rlindsey28/rollbot/dice"

	"github.com/spf13/cobra"
)

func newRollCmd() *cobra.Command {
	var (
		limits dice.Limits
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "roll NOTATION...",
		Short: "Evaluate dice notation locally and print the replies",
		Long: `Evaluate one or more dice expressions exactly as the /r command would.

Examples:
  rollbot roll 2d20+5
  rollbot roll d6 3d8-2 --seed 42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := dice.NewEvaluator(limits)
			if seed != 0 {
				rng := rand.New(rand.NewPCG(seed, seed))
				e.NewRand = func() *rand.Rand { return rng }
			}
			for _, arg := range args {
				fmt.Fprintln(cmd.OutOrStdout(), e.Evaluate(arg))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limits.MaxCount, "max-count", 0, "maximum dice per roll (0 = unlimited)")
	cmd.Flags().IntVar(&limits.MaxSides, "max-sides", 0, "maximum sides per die (0 = unlimited)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible rolls (0 = random)")
	return cmd
}
