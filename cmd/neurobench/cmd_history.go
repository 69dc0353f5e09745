package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurobench/neuro-runtime/archive"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("archive")
			modelPath, _ := cmd.Flags().GetString("model")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := archive.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(context.Background(), modelPath, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No archived runs.")
				return nil
			}

			for _, r := range runs {
				finite := ""
				if !r.Finite {
					finite = "  NON-FINITE"
				}
				fmt.Printf("#%-5d %s  %-10s run %-3d %8.3f nA  %6d samples  vm [%.1f, %.1f]%s\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Backend, r.RunNumber,
					r.AmpNanoA, r.Samples, r.VMMin, r.VMMax, finite)
			}
			return nil
		},
	}

	cmd.Flags().String("archive", "runs.db", "Archive database path")
	cmd.Flags().String("model", "", "Filter by model description path")
	cmd.Flags().Int("limit", 20, "Maximum rows to list")
	return cmd
}
