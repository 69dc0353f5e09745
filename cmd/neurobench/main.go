package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurobench/neuro-runtime/engine"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "neurobench",
		Short: "Drive neuron model simulations through uniform backends",
		Long: `neurobench loads a declarative neuron model description, drives it
through one of the simulator backends (jNeuroML, NEURON, embedded), and
reports the membrane potential as a uniformly sampled series.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				if l, err := zap.NewDevelopment(); err == nil {
					engine.SetLogger(l)
				}
			}
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newComponentsCmd(),
		newResampleCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("neurobench version %s\n", version)
		},
	}
}
