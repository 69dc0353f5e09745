package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurobench/neuro-runtime/lems"
)

func newComponentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components <model.xml>",
		Short: "List a model description's components and their roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := lems.ReadComponents(args[0])
			if err != nil {
				return err
			}

			policy := lems.PolicyLastMatch
			if strict, _ := cmd.Flags().GetBool("strict-components"); strict {
				policy = lems.PolicyFail
			}
			res, err := lems.Classify(components, policy)
			if err != nil {
				return err
			}

			for _, c := range components {
				fmt.Printf("%-20s %-28s %s\n", c.ID, c.Type, lems.ClassifyComponent(c))
			}
			fmt.Println()
			fmt.Printf("Stimulus: %s\n", orUnset(res.StimulusID))
			fmt.Printf("Cell:     %s\n", orUnset(res.CellID))
			return nil
		},
	}

	cmd.Flags().Bool("strict-components", false, "Fail on ambiguous component classification")
	return cmd
}

func orUnset(id string) string {
	if id == "" {
		return "(unresolved)"
	}
	return id
}
