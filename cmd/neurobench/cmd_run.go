package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurobench/neuro-runtime/archive"
	"github.com/neurobench/neuro-runtime/config"
	"github.com/neurobench/neuro-runtime/model"
	"github.com/neurobench/neuro-runtime/quantity"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [model.xml]",
		Short: "Inject a square current into a model and report the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd, args)
			if err != nil {
				return err
			}

			if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
				return runInteractive(cfg)
			}
			return runOnce(cmd, cfg)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Run configuration file (YAML)")
	cmd.Flags().StringP("backend", "b", "", "Backend variant: jNeuroML, NEURON, embedded")
	cmd.Flags().StringP("amplitude", "a", "", `Stimulus amplitude, e.g. "-10.0 pA"`)
	cmd.Flags().String("delay", "", `Stimulus delay, e.g. "100.0 ms"`)
	cmd.Flags().String("duration", "", `Stimulus duration, e.g. "500.0 ms"`)
	cmd.Flags().Bool("strict-components", false, "Fail on ambiguous component classification")
	cmd.Flags().BoolP("interactive", "i", false, "Interactive mode with TUI")

	return cmd
}

// loadRunConfig merges the config file, flags, and the positional model
// path, flags winning.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.RunConfig, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("amplitude"); v != "" {
		cfg.Stimulus.Amplitude = v
	}
	if v, _ := cmd.Flags().GetString("delay"); v != "" {
		cfg.Stimulus.Delay = v
	}
	if v, _ := cmd.Flags().GetString("duration"); v != "" {
		cfg.Stimulus.Duration = v
	}
	if v, _ := cmd.Flags().GetBool("strict-components"); v {
		cfg.StrictComponents = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildModel(ctx context.Context, cfg *config.RunConfig) (*model.Model, error) {
	m, err := model.New(ctx, cfg.Backend, model.Config{
		LEMSPath:   cfg.Model,
		Policy:     cfg.Policy(),
		Executable: cfg.Executable,
	})
	if err != nil {
		return nil, err
	}
	if len(cfg.Attrs) > 0 {
		if err := m.SetAttrs(cfg.Attrs); err != nil {
			return nil, err
		}
	}
	if params := cfg.RunParams(); len(params) > 0 {
		if err := m.SetRunParams(params); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func runOnce(cmd *cobra.Command, cfg *config.RunConfig) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	m, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}

	stim, err := cfg.SquareCurrent()
	if err != nil {
		return err
	}
	if err := m.InjectSquareCurrent(ctx, stim); err != nil {
		return err
	}

	vm, err := m.MembranePotential()
	if err != nil {
		return err
	}
	res := m.Results()

	fmt.Printf("Model:    %s\n", cfg.Model)
	fmt.Printf("Backend:  %s\n", m.BackendName())
	fmt.Printf("Run:      #%d\n", res.RunNumber)
	fmt.Printf("Samples:  %d @ %s\n", len(vm.Values), vm.SamplingPeriod)
	fmt.Printf("Duration: %.1f %s\n", vm.Duration(), quantity.Millisecond)
	if !res.Finite {
		fmt.Println("Warning:  trace contains non-finite values")
	}

	if cfg.Archive != "" {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.Record(ctx, cfg.Model, m.BackendName(), stim, res); err != nil {
			return err
		}
		fmt.Printf("Archived: %s\n", cfg.Archive)
	}
	return nil
}
