package artifact

import (
	"context"
	"os/exec"

	"github.com/neurobench/neuro-runtime/errors"
)

// Target selects the engine-loadable form the compiler emits.
type Target string

const (
	// TargetNeuron is the native-engine translation: generated scripts and
	// compiled mechanisms placed in an architecture-named directory next to
	// the model description.
	TargetNeuron Target = "neuron"
	// TargetEmbedded is a WebAssembly translation of the model, loadable by
	// the in-process engine.
	TargetEmbedded Target = "wasm"
)

// Compiler turns a declarative model description into an engine-loadable
// translation. Implementations only ever generate; running simulations is
// the backends' job.
type Compiler interface {
	// Generate emits the translation for the description at lemsPath into
	// the target's expected location. It must not run a simulation.
	Generate(ctx context.Context, lemsPath string, target Target) error
}

// JNeuroML invokes the jNeuroML executable in generation-only mode. The
// zero value runs "jnml" from PATH, quietly, failing fast on compiler
// errors.
type JNeuroML struct {
	// Executable overrides the jnml binary path.
	Executable string
	// Verbose passes the compiler's verbosity flag through.
	Verbose bool
}

func (j *JNeuroML) Generate(ctx context.Context, lemsPath string, target Target) error {
	exe := j.Executable
	if exe == "" {
		exe = "jnml"
	}

	args := []string{lemsPath}
	switch target {
	case TargetNeuron:
		args = append(args, "-neuron")
	case TargetEmbedded:
		args = append(args, "-wasm")
	default:
		return errors.Unsupported(errors.PhaseLoad, "compiler target "+string(target))
	}
	// Generation only: no simulation run, no GUI.
	args = append(args, "-norun", "-nogui")
	if j.Verbose {
		args = append(args, "-v")
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.New(errors.PhaseLoad, errors.KindExecFailure).
			Value(string(out)).
			Cause(err).
			Detail("generate %s translation for %s", target, lemsPath).
			Build()
	}
	return nil
}
