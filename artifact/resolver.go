package artifact

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/lems"
)

// Artifact is an immutable, on-disk, engine-loadable translation of a model
// description, together with the component identifiers resolved from the
// description itself.
type Artifact struct {
	// Path is the translation's location: a directory for TargetNeuron,
	// a file for TargetEmbedded.
	Path string
	// Components is the description's ordered component list.
	Components []lems.Component
	// Resolution holds the stimulus and cell identifiers predicted for the
	// engine's internal naming.
	Resolution lems.Resolution
}

// Bytes reads a file artifact into memory.
func (a *Artifact) Bytes() ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, errors.Load("read artifact", err)
	}
	return data, nil
}

// ExpectedPath derives the location the compiler is expected to emit the
// translation to, keyed by the description's identity. The native target
// compiles into an architecture-named directory beside the description; the
// embedded target emits a .wasm file next to it.
func ExpectedPath(lemsPath string, target Target) string {
	switch target {
	case TargetEmbedded:
		return strings.TrimSuffix(lemsPath, filepath.Ext(lemsPath)) + ".wasm"
	default:
		return filepath.Join(filepath.Dir(lemsPath), runtime.GOARCH)
	}
}

// Resolver locates or generates a model's engine-loadable translation and
// resolves the component identifiers downstream injection needs.
type Resolver struct {
	// Compiler generates missing translations. Defaults to &JNeuroML{}.
	Compiler Compiler
	// Policy resolves multiple components matching one role.
	Policy lems.Policy
}

// Resolve returns the artifact for the description at lemsPath, generating
// the translation first if it is not already on disk. The generate step is
// verified: a compiler that reports success without emitting the artifact is
// an error, not a silent miss.
func (r *Resolver) Resolve(ctx context.Context, lemsPath string, target Target) (*Artifact, error) {
	if _, err := os.Stat(lemsPath); err != nil {
		return nil, errors.Load("model description", err)
	}

	path := ExpectedPath(lemsPath, target)
	if _, err := os.Stat(path); err != nil {
		compiler := r.Compiler
		if compiler == nil {
			compiler = &JNeuroML{}
		}
		if err := compiler.Generate(ctx, lemsPath, target); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Value(path).
				Detail("compiler reported success but artifact was not emitted").
				Build()
		}
	}

	components, err := lems.ReadComponents(lemsPath)
	if err != nil {
		return nil, err
	}
	resolution, err := lems.Classify(components, r.Policy)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Path:       path,
		Components: components,
		Resolution: resolution,
	}, nil
}
