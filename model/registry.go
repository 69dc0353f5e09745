package model

import (
	"context"
	"sort"
	"sync"

	neuroruntime "github.com/neurobench/neuro-runtime"
	"github.com/neurobench/neuro-runtime/backend/embedded"
	"github.com/neurobench/neuro-runtime/backend/jneuroml"
	"github.com/neurobench/neuro-runtime/backend/neuron"
	"github.com/neurobench/neuro-runtime/engine"
	"github.com/neurobench/neuro-runtime/errors"
	"github.com/neurobench/neuro-runtime/lems"
)

// Config carries everything a backend factory may need. Fields irrelevant
// to the selected backend are ignored.
type Config struct {
	// LEMSPath is the declarative model description.
	LEMSPath string
	// Policy controls component classification ambiguity.
	Policy lems.Policy
	// Executable overrides the model compiler command name.
	Executable string
	// Engine hosts embedded solver instances. The embedded factory creates
	// a private engine when nil.
	Engine *engine.Engine
	// NeuronLoader binds live native-engine handles. Required for the
	// NEURON backend; there is no in-process default.
	NeuronLoader neuron.Loader
}

// Factory constructs an unloaded backend for a given configuration.
type Factory func(ctx context.Context, cfg Config) (neuroruntime.Backend, error)

// Registry maps backend names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces a factory under name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "backend", name)
	}
	return f, nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry holds the built-in backend variants.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register("jNeuroML", func(_ context.Context, cfg Config) (neuroruntime.Backend, error) {
		return jneuroml.New(jneuroml.Options{
			LEMSPath:   cfg.LEMSPath,
			Executable: cfg.Executable,
			Policy:     cfg.Policy,
		}), nil
	})
	r.Register("NEURON", func(_ context.Context, cfg Config) (neuroruntime.Backend, error) {
		if cfg.NeuronLoader == nil {
			return nil, errors.NotInitialized(errors.PhaseLoad, "native engine loader")
		}
		return neuron.New(neuron.Options{
			LEMSPath: cfg.LEMSPath,
			Loader:   cfg.NeuronLoader,
			Resolver: resolver(cfg),
		}), nil
	})
	r.Register("embedded", func(ctx context.Context, cfg Config) (neuroruntime.Backend, error) {
		eng := cfg.Engine
		if eng == nil {
			var err error
			if eng, err = engine.New(ctx); err != nil {
				return nil, errors.Load("create embedded engine", err)
			}
		}
		return embedded.New(embedded.Options{
			LEMSPath: cfg.LEMSPath,
			Loader:   embedded.EngineLoader{Engine: eng},
			Resolver: resolver(cfg),
		}), nil
	})
	return r
}()

// Default returns the registry of built-in backends.
func Default() *Registry {
	return defaultRegistry
}
