// Package neuroruntime validates computational neuron models against
// electrophysiology data by driving external simulation engines through a
// uniform Backend contract and normalizing their membrane-potential output.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	neuroruntime/        Root package with the Backend contract and Results
//	├── model/           High-level API binding a model description to a backend
//	├── backend/jneuroml Scripted-execution backend shelling out whole runs
//	├── backend/neuron   Native-handle backend driving a live interpreter
//	├── backend/embedded Backend running WebAssembly model translations in-process
//	├── engine/          wazero-based solver engine for compiled artifacts
//	├── artifact/        Model-artifact resolution and compiler invocation
//	├── lems/            Model description parsing and component classification
//	├── quantity/        Physical units, conversions, stimulus descriptors
//	├── trace/           Fixed-step resampling and analog signal sanity
//	├── archive/         SQLite run-history store
//	├── config/          YAML run configuration
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Bind a model description and run a square-current protocol:
//
//	m, err := model.New(ctx, "jNeuroML", model.Config{LEMSPath: "LEMS_2007One.xml"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m.SetRunParams(neuroruntime.RunParams{neuroruntime.ParamStopTime: 600.0})
//	err = m.InjectSquareCurrent(ctx, quantity.SquareCurrent{
//	    Amplitude: quantity.PicoAmps(-10),
//	    Delay:     quantity.Milliseconds(100),
//	    Duration:  quantity.Milliseconds(300),
//	})
//
//	vm, err := m.MembranePotential() // uniform, mV, explicit ms sampling period
//
// # Backends
//
// One logical operation (inject a current, report membrane potential over
// time) is realized against heterogeneous engines: a scripted engine invoked
// as a whole-run black box with file-based output, a native engine holding a
// live mutable interpreter handle with incremental commands, and an embedded
// engine executing compiled artifacts via wazero. Adaptive-step engine output
// is reconstructed into a uniform series by trace.Resample, so callers see
// one representation regardless of the engine's stepping policy.
//
// # Thread Safety
//
// A Backend instance is NOT safe for concurrent use: it owns a stateful,
// mutable engine handle, and one run must fully complete before another
// starts. Run independent Backend instances for parallelism; the scripted
// backend, which shells out per run, is the safe path within one process.
package neuroruntime
