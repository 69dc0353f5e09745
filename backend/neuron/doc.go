// Package neuron implements the native-handle simulator backend: a live,
// stateful command interpreter is bound once per Backend and driven with
// incremental statements for configuration, stimulus injection, execution,
// and vector harvesting.
//
// The engine's internal names for the stimulus and cell are not generic;
// they are synthesized from the component identifiers resolved out of the
// model description (explicitInput_<stim><cell>_pop0 for the current
// source, m_<cell>_<cell>_pop[0] for cell variables). Recording vectors are
// re-armed on every run-parameter change because the engine may discard
// instrumentation when parameters move.
//
// The underlying engine is process-global: one live handle per process is
// the safe assumption, and a Backend never shares its handle.
package neuron
