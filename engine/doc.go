// Package engine hosts model translations compiled to WebAssembly inside
// the process, on the wazero runtime.
//
// A translation is a plain core module exporting the solver ABI: scalar
// setters for run parameters and the stimulus, an attribute setter taking a
// name through guest memory, a run entrypoint, and accessors exposing the
// recorded time and voltage series as IEEE 754 doubles in linear memory.
// Engine compiles and instantiates translations; each Solver instance owns
// its own memory, so instances run independently where a native engine
// handle is process-global.
package engine
