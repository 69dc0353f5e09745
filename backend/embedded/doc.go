// Package embedded implements the in-process backend: the model translation
// is compiled to WebAssembly and executed on the wazero runtime, with no
// external engine installation. Solver instances are isolated, so this is
// the variant that supports concurrent backends inside one process.
package embedded
