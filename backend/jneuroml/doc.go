// Package jneuroml implements the scripted-execution backend: every run is
// delegated wholesale to the jNeuroML executable, which consumes the
// declarative model description directly and writes its recorded samples to
// an output table on disk.
//
// Configuration has no live engine handle to push into. Attribute, run
// parameter, and stimulus changes are applied by rewriting the description
// file, so they are observable to the engine on its next invocation. Because
// each run is an isolated process, independent Backend instances can run in
// parallel, which the native-handle variant cannot.
package jneuroml
