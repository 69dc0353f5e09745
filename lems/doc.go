// Package lems reads the component list of a declarative neuron model
// description and classifies the components the injection protocol needs.
//
// The engine translation of a model does not expose stable, generic names
// for its current source and cell; they must be predicted from the original
// description. Classification is a tagged assignment (stimulus, cell,
// unclassified) by case-insensitive substring match on the declared type,
// with an explicit policy for the ambiguous case of multiple matches per
// role instead of a silent overwrite.
package lems
