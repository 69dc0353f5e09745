package lems

import (
	"strings"

	"github.com/neurobench/neuro-runtime/errors"
)

// Role is the classification of a component within the injection protocol.
type Role int

const (
	RoleUnclassified Role = iota
	RoleStimulus          // current source, type contains "pulseGenerator"
	RoleCell              // modeled cell, type contains "Cell"
)

func (r Role) String() string {
	switch r {
	case RoleStimulus:
		return "stimulus"
	case RoleCell:
		return "cell"
	}
	return "unclassified"
}

// ClassifyComponent assigns a role from the declared type string, matching
// case-insensitively on substrings. A type matching neither pattern is
// RoleUnclassified; callers must handle that case rather than fall back to
// a stale identifier.
func ClassifyComponent(c Component) Role {
	t := strings.ToLower(c.Type)
	switch {
	case strings.Contains(t, strings.ToLower("pulseGenerator")):
		return RoleStimulus
	case strings.Contains(t, strings.ToLower("Cell")):
		return RoleCell
	}
	return RoleUnclassified
}

// Policy controls how multiple components matching one role are resolved.
type Policy int

const (
	// PolicyLastMatch keeps the last matching component in document order.
	PolicyLastMatch Policy = iota
	// PolicyFirstMatch keeps the first matching component.
	PolicyFirstMatch
	// PolicyFail rejects the description when a role matches more than once.
	PolicyFail
)

// Resolution is the outcome of classifying a component list: the engine
// identifiers for the stimulus and cell components. An empty identifier
// means no component matched that role.
type Resolution struct {
	StimulusID string
	CellID     string
}

// Require returns an error if either identifier is unresolved. Backends call
// it before configuring a stimulus so injection fails loudly instead of
// using an unset name.
func (r Resolution) Require() error {
	if r.StimulusID == "" {
		return errors.UnresolvedComponent(errors.PhaseInject, RoleStimulus.String())
	}
	if r.CellID == "" {
		return errors.UnresolvedComponent(errors.PhaseInject, RoleCell.String())
	}
	return nil
}

// Classify resolves the stimulus and cell identifiers from a component list.
// Under PolicyFail an ambiguous list (two components sharing a role) is an
// error; the other policies pick deterministically by document order.
func Classify(components []Component, policy Policy) (Resolution, error) {
	var stimuli, cells []string
	for _, c := range components {
		switch ClassifyComponent(c) {
		case RoleStimulus:
			stimuli = append(stimuli, c.ID)
		case RoleCell:
			cells = append(cells, c.ID)
		}
	}

	pick := func(role Role, ids []string) (string, error) {
		switch {
		case len(ids) == 0:
			return "", nil
		case len(ids) == 1:
			return ids[0], nil
		}
		switch policy {
		case PolicyFirstMatch:
			return ids[0], nil
		case PolicyFail:
			return "", errors.AmbiguousComponent(role.String(), ids)
		}
		return ids[len(ids)-1], nil
	}

	var res Resolution
	var err error
	if res.StimulusID, err = pick(RoleStimulus, stimuli); err != nil {
		return Resolution{}, err
	}
	if res.CellID, err = pick(RoleCell, cells); err != nil {
		return Resolution{}, err
	}
	return res, nil
}
