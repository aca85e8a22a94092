// Package engine wires the detector, aggregator, and selector into the
// single-shot evaluation pipeline, compiled once from an immutable
// configuration snapshot.
package engine

import (
	"fmt"

	"github.com/hiregate/hiregate/internal/aggregator"
	"github.com/hiregate/hiregate/internal/decision"
	"github.com/hiregate/hiregate/internal/detector"
	"github.com/hiregate/hiregate/internal/models"
)

// ConfigurationError is a fatal load-time error. Hosts must fail startup on
// it: the engine never runs against a partially valid configuration.
type ConfigurationError struct {
	Stage string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Snapshot is a fully compiled, immutable configuration: parsed formulas,
// compiled conditions, validated references. Safe for concurrent reads from
// any number of parallel evaluations. Reconfiguration means compiling a new
// snapshot and swapping it atomically, never mutating an existing one.
type Snapshot struct {
	Bundle *models.ConfigBundle

	agg *aggregator.Aggregator
	sel *decision.Selector
}

// Compile validates and compiles a configuration bundle. Any violated
// invariant (weights not summing to 100, formulas referencing unknown
// identifiers, impact targets naming unknown scores, missing catch-all
// decision rule, malformed detector params) fails the whole compilation.
func Compile(bundle *models.ConfigBundle) (*Snapshot, error) {
	if err := bundle.Validate(); err != nil {
		return nil, &ConfigurationError{Stage: "bundle", Err: err}
	}

	agg, err := aggregator.New(bundle.ScoringRules, bundle.RedFlags, bundle.Dimensions)
	if err != nil {
		return nil, &ConfigurationError{Stage: "scoring rules", Err: err}
	}

	// Detector construction validates per-method red flag params; the
	// runtime detector with collaborators attached is built per engine.
	if _, err := detector.New(bundle.RedFlags); err != nil {
		return nil, &ConfigurationError{Stage: "red flags", Err: err}
	}

	sel, err := decision.New(bundle.DecisionRules, bundle.ScoreNames())
	if err != nil {
		return nil, &ConfigurationError{Stage: "decision rules", Err: err}
	}

	return &Snapshot{Bundle: bundle, agg: agg, sel: sel}, nil
}

// Load reads a bundle YAML file and compiles it.
func Load(path string) (*Snapshot, error) {
	bundle, err := models.LoadBundle(path)
	if err != nil {
		return nil, &ConfigurationError{Stage: "bundle", Err: err}
	}
	return Compile(bundle)
}
