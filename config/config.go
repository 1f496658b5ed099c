// Package config loads the engine tunables that govern sleeping,
// W-tree dilation, and island partitioning from a YAML document.
package config

import (
	"gopkg.in/yaml.v2"
)

// Default tunables, applied to any field left unset by the loaded
// document (or used outright when no document is supplied).
const (
	DefaultSleepThreshold       = 0.01
	DefaultSleepLinearThreshold = 0.1
	DefaultDilationFactor       = 0.01
	DefaultMinIslandSize        = 128
)

// Tunables holds the engine-wide constants left to the caller: the
// energy threshold below which a body becomes a sleep candidate, a
// linear-velocity sleep threshold, the W-tree's dilation margin, and the
// lower bound island size for UpdateActiveSetWithContacts. No other
// package reads a Tunables; the caller passes each value on itself.
type Tunables struct {
	SleepThreshold       float32 `yaml:"sleepThreshold"`
	SleepLinearThreshold float32 `yaml:"sleepLinearThreshold"`
	DilationFactor       float32 `yaml:"dilationFactor"`
	MinIslandSize        int     `yaml:"minIslandSize"`
}

// Default returns the tunables a simulation starts with absent any
// configuration document.
func Default() Tunables {
	return Tunables{
		SleepThreshold:       DefaultSleepThreshold,
		SleepLinearThreshold: DefaultSleepLinearThreshold,
		DilationFactor:       DefaultDilationFactor,
		MinIslandSize:        DefaultMinIslandSize,
	}
}

// Load parses a YAML tunables document, applying Default's values to
// any field the document omits (a zero-valued field after unmarshal is
// indistinguishable from an absent one, which is the behavior the
// "documented defaults" requirement calls for). An empty document
// returns Default unchanged.
func Load(doc []byte) (Tunables, error) {
	t := Default()
	if len(doc) == 0 {
		return t, nil
	}
	if err := yaml.Unmarshal(doc, &t); err != nil {
		return Tunables{}, err
	}
	if t.SleepThreshold == 0 {
		t.SleepThreshold = DefaultSleepThreshold
	}
	if t.SleepLinearThreshold == 0 {
		t.SleepLinearThreshold = DefaultSleepLinearThreshold
	}
	if t.DilationFactor == 0 {
		t.DilationFactor = DefaultDilationFactor
	}
	if t.MinIslandSize == 0 {
		t.MinIslandSize = DefaultMinIslandSize
	}
	return t, nil
}
