// Package config loads cinder.toml, the compiler/VM tunables file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Options holds the compiler and VM tunables. Runtime.Trace is loaded but
// not read by vm.New; the VM traces only when its Trace writer is set.
type Options struct {
	Limits  Limits  `toml:"limits"`
	Runtime Runtime `toml:"runtime"`

	// Dir is the directory the options were loaded from ("" if defaulted).
	Dir string `toml:"-"`
}

// Limits bounds the fixed-capacity structures the compiler and VM size
// at construction time; each defaults to 256, the number of distinct
// slots a single-byte operand can index.
type Limits struct {
	MaxLocals    int `toml:"max-locals"`
	MaxConstants int `toml:"max-constants"`
	StackSize    int `toml:"stack-size"`
}

// Runtime configures VM behavior that has no effect on compiled bytecode
// shape, only on how it executes.
type Runtime struct {
	Trace        bool `toml:"trace"`
	ZeroIsFalsey bool `toml:"zero-is-falsey"`
}

// Default returns the baseline tunables: 256-slot locals, constants, and
// stack, tracing off, and the documented zero-is-falsey quirk enabled.
func Default() *Options {
	return &Options{
		Limits: Limits{
			MaxLocals:    256,
			MaxConstants: 256,
			StackSize:    256,
		},
		Runtime: Runtime{
			Trace:        false,
			ZeroIsFalsey: true,
		},
	}
}

// Load parses a cinder.toml file from dir, filling any field the file
// omits with the value from Default().
func Load(dir string) (*Options, error) {
	path := filepath.Join(dir, "cinder.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	opts := Default()
	if err := toml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	opts.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return opts, nil
}

// FindAndLoad walks upward from startDir looking for cinder.toml. Returns
// Default() with no error if no file is found anywhere above startDir.
func FindAndLoad(startDir string) (*Options, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "cinder.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
