// Copyright 2023 Tessera DB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config exposes the engine tunables.  All values have working
// defaults; a TOML file can override them.
package config

import (
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/logutil"
)

// Config collects the recognized tunables of the grouping engine.
type Config struct {
	// DenseRangeLimit is the largest max-min key range for which integer
	// grouping uses direct addressing instead of hashing.
	DenseRangeLimit int64 `toml:"dense-range-limit"`

	// SampleSize is the number of strided samples drawn from a string
	// column to estimate its cardinality.
	SampleSize int `toml:"sample-size"`

	// MaxDistinctRatio is the sampled distinct ratio below which a string
	// column is converted to dictionary coding before grouping.
	MaxDistinctRatio float64 `toml:"max-distinct-ratio"`

	// RadixBits is the number of hash bits consumed per radix sort pass.
	RadixBits uint `toml:"radix-bits"`

	// Workers is the parallelism of the histogram/scatter phases.
	Workers int `toml:"workers"`

	Log logutil.LogConfig `toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DenseRangeLimit:  1 << 22,
		SampleSize:       128,
		MaxDistinctRatio: 0.5,
		RadixBits:        11,
		Workers:          runtime.NumCPU(),
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, terr.NewInvalidInput("parse config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DenseRangeLimit <= 0 {
		return terr.NewInvalidInput("dense-range-limit must be positive, got %d", c.DenseRangeLimit)
	}
	if c.SampleSize <= 0 {
		return terr.NewInvalidInput("sample-size must be positive, got %d", c.SampleSize)
	}
	if c.MaxDistinctRatio <= 0 || c.MaxDistinctRatio > 1 {
		return terr.NewInvalidInput("max-distinct-ratio must be in (0,1], got %v", c.MaxDistinctRatio)
	}
	if c.RadixBits == 0 || c.RadixBits > 16 {
		return terr.NewInvalidInput("radix-bits must be in [1,16], got %d", c.RadixBits)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}
