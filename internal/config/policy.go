// Package config carries Kamui's tunable policy constants: the fee
// schedule, the expiry window, the maximum word count, and the rotation
// set size. It loads overrides from the environment, then layers an
// optional YAML file on top — Kamui has no TEE/secret-manager runtime
// beneath it, so plain environment variables and a config file are all
// there is.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable constants that govern fee pricing, request
// limits, and oracle rotation.
type Policy struct {
	// BaseFee is the flat component of the fulfilment fee schedule:
	// base_fee + per_word_fee × num_words.
	BaseFee uint64 `yaml:"base_fee"`
	// PerWordFee is the per-word component of the fee schedule.
	PerWordFee uint64 `yaml:"per_word_fee"`
	// ExpiryWindow is the duration after which a Pending request becomes
	// sweepable.
	ExpiryWindow time.Duration `yaml:"expiry_window"`
	// MaxWords bounds the number of randomness words a single request may
	// ask for, capped at 16.
	MaxWords uint32 `yaml:"max_words"`
	// MaxCallbackData is the bound on RandomnessRequest.callback_data.
	MaxCallbackData int `yaml:"max_callback_data"`
	// MaxPoolCapacity records the bound on RequestPool.capacity.
	// coordinator.NewRequestPool enforces 512 itself and does not read
	// this field.
	MaxPoolCapacity uint16 `yaml:"max_pool_capacity"`
	// MaxOracles records the bound on the oracle registry's size.
	// registry.RegisterOracle enforces 64 itself and does not read this
	// field.
	MaxOracles int `yaml:"max_oracles"`
	// RotationSize is K, the number of oracles selected into the active
	// set by rotate_oracles.
	RotationSize int `yaml:"rotation_size"`
	// MaxBatchSize bounds process_batch's entries slice.
	MaxBatchSize int `yaml:"max_batch_size"`
}

// Default returns Kamui's documented default policy, recorded here
// stably rather than scattered through the codebase as magic numbers.
func Default() Policy {
	return Policy{
		BaseFee:         1_000,
		PerWordFee:      250,
		ExpiryWindow:    24 * time.Hour,
		MaxWords:        16,
		MaxCallbackData: 1024,
		MaxPoolCapacity: 512,
		MaxOracles:      64,
		RotationSize:    8,
		MaxBatchSize:    10,
	}
}

// Fee computes the fulfilment fee for numWords words under this policy.
func (p Policy) Fee(numWords uint32) uint64 {
	return p.BaseFee + p.PerWordFee*uint64(numWords)
}

// LoadFromEnv starts from Default and applies any KAMUI_* environment
// overrides present (environment takes precedence over the built-in
// default).
func LoadFromEnv() Policy {
	p := Default()
	if v := os.Getenv("KAMUI_BASE_FEE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			p.BaseFee = n
		}
	}
	if v := os.Getenv("KAMUI_PER_WORD_FEE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			p.PerWordFee = n
		}
	}
	if v := os.Getenv("KAMUI_EXPIRY_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			p.ExpiryWindow = d
		}
	}
	if v := os.Getenv("KAMUI_MAX_WORDS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 && n <= 16 {
			p.MaxWords = uint32(n)
		}
	}
	if v := os.Getenv("KAMUI_ROTATION_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.RotationSize = n
		}
	}
	return p
}

// LoadFromYAML reads policy overrides from a YAML file on top of
// LoadFromEnv. A max_words outside 1..16 is rejected with an error.
func LoadFromYAML(path string) (Policy, error) {
	p := LoadFromEnv()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if p.MaxWords == 0 || p.MaxWords > 16 {
		return p, fmt.Errorf("max_words must be between 1 and 16, got %d", p.MaxWords)
	}
	return p, nil
}
