// Copyright 2025 Evidentia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package query

import "time"

// Config holds orchestration tunables. Zero values are replaced with the
// defaults at construction.
type Config struct {
	// SearchTimeout bounds each sub-query's retrieval fan-out.
	SearchTimeout time.Duration

	// LLMTimeout bounds each individual model call.
	LLMTimeout time.Duration

	// MaxConcurrency caps how many sub-query pipelines run at once.
	MaxConcurrency int

	// FusionK is the reciprocal rank fusion smoothing constant.
	FusionK int

	// GradingCap bounds graded candidates per sub-query.
	GradingCap int

	// RetryBaseDelay is the initial backoff for transient search failures.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the standard orchestration tunables.
func DefaultConfig() Config {
	return Config{
		SearchTimeout:  10 * time.Second,
		LLMTimeout:     30 * time.Second,
		MaxConcurrency: 5,
		FusionK:        60,
		GradingCap:     20,
		RetryBaseDelay: 200 * time.Millisecond,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = defaults.SearchTimeout
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = defaults.LLMTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaults.MaxConcurrency
	}
	if c.FusionK <= 0 {
		c.FusionK = defaults.FusionK
	}
	if c.GradingCap <= 0 {
		c.GradingCap = defaults.GradingCap
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaults.RetryBaseDelay
	}
	return c
}
