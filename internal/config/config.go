// Copyright 2025 Google LLC
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

// Package config loads the process configuration once, at startup, from
// .env files and the environment. Everything downstream receives a *Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"

	"github.com/ivanvanderbyl/researchteam/model/registry"
	"github.com/ivanvanderbyl/researchteam/tool/websearch"
)

// DefaultEnvFile is loaded when no env file is named.
const DefaultEnvFile = ".env"

type Config struct {
	AnthropicAPIKey    string `mapstructure:"ANTHROPIC_API_KEY"`
	AnthropicUseVertex bool   `mapstructure:"ANTHROPIC_USE_VERTEX"`
	GoogleCloudProject string `mapstructure:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudRegion  string `mapstructure:"GOOGLE_CLOUD_REGION"`
	OpenAIAPIKey       string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `mapstructure:"OPENAI_BASE_URL"`
	DeepSeekAPIKey     string `mapstructure:"DEEPSEEK_API_KEY"`
	GeminiAPIKey       string `mapstructure:"GEMINI_API_KEY"`

	// GoogleAPIKey and SearchEngineID identify the Programmable Search
	// engine behind the search_google tool.
	GoogleAPIKey   string  `mapstructure:"GOOGLE_API_KEY"`
	SearchEngineID string  `mapstructure:"SEARCH_ENGINE_ID"`
	SearchResults  int     `mapstructure:"SEARCH_RESULTS"`
	SearchQPS      float64 `mapstructure:"SEARCH_QPS"`

	Team     string `mapstructure:"RESEARCH_TEAM"`
	TeamFile string `mapstructure:"RESEARCH_TEAM_FILE"`

	ResultsDir  string `mapstructure:"RESULTS_DIR"`
	ResultsHTML bool   `mapstructure:"RESULTS_HTML"`
	// GCSBucket, when set, also uploads reports to Cloud Storage.
	GCSBucket string `mapstructure:"RESULTS_GCS_BUCKET"`
	HistoryDB string `mapstructure:"RESEARCH_HISTORY_DB"`

	StageTimeout time.Duration `mapstructure:"STAGE_TIMEOUT"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`
	LogFormat    string        `mapstructure:"LOG_FORMAT"`
}

func defaults() Config {
	return Config{
		SearchResults: websearch.DefaultNumResults,
		ResultsDir:    "results",
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// ConfigurationError reports missing or invalid settings. It is fatal and
// raised before any pipeline work begins.
type ConfigurationError struct {
	Missing  []string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Problems...)
	return "configuration error: " + strings.Join(parts, "; ") + " (set them in the environment or a .env file)"
}

// Load reads the named .env files, DefaultEnvFile when none are named, and
// the process environment. Files that do not exist are skipped. Variables
// already in the environment take precedence over files, and earlier files
// over later ones.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	env := map[string]string{}
	for _, f := range envFiles {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := env[k]; !ok {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return FromEnv(env)
}

// FromEnv decodes a configuration from key/value pairs and validates it.
// Empty values are treated as unset.
func FromEnv(env map[string]string) (*Config, error) {
	input := make(map[string]any, len(env))
	for k, v := range env {
		if v = strings.TrimSpace(v); v != "" {
			input[k] = v
		}
	}

	cfg := defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, &ConfigurationError{Problems: []string{err.Error()}}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT %q is not one of text, json", c.LogFormat))
	}
	if c.SearchResults < 1 || c.SearchResults > 10 {
		problems = append(problems, fmt.Sprintf("SEARCH_RESULTS must be between 1 and 10, got %d", c.SearchResults))
	}
	if c.SearchQPS < 0 {
		problems = append(problems, "SEARCH_QPS must not be negative")
	}
	if c.StageTimeout < 0 {
		problems = append(problems, "STAGE_TIMEOUT must not be negative")
	}
	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// Require checks that every key is set. Keys are environment variable names
// such as "OPENAI_API_KEY".
func (c *Config) Require(keys ...string) error {
	var values map[string]any
	if err := mapstructure.Decode(c, &values); err != nil {
		return err
	}
	cerr := &ConfigurationError{}
	for _, k := range keys {
		v, ok := values[k]
		switch {
		case !ok:
			cerr.Problems = append(cerr.Problems, fmt.Sprintf("unknown setting %s", k))
		case reflect.ValueOf(v).IsZero():
			cerr.Missing = append(cerr.Missing, k)
		}
	}
	if len(cerr.Missing) > 0 || len(cerr.Problems) > 0 {
		return cerr
	}
	return nil
}

// Registry returns the model registry settings.
func (c *Config) Registry() registry.Config {
	return registry.Config{
		AnthropicAPIKey: c.AnthropicAPIKey,
		AnthropicVertex: c.AnthropicUseVertex,
		GoogleProject:   c.GoogleCloudProject,
		GoogleRegion:    c.GoogleCloudRegion,
		GeminiAPIKey:    c.GeminiAPIKey,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		OpenAIBaseURL:   c.OpenAIBaseURL,
		DeepSeekAPIKey:  c.DeepSeekAPIKey,
	}
}

// Search returns the Programmable Search settings.
func (c *Config) Search() websearch.GoogleConfig {
	return websearch.GoogleConfig{
		APIKey:         c.GoogleAPIKey,
		SearchEngineID: c.SearchEngineID,
		NumResults:     c.SearchResults,
		QPS:            c.SearchQPS,
	}
}

// HasSearch reports whether search credentials are configured.
func (c *Config) HasSearch() bool {
	return c.GoogleAPIKey != "" && c.SearchEngineID != ""
}
