package config

import (
	"fmt"
	"time"
)

// Config represents an ocanctl.yaml configuration file, loaded from the
// path given by ocanctl's --config flag. No other CLI flag overrides a
// value read from it.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Policy    PolicyConfig    `yaml:"policy"`
	Adapter   AdapterConfig   `yaml:"adapter"`
}

// TransportConfig selects and configures the Dispatcher ocanctl talks to
// a worker through: one HTTP request/response pair per invocation, or a
// long-lived subprocess channel.
type TransportConfig struct {
	// Kind is "http" or "process".
	Kind string `yaml:"kind"`
	// URL is the endpoint for Kind "http".
	URL string `yaml:"url,omitempty"`
	// Command and Args launch the worker subprocess for Kind "process".
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	// Timeout is the per-request timeout for Kind "http"; Kind "process"
	// does not use it.
	Timeout Duration `yaml:"timeout,omitempty"`
	// Retries is the number of retry attempts on transient failure.
	Retries *int `yaml:"retries,omitempty"`
}

// PolicyConfig selects the dispatch scheduling policy applied to chains
// sent over the process transport (package policy).
type PolicyConfig struct {
	// Name is "noop", "strict", "buffered", or "streaming".
	Name string `yaml:"name"`
	// BufferMax bounds the number of concurrent dispatches for the
	// "buffered" policy; ignored otherwise.
	BufferMax int `yaml:"buffer_max,omitempty"`
	// Window is the batch size for the "streaming" policy; ignored
	// otherwise.
	Window int `yaml:"window,omitempty"`
}

// AdapterConfig holds lifecycle-event adapter defaults from the config
// file (package adapter/webhook, adapter/redis).
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
