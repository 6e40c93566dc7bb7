package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/cli/config"
	"github.com/pithecene-io/ocan/metrics"
	"github.com/pithecene-io/ocan/policy"
	"github.com/pithecene-io/ocan/proxyclient"
	"github.com/pithecene-io/ocan/transport"
)

// registrySession is the synthetic session name a worker resolves to a
// view over its own registry, letting list/stats browse live instances
// through the ordinary chain-dispatch path.
const registrySession = "$registry"

// dispatcherHandle bundles a Dispatcher with its metrics and an optional
// closer for transports that own a subprocess.
type dispatcherHandle struct {
	dispatcher proxyclient.Dispatcher
	metrics    *metrics.Collector
	close      func() error
}

// buildDispatcher loads the config at c's --config flag and constructs
// the Dispatcher it names, paired with a fresh metrics.Collector for the
// stats command. Only the http transport reports into that collector;
// the process transport is not wired to it, so its counters stay zero.
func buildDispatcher(c *cli.Context) (*dispatcherHandle, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	switch cfg.Transport.Kind {
	case "", "http":
		if cfg.Transport.URL == "" {
			return nil, fmt.Errorf("config: transport.url is required for kind %q", cfg.Transport.Kind)
		}
		collector := metrics.NewCollector("http", "")
		retries := transport.DefaultRetries
		if cfg.Transport.Retries != nil {
			retries = *cfg.Transport.Retries
		}
		tr, err := transport.NewHTTPTransport(transport.HTTPConfig{
			URL:     cfg.Transport.URL,
			Timeout: cfg.Transport.Timeout.Duration,
			Retries: retries,
			Metrics: collector,
		})
		if err != nil {
			return nil, err
		}
		return &dispatcherHandle{dispatcher: tr, metrics: collector, close: func() error { return nil }}, nil

	case "process":
		if cfg.Transport.Command == "" {
			return nil, fmt.Errorf("config: transport.command is required for kind %q", cfg.Transport.Kind)
		}
		pol, err := buildPolicy(cfg.Policy)
		if err != nil {
			return nil, err
		}
		tr, err := transport.NewProcessTransport(transport.ProcessConfig{
			Path:   cfg.Transport.Command,
			Args:   workerArgs(cfg),
			Policy: pol,
		})
		if err != nil {
			return nil, err
		}
		return &dispatcherHandle{dispatcher: tr, metrics: metrics.NewCollector("process", ""), close: tr.Close}, nil

	default:
		return nil, fmt.Errorf("config: unknown transport.kind %q", cfg.Transport.Kind)
	}
}

// workerArgs extends the configured worker arguments with the adapter
// flags from the config's adapter section, so the worker publishes
// lifecycle events wherever ocanctl.yaml points.
func workerArgs(cfg *config.Config) []string {
	args := append([]string(nil), cfg.Transport.Args...)
	if cfg.Adapter.Type == "" {
		return args
	}
	args = append(args, "--adapter-type", cfg.Adapter.Type)
	if cfg.Adapter.URL != "" {
		args = append(args, "--adapter-url", cfg.Adapter.URL)
	}
	if cfg.Adapter.Channel != "" {
		args = append(args, "--adapter-channel", cfg.Adapter.Channel)
	}
	return args
}

// buildPolicy constructs the dispatch policy named by the config, or nil
// for the default when no policy section is present.
func buildPolicy(cfg config.PolicyConfig) (policy.Policy, error) {
	switch cfg.Name {
	case "":
		return nil, nil
	case "noop":
		return policy.NewNoopPolicy(), nil
	case "strict":
		return policy.NewStrictPolicy(), nil
	case "buffered":
		return policy.NewBufferedPolicy(cfg.BufferMax)
	case "streaming":
		return policy.NewStreamingPolicy(cfg.Window)
	default:
		return nil, fmt.Errorf("config: unknown policy.name %q", cfg.Name)
	}
}
