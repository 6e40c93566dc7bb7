package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/cli/render"
	"github.com/pithecene-io/ocan/iox"
	"github.com/pithecene-io/ocan/proxyclient"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated statistics (dispatch)",
		Subcommands: []*cli.Command{
			statsDispatchCommand(),
		},
	}
}

func statsDispatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "dispatch",
		Usage: "Probe the worker and show dispatch/codec/transport counters",
		Flags: append(TUIReadOnlyFlags(),
			ConfigFlag,
			&cli.IntFlag{
				Name:  "probes",
				Usage: "Number of probe chains to dispatch before reporting",
				Value: 1,
			},
		),
		Action: statsDispatchAction,
	}
}

func statsDispatchAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	h, err := buildDispatcher(c)
	if err != nil {
		return err
	}
	defer iox.DiscardErr(h.close)

	// Each probe dispatches a count() chain against the worker's registry
	// view. With the http transport the counters below reflect those round
	// trips; the process transport does not report into the collector, so
	// its counters read zero.
	probes := c.Int("probes")
	if probes < 1 {
		return cli.Exit(fmt.Sprintf("--probes must be >= 1, got %d", probes), 1)
	}
	for range probes {
		handle, err := proxyclient.New(h.dispatcher, registrySession).Get("count")
		if err != nil {
			return err
		}
		handle, err = handle.Call()
		if err != nil {
			return err
		}
		if _, err := handle.Await(c.Context); err != nil {
			// The failed probe is itself part of the report.
			fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		}
	}

	snapshot := h.metrics.Snapshot()

	if c.Bool("tui") {
		return r.RenderTUI("stats_dispatch", snapshot)
	}

	return r.Render(snapshot)
}
