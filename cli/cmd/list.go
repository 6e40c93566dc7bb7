package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/cli/render"
	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/iox"
	"github.com/pithecene-io/ocan/proxyclient"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// instanceRow is one row of `ocanctl list instances` output.
type instanceRow struct {
	BindingName  string `json:"binding_name"`
	InstanceName string `json:"instance_name"`
}

// ListCommand returns the list command with subcommands.
// List returns thin slices (not inspect-level detail).
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List entities (instances)",
		Subcommands: []*cli.Command{
			listInstancesCommand(),
		},
	}
}

func listInstancesCommand() *cli.Command {
	return &cli.Command{
		Name:  "instances",
		Usage: "List live actor instances registered in the worker",
		Flags: append(ReadOnlyFlags(),
			ConfigFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of instances to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: listInstancesAction,
	}
}

func listInstancesAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	h, err := buildDispatcher(c)
	if err != nil {
		return err
	}
	defer iox.DiscardErr(h.close)

	results, err := fetchInstances(c.Context, h.dispatcher)
	if err != nil {
		return err
	}

	limit := c.Int("limit")
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(results) > listWarningThreshold && limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
	}

	return r.Render(results)
}

// fetchInstances asks the worker's registry view for its live instances
// by dispatching a `list()` chain, the same mechanism any other chain
// uses to reach an actor.
func fetchInstances(ctx context.Context, d proxyclient.Dispatcher) ([]instanceRow, error) {
	handle, err := proxyclient.New(d, registrySession).Get("list")
	if err != nil {
		return nil, err
	}
	handle, err = handle.Call()
	if err != nil {
		return nil, err
	}
	v, err := handle.Await(ctx)
	if err != nil {
		return nil, err
	}

	arr, ok := v.(*codec.Array)
	if !ok {
		return nil, fmt.Errorf("list: unexpected result type %T from registry view", v)
	}

	rows := make([]instanceRow, 0, len(*arr))
	for _, item := range *arr {
		obj, ok := item.(*codec.Object)
		if !ok {
			return nil, fmt.Errorf("list: unexpected row type %T from registry view", item)
		}
		binding, _ := obj.Get("binding_name")
		instance, _ := obj.Get("instance_name")
		rows = append(rows, instanceRow{
			BindingName:  asString(binding),
			InstanceName: asString(instance),
		})
	}
	return rows, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
