package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/cli/render"
	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/iox"
	"github.com/pithecene-io/ocan/proxyclient"
	"github.com/pithecene-io/ocan/registry"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single entity.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single entity (instance)",
		Subcommands: []*cli.Command{
			inspectInstanceCommand(),
		},
	}
}

func inspectInstanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "instance",
		Usage:     "Inspect a live actor instance by name",
		ArgsUsage: "<instance-name>",
		Flags: append(TUIReadOnlyFlags(),
			ConfigFlag,
			&cli.StringFlag{
				Name:  "binding",
				Usage: "Binding name shown alongside the instance",
				Value: "demo",
			},
		),
		Action: inspectInstanceAction,
	}
}

func inspectInstanceAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("instance-name required", 1)
	}
	instanceName := c.Args().First()

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	h, err := buildDispatcher(c)
	if err != nil {
		return err
	}
	defer iox.DiscardErr(h.close)

	// The instance reports its own state: `snapshot()` replayed against
	// the session named by the instance.
	handle, err := proxyclient.New(h.dispatcher, instanceName).Get("snapshot")
	if err != nil {
		return err
	}
	handle, err = handle.Call()
	if err != nil {
		return err
	}
	v, err := handle.Await(c.Context)
	if err != nil {
		return fmt.Errorf("inspect: instance %q: %w", instanceName, err)
	}

	snapshot, ok := v.(*codec.Object)
	if !ok {
		return fmt.Errorf("inspect: instance %q returned %T, want an object snapshot", instanceName, v)
	}

	if c.Bool("tui") {
		ref := &registry.InstanceRef{
			BindingName:  c.String("binding"),
			InstanceName: instanceName,
			Instance:     snapshot,
		}
		return r.RenderTUI("inspect_instance", ref)
	}

	return r.Render(plainValue(snapshot))
}
