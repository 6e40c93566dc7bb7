// Package main implements ocan-worker, the subprocess
// transport.ProcessTransport spawns and multiplexes invocations against
// over stdin/stdout using ipc's length-prefixed msgpack frames. Frames
// own stdout; all logging goes to stderr.
//
// Every registered instance lives under one binding name (--binding,
// default "demo"); the worker seeds a single *Counter instance under
// instance name "counter" so ocanctl has something to dispatch chains
// against out of the box. A second, synthetic instance name "$registry"
// resolves to a view over the registry itself, so `ocanctl
// list`/`stats` can browse live instances through the same
// client proxy mechanism used for any other actor.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/adapter"
	"github.com/pithecene-io/ocan/adapter/redis"
	"github.com/pithecene-io/ocan/adapter/webhook"
	"github.com/pithecene-io/ocan/executor"
	"github.com/pithecene-io/ocan/iox"
	"github.com/pithecene-io/ocan/ipc"
	"github.com/pithecene-io/ocan/log"
	"github.com/pithecene-io/ocan/registry"
	"github.com/pithecene-io/ocan/transport"
	"github.com/pithecene-io/ocan/types"
)

// bindingName is the single binding this worker seeds instances under; a
// real host process would register many. Set from --binding before the
// serve loop starts.
var bindingName = "demo"

// registryInstanceName is the synthetic instance name resolving to a
// registryView rather than an application actor.
const registryInstanceName = "$registry"

func main() {
	app := &cli.App{
		Name:    "ocan-worker",
		Usage:   "Serve framed invoke/dispose requests over stdin/stdout",
		Version: types.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "binding",
				Usage: "Binding name instances are registered under",
				Value: "demo",
			},
			&cli.StringFlag{
				Name:  "adapter-type",
				Usage: "Lifecycle-event adapter: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (webhook URL or redis:// URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel for the redis adapter",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ocan-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	bindingName = c.String("binding")

	logger := log.NewLogger(log.Session{BindingName: bindingName})

	var opts []registry.Option
	a, err := buildAdapter(c)
	if err != nil {
		return err
	}
	if a != nil {
		defer iox.DiscardClose(a)
		opts = append(opts, registry.WithAdapter(a))
	}

	reg := registry.New(opts...)

	counter := &Counter{}
	if err := registry.Register(reg, bindingName, "counter", counter); err != nil {
		return fmt.Errorf("seed counter: %w", err)
	}

	view := &registryView{reg: reg}
	if err := registry.Register(reg, bindingName, registryInstanceName, view); err != nil {
		return fmt.Errorf("seed registry view: %w", err)
	}

	logger.Info("worker ready", map[string]any{"binding": bindingName})

	err = serve(reg, logger, os.Stdin, os.Stdout)

	// The registry holds its instances weakly; keep the seeds pinned for
	// the whole serve loop.
	runtime.KeepAlive(counter)
	runtime.KeepAlive(view)

	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

func buildAdapter(c *cli.Context) (adapter.Adapter, error) {
	switch kind := c.String("adapter-type"); kind {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{URL: c.String("adapter-url")})
	case "redis":
		return redis.New(redis.Config{
			URL:     c.String("adapter-url"),
			Channel: c.String("adapter-channel"),
		})
	default:
		return nil, fmt.Errorf("unknown adapter-type %q", kind)
	}
}

// serve runs a single-threaded request loop: one RequestFrame is fully
// handled (decode, replay, encode, write) before the next is read.
func serve(reg *registry.Registry, logger *log.Logger, in io.Reader, out io.Writer) error {
	dec := ipc.NewFrameDecoder(in)
	ex := executor.New()

	for {
		payload, err := dec.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		req, err := ipc.DecodeRequest(payload)
		if err != nil {
			logger.Warn("dropping undecodable frame", map[string]any{"error": err.Error()})
			continue
		}

		resp := handle(reg, ex, req)
		if resp.Error != "" {
			logger.Warn("request failed", map[string]any{"id": req.ID, "target": req.Target, "error": resp.Error})
		}

		frame, err := ipc.EncodeResponse(resp)
		if err != nil {
			logger.Error("dropping unencodable response", map[string]any{"id": req.ID, "error": err.Error()})
			continue
		}
		if _, err := out.Write(frame); err != nil {
			return err
		}
	}
}

func handle(reg *registry.Registry, ex *executor.Executor, req *ipc.RequestFrame) *ipc.ResponseFrame {
	resp := &ipc.ResponseFrame{ID: req.ID}

	if len(req.Document) == 0 {
		reg.Unregister(bindingName, req.Target)
		return resp
	}

	target, ok := reg.Resolve(bindingName, req.Target)
	if !ok {
		resp.Error = fmt.Sprintf("no live instance for target %q", req.Target)
		return resp
	}

	c, err := transport.DecodeChain(json.RawMessage(req.Document))
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	result, err := ex.Execute(c, target)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	encoded, err := transport.EncodeValue(result)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Document = []byte(encoded)
	return resp
}
