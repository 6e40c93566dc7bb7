package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ocan/codec"
	"github.com/pithecene-io/ocan/iox"
)

// EncodeCommand returns the encode command: plain JSON in, an encoded
// document (root + index table) out. Useful for eyeballing what a value
// looks like on the wire and for generating test fixtures.
func EncodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode a plain JSON value into a wire document",
		ArgsUsage: "[file]",
		Action:    encodeAction,
	}
}

func encodeAction(c *cli.Context) error {
	in, err := openInput(c)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(in)

	v, err := readValue(in)
	if err != nil {
		return fmt.Errorf("encode: read input: %w", err)
	}

	text, err := codec.Stringify(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	fmt.Fprintln(c.App.Writer, text)
	return nil
}

// DecodeCommand returns the decode command, the inverse of encode: a wire
// document in, a plain rendering of the decoded value out.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a wire document back into a plain value",
		ArgsUsage: "[file]",
		Action:    decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	in, err := openInput(c)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(in)

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("decode: read input: %w", err)
	}

	v, err := codec.Parse(string(text))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out, err := jsonMarshalIndent(plainValue(v))
	if err != nil {
		return fmt.Errorf("decode: render: %w", err)
	}
	fmt.Fprintln(c.App.Writer, out)
	return nil
}

// openInput returns the file named by the first positional argument, or
// stdin when no argument is given (or the argument is "-").
func openInput(c *cli.Context) (io.ReadCloser, error) {
	if c.NArg() == 0 || c.Args().First() == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", c.Args().First(), err)
	}
	return f, nil
}
