package reveal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"stegaimage/bitplane"
	"stegaimage/imageio"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Input  string `arg:"" help:"Image from which a hidden message will be read" type:"existingfile"`
	Output string `arg:"" optional:"" help:"File into which the message will be saved. Written to stdout if omitted"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.Output == "" {
		return nil
	}
	output, err := filepath.Abs(c.Output)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", c.Output, err)
	}
	c.Output = output
	return nil
}

func (c *CLICmd) Run(stdout io.Writer) error {
	logger := slog.Default().With("file", c.Input)

	msg, err := Extract(c.Input)
	if err != nil {
		return err
	}

	if c.Output == "" {
		if _, err = stdout.Write(msg); err != nil {
			return fmt.Errorf("could not write message: %w", err)
		}
		return nil
	}

	err = imageio.WriteFile(c.Output, func(w io.Writer) error {
		_, err := w.Write(msg)
		return err
	})
	if err != nil {
		return fmt.Errorf("could not write message to %q: %w", c.Output, err)
	}
	logger.Info("message recovered", "bytes", len(msg), "dest", c.Output)
	return nil
}

// Extract loads the image at path and returns the message hidden in it.
func Extract(path string) ([]byte, error) {
	pic, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}

	codec, err := bitplane.Open(pic.Channels())
	if err != nil {
		return nil, fmt.Errorf("image %q is too small to carry a message: %w", path, err)
	}

	msg, err := codec.Read()
	if errors.Is(err, bitplane.ErrFraming) {
		return nil, fmt.Errorf("no hidden message found in %q: %w", path, err)
	} else if err != nil {
		return nil, err
	}
	return msg, nil
}
