package conceal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"stegaimage/bitplane"
	"stegaimage/imageio"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Input  string `arg:"" help:"Image into which the message will be embedded" type:"existingfile"`
	Output string `arg:"" optional:"" help:"Image into which the result will be saved. Written to stdout if omitted"`
	Type   string `short:"t" help:"File type hint, overrides the extension of the output image (png, gif, jpeg, bmp, tiff)"`
	Phrase string `short:"p" xor:"source" help:"Embed a brief phrase into the image"`
	Stdin  bool   `short:"s" xor:"source" help:"Embed input from stdin into the image"`
	File   string `short:"f" xor:"source" help:"Embed input from a file into the image" type:"existingfile"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	if c.Type != "" {
		if _, ok := imageio.NormalizeFormat(c.Type); !ok {
			return fmt.Errorf("unsupported output type %q, should be one of %s", c.Type, strings.Join(imageio.Formats, ", "))
		}
	}

	if c.Output != "" {
		output, err := filepath.Abs(c.Output)
		if err != nil {
			return fmt.Errorf("invalid output path %q: %w", c.Output, err)
		}
		c.Output = output
	}
	return nil
}

func (c *CLICmd) Run(stdin io.Reader, stdout io.Writer) error {
	logger := slog.Default().With("file", c.Input)

	pic, err := imageio.Load(c.Input)
	if err != nil {
		return err
	}

	msg, err := c.message(stdin)
	if err != nil {
		return err
	}

	codec, err := bitplane.Open(pic.Channels())
	if err != nil {
		return fmt.Errorf("image %q cannot carry a message: %w", c.Input, err)
	}
	logger.Debug("opened carrier", "format", pic.Format, "pixels", pic.Pixels(),
		"message_bits", len(msg)*8, "limit_bits", codec.MessageBitLimit())

	if err = codec.Write(msg); err != nil {
		return fmt.Errorf("the message being hidden is too large: %w", err)
	}
	if err = pic.Commit(codec.Channels()); err != nil {
		return err
	}

	format := imageio.FormatFor(c.Output, c.Type)
	if c.Output == "" {
		return pic.Encode(stdout, format)
	}

	if err = pic.Save(c.Output, format); err != nil {
		return err
	}
	logger.Info("message hidden", "bytes", len(msg), "dest", c.Output, "format", format)
	return nil
}

func (c *CLICmd) message(stdin io.Reader) ([]byte, error) {
	switch {
	case c.Phrase != "":
		return []byte(c.Phrase), nil
	case c.Stdin:
		msg, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("could not read message from stdin: %w", err)
		}
		return msg, nil
	case c.File != "":
		msg, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("could not read message file %q: %w", c.File, err)
		}
		return msg, nil
	}
	return nil, nil
}
