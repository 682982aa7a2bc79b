package main

import (
	"io"
	"log/slog"
	"os"

	"stegaimage/conceal"
	"stegaimage/parallel"
	"stegaimage/reveal"
	"stegaimage/survey"

	"github.com/alecthomas/kong"
)

type cli struct {
	Workers  int    `help:"Number of parallel workers, defaults to one per CPU" default:"0"`
	LogLevel string `help:"Log level" enum:"debug,info,warn,error" default:"info"`

	Write    conceal.CLICmd `cmd:"" help:"Embed a message into an image"`
	Read     reveal.CLICmd  `cmd:"" help:"Read the message embedded in an image"`
	Capacity survey.CLICmd  `cmd:"" help:"Report how many message bytes each image in a folder can hold"`
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("stegaimage"),
		kong.Description("Hide messages in the least significant bits of an image."),
		kong.UsageOnError(),
		kong.BindTo(os.Stdin, (*io.Reader)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	setupLogging(c.LogLevel)

	pool := parallel.Start(c.Workers)
	slog.Debug("worker pool started", "workers", pool.Workers)
	err := kctx.Run(pool.Do, pool.Wait)
	pool.Wait(true)
	if err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
