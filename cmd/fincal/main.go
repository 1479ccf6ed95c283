package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"fincal/internal/cli"
	"fincal/internal/config"
	"fincal/internal/log"
)

var (
	plain   = flag.Bool("plain", false, "Print raw Markdown instead of styled terminal output.")
	width   = flag.Int("width", 100, "Wrap styled output at this many columns.")
	envFile = flag.String("env", "", "Extra .env file read before the configuration.")
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	level := slog.LevelWarn
	if os.Getenv("LOG_LEVEL") != "" {
		level = log.ParseLevel(cfg.LogLevel)
	}
	logger := log.New(log.Config{Level: level, Component: log.ComponentCLI, Format: cfg.LogFormat, Output: os.Stderr})
	env := cli.NewEnv(cfg, logger)
	ctx := context.Background()

	// exits when the shell asked for completions
	cli.Completion(ctx, env).Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)
	flag.Parse()

	if *envFile != "" {
		config.LoadDotEnv(*envFile)
		*cfg = *config.Load()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	env.Plain = *plain
	env.Width = *width

	status := commander.Execute(ctx, env)
	if err := env.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(int(status))
}
