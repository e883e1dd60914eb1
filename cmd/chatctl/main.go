package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"chatTracker/internal/cli"
	"chatTracker/internal/config"
	"chatTracker/internal/db"
	"chatTracker/internal/logging"
)

func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	// Commands print their results on stdout; logs go to stderr.
	log, err := logging.New(cfg.Log.Level, "console", os.Stderr)
	if err != nil {
		boot.Fatal().Err(err).Msg("build logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, log, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run opens the configured database and executes one chatctl command line.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db %s: %w", cfg.Database.Path, err)
	}
	defer d.Close()

	cmd := cli.NewApp(d, log).Command()
	cmd.SetOut(out)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
