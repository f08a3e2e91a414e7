package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/webtail/internal/app"
	"github.com/five82/webtail/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet("webtail", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: webtail [flags] PORT FILENAME\n")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "config file path (optional, defaults to ~/.config/webtail/config.toml)")
	host := flags.String("host", "", "listen host (optional, defaults to all interfaces)")
	poll := flags.Duration("poll", 0, "poll interval (optional, defaults to 100ms)")
	lines := flags.Int("lines", -1, "lines in the initial page, 0 for the whole file (optional)")
	notify := flags.Bool("notify", false, "wake on file-change notifications as well as the poll timer")
	showConsole := flags.Bool("console", false, "show the terminal console")
	verbose := flags.Bool("v", false, "debug logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}

	port, path, err := parseArgs(flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "webtail: %v\n", err)
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "webtail: %v\n", err)
		return 1
	}
	applyFlags(&cfg, flags, *host, *poll, *lines, *notify)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, app.Options{
		Port:    port,
		Path:    path,
		Config:  cfg,
		Console: *showConsole,
		Logger:  log,
	}); err != nil {
		log.WithError(err).Error("webtail failed")
		return 1
	}
	return 0
}

func parseArgs(args []string) (int, string, error) {
	if len(args) != 2 {
		return 0, "", fmt.Errorf("expected PORT and FILENAME, got %d arguments", len(args))
	}
	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		return 0, "", fmt.Errorf("invalid port %q", args[0])
	}
	path, err := config.ExpandPath(args[1])
	if err != nil {
		return 0, "", err
	}
	return port, path, nil
}

// applyFlags overrides file settings with flags the user actually set.
func applyFlags(cfg *config.Config, flags *flag.FlagSet, host string, poll time.Duration, lines int, notify bool) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = host
		case "poll":
			if poll > 0 {
				cfg.PollInterval = poll
			}
		case "lines":
			if lines >= 0 {
				cfg.InitialLines = lines
			}
		case "notify":
			cfg.Notify = notify
		}
	})
}
