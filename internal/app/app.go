package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/config"
	"github.com/five82/webtail/internal/console"
	"github.com/five82/webtail/internal/hub"
	"github.com/five82/webtail/internal/logtail"
	"github.com/five82/webtail/internal/markup"
	"github.com/five82/webtail/internal/prefs"
	"github.com/five82/webtail/internal/server"
	"github.com/five82/webtail/internal/state"
)

const shutdownTimeout = 2 * time.Second

// Options configure a webtail instance.
type Options struct {
	Port    int
	Path    string
	Config  config.Config
	Console bool // run the terminal operator console
	Logger  *logrus.Logger
	FS      afero.Fs // nil uses the OS filesystem

	// Listener overrides Port when set.
	Listener net.Listener
}

// Run serves the file until ctx is cancelled. It returns an error when the
// tailed file becomes unreadable, so the process exits non-zero.
func Run(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	cfg := opts.Config

	detector, err := logtail.NewDetector(fs, opts.Path)
	if err != nil {
		return fmt.Errorf("open tailed file: %w", err)
	}

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.ListenAddr(opts.Port))
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	store := &state.Store{}
	store.Start(opts.Path, ln.Addr().String())

	h := hub.New(log.WithField("component", "hub"))
	h.Subscribe(func(ev hub.Event) { store.SetViewers(ev.Viewers) })

	translator := markup.New(markup.Options{TabStop: cfg.TabStop, LinkURLs: cfg.LinkURLs})

	srv, err := server.New(server.Options{
		FS:           fs,
		Path:         opts.Path,
		InitialLines: cfg.InitialLines,
		Translator:   translator,
		Hub:          h,
		Store:        store,
		QueueSize:    cfg.QueueSize,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       log.WithField("component", "server"),
	})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("init server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var feed *console.Feed
	if opts.Console {
		feed = console.NewFeed(256)
		restore := captureLogs(log, feed)
		defer restore()
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	log.WithFields(logrus.Fields{"path": opts.Path, "addr": ln.Addr().String()}).Info("webtail listening")

	poller := &Poller{
		Detector:   detector,
		Translator: translator,
		Hub:        h,
		Store:      store,
		Log:        log.WithField("component", "poller"),
		Interval:   cfg.PollInterval,
	}
	if cfg.Notify {
		wake, err := watchWrites(ctx, opts.Path, log)
		if err != nil {
			log.WithError(err).Warn("file notifications disabled, polling only")
		} else {
			poller.Wake = wake
		}
	}
	pollErr := make(chan error, 1)
	go func() { pollErr <- poller.Run(ctx) }()

	consoleDone := make(chan error, 1)
	if opts.Console {
		go func() {
			consoleDone <- console.Run(ctx, console.Options{
				Store:     store,
				Feed:      feed,
				Theme:     cfg.Theme,
				PrefsPath: prefs.DefaultPath(),
			})
		}()
	}

	var runErr error
	consoleRunning := opts.Console
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("serve: %w", err)
	case err := <-pollErr:
		runErr = err
	case err := <-consoleDone:
		consoleRunning = false
		if err != nil {
			runErr = fmt.Errorf("console: %w", err)
		}
	}
	cancel()
	if consoleRunning {
		// Let the console restore the terminal before logs go back to it.
		<-consoleDone
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	srv.Close()
	log.Info("webtail stopped")
	return runErr
}

// captureLogs routes log output into the console feed while it owns the
// terminal.
func captureLogs(log *logrus.Logger, feed *console.Feed) func() {
	original := log.Out
	hooks := make(logrus.LevelHooks, len(log.Hooks))
	for level, hs := range log.Hooks {
		hooks[level] = append([]logrus.Hook(nil), hs...)
	}
	log.SetOutput(io.Discard)
	log.AddHook(feed.Hook())
	return func() {
		log.ReplaceHooks(hooks)
		log.SetOutput(original)
	}
}
