package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the tunables of a webtail instance. The port and the tailed
// file come from the command line.
type Config struct {
	Host         string
	PollInterval time.Duration
	InitialLines int // 0 dumps the whole file into the initial page
	TabStop      int
	LinkURLs     bool
	QueueSize    int // outbound messages buffered per viewer
	WriteTimeout time.Duration
	Notify       bool // wake the poller on fsnotify write events
	Theme        string
}

const (
	defaultConfigPath   = "~/.config/webtail/config.toml"
	defaultHost         = ""
	defaultPollInterval = 100 * time.Millisecond
	defaultTabStop      = 4
	defaultQueueSize    = 64
	defaultWriteTimeout = 5 * time.Second
	defaultTheme        = "Dracula"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Host:         defaultHost,
		PollInterval: defaultPollInterval,
		TabStop:      defaultTabStop,
		QueueSize:    defaultQueueSize,
		WriteTimeout: defaultWriteTimeout,
		Theme:        defaultTheme,
	}
}

// Load locates and parses the webtail config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Host         string `toml:"host"`
		PollInterval string `toml:"poll_interval"`
		InitialLines int    `toml:"initial_lines"`
		TabStop      int    `toml:"tab_stop"`
		LinkURLs     bool   `toml:"link_urls"`
		QueueSize    int    `toml:"queue_size"`
		WriteTimeout string `toml:"write_timeout"`
		Notify       bool   `toml:"notify"`
		Theme        string `toml:"theme"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Host = strings.TrimSpace(raw.Host)
	if cfg.PollInterval, err = parseDuration(raw.PollInterval, defaultPollInterval); err != nil {
		return Config{}, fmt.Errorf("parse config: poll_interval: %w", err)
	}
	if cfg.WriteTimeout, err = parseDuration(raw.WriteTimeout, defaultWriteTimeout); err != nil {
		return Config{}, fmt.Errorf("parse config: write_timeout: %w", err)
	}
	if raw.InitialLines > 0 {
		cfg.InitialLines = raw.InitialLines
	}
	if raw.TabStop > 0 {
		cfg.TabStop = raw.TabStop
	}
	if raw.QueueSize > 0 {
		cfg.QueueSize = raw.QueueSize
	}
	cfg.LinkURLs = raw.LinkURLs
	cfg.Notify = raw.Notify
	if theme := strings.TrimSpace(raw.Theme); theme != "" {
		cfg.Theme = theme
	}

	return cfg, nil
}

// ListenAddr joins the configured host with port.
func (c Config) ListenAddr(port int) string {
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", trimmed)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
