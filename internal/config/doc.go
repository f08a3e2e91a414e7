// Package config loads the optional webtail configuration file.
//
// # Overview
//
// The port and the tailed file always come from the command line. Everything
// else has a default and can be set in a TOML file, then overridden again by
// command-line flags in cmd/webtail.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it (a leading ~ is expanded)
//  2. Otherwise, use ~/.config/webtail/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Keys
//
//	host           = ""        # listen host; empty binds every interface
//	poll_interval  = "100ms"   # detector period
//	initial_lines  = 0         # lines dumped into the page; 0 means the whole file
//	tab_stop       = 4         # &nbsp; per leading tab
//	link_urls      = false     # wrap http/https/ftp URLs in anchors
//	queue_size     = 64        # buffered messages per viewer before it is dropped
//	write_timeout  = "5s"      # per-message websocket write deadline
//	notify         = false     # wake the poller on fsnotify write events
//	theme          = "Dracula" # console palette: Dracula or Slate
//
// Durations use time.ParseDuration syntax and must be positive. A malformed
// file or value is an error; Load never silently ignores a bad setting.
package config
