// Package app wires the webtail pieces together and owns their lifetimes.
//
// # Overview
//
// Run is the composition root. It opens the tailed file, starts the HTTP
// server, and drives the poller until the context is cancelled or the file
// becomes unreadable:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> logtail.NewDetector()  Cursor starts at end of file
//	       ├─────> hub.New()              Viewer registry
//	       ├─────> state.Store{}          Stats for /healthz and the console
//	       ├─────> server.New()           Page, websocket, health routes
//	       ├─────> Poller.Run()           Detect, render, publish
//	       └─────> console.Run()          Optional terminal dashboard
//
// # Polling
//
// The poller ticks on a fixed period (default 100ms). With notify enabled an
// fsnotify watcher adds extra ticks as soon as the file is written, so the
// period becomes an upper bound on latency rather than the typical case.
// Each tick reads the complete lines appended since the last one, translates
// them once, and publishes the same markup to every viewer. Ticks never
// overlap.
//
// # Error Handling
//
// A truncated file resets the cursor and is logged as a warning. A file that
// can no longer be opened or read is fatal: viewers receive an error message,
// the store is marked degraded, and Run returns the error so the process
// exits non-zero after the server drains.
//
// # Shutdown
//
// The HTTP server stops accepting first, then every open websocket flushes
// its queue and receives a close frame before Run returns.
package app
