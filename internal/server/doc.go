// Package server exposes a tailed file over HTTP.
//
// # Routes
//
//   - GET /        the HTML page, with the current file contents rendered
//     through the markup translator and a script that connects to /tail/
//   - GET /tail/   a websocket carrying JSON messages, {"type":"append"} for
//     new markup and {"type":"error"} once the file is gone
//   - GET /healthz "ok" with viewer and chunk counts, or 503 once degraded
//
// # Connections
//
// Each websocket becomes a hub viewer with a bounded outbound queue. A writer
// goroutine owns the connection's write side and a reader goroutine discards
// client frames and notices disconnects. When the queue fills, the hub drops
// the viewer rather than stall publishing for everyone else.
//
// Close asks every open connection to flush what it has queued, send a
// going-away close frame and return. Call it after http.Server.Shutdown,
// since hijacked connections are not tracked by the HTTP server.
package server
