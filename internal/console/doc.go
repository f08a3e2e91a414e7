// Package console is the optional terminal dashboard for a running webtail.
//
// It shows a one-line header built from the stats store (tailed file, listen
// address, connected viewers, chunks and bytes pushed, truncations, and the
// fatal error once the service is degraded) above a scrollable log pane fed
// by a logrus hook. While the console owns the terminal, log output is routed
// through the Feed instead of stderr.
//
// Keys: q quits, t cycles the theme, f toggles follow mode, c clears the
// log pane, and the arrow/page keys scroll.
package console
