// Package markup translates terminal output into HTML that can be appended to a
// browser page.
//
// # Overview
//
// Render takes raw text as written by a program to its terminal and returns a
// string that is safe to insert into an HTML document and looks like the
// terminal rendering of that text. The translator never fails: sequences it
// does not understand, and style starts without a matching end, are kept as
// literal text.
//
// # Processing
//
// The input is tokenised a line at a time and each line is walked twice:
//
//  1. Terminal controls are applied against an output stack. Bells are
//     dropped, a backspace removes the last character on the current line and
//     an erase-line sequence (ESC[K) drops the characters buffered since the
//     last line break.
//  2. The remaining tokens are written out. HTML-sensitive characters become
//     entities, line endings become <br>, leading indentation becomes &nbsp;
//     runs, and SGR sequences are paired with a stack per style category.
//
// Supported styles:
//
//   - colours cyan (36), blue (34), red (31), magenta (35), green (32),
//     closed by 39 or a reset
//   - bold (1), closed by 22 or a reset
//   - underline (4), closed by 24 or a reset
//
// Styles may overlap: when a span that is not the innermost one closes, the
// spans opened inside it are closed and reopened around the close.
//
// Consecutive SGR sequences are read as one, so the two-sequence form
// ESC[1mESC[31m is equivalent to ESC[1;31m.
//
// # URLs
//
// Bare http://, https:// and ftp:// URLs are detected. By default they pass
// through as text; Options.LinkURLs wraps them in anchors.
package markup
