// Package logtail reads the tailed log file.
//
// # Overview
//
// Two readers live here:
//
//  1. Read: extract the last N lines (or every line) for the initial page
//  2. Detector: report complete lines appended since the previous poll
//
// Both go through an afero.Fs so tests can run against an in-memory
// filesystem while the service uses afero.NewOsFs.
//
// # Reading Log Files
//
// Read uses a ring buffer of size maxLines, so memory stays O(maxLines)
// regardless of file size. A maxLines of zero or less returns the whole file.
// A missing file reads as empty.
//
// # Detecting Appended Lines
//
// A Detector keeps a byte cursor, initially the file size at construction.
// Each Poll opens the file, reads from the cursor to the current end and
// reports everything up to and including the last newline. The cursor only
// moves past complete lines, so a line still being written is picked up in
// full on a later poll:
//
//	d, _ := logtail.NewDetector(afero.NewOsFs(), "/var/log/app.log")
//	upd, err := d.Poll()
//	if errors.Is(err, logtail.ErrSourceUnavailable) {
//		// the file was removed or became unreadable
//	}
//
// When the file is smaller than the cursor it was truncated; the cursor is
// reset to zero and Update.Truncated is set.
//
// # Error Handling
//
// Poll wraps every open, stat, seek or read failure in ErrSourceUnavailable.
// Callers treat it as fatal: a file that cannot be read must not look like a
// file that is merely quiet.
//
// A Detector is not safe for concurrent use; only the poller calls it.
package logtail
