package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// ErrSourceUnavailable is returned once the tailed file can no longer be read.
var ErrSourceUnavailable = errors.New("tailed file unavailable")

// Update is the result of one poll.
type Update struct {
	Text      string // complete lines appended since the previous poll
	Truncated bool   // file shrank below the cursor and was re-read from the start
}

// Detector notices lines appended to a file. Only the poller calls Poll, so
// the cursor needs no locking.
type Detector struct {
	fs     afero.Fs
	path   string
	cursor int64
}

// NewDetector positions the cursor at the current end of path so only content
// appended from now on is reported.
func NewDetector(fs afero.Fs, path string) (*Detector, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &Detector{fs: fs, path: path, cursor: info.Size()}, nil
}

// Path returns the tailed file path.
func (d *Detector) Path() string {
	return d.path
}

// Cursor returns the byte offset just past the last complete line reported.
func (d *Detector) Cursor() int64 {
	return d.cursor
}

// Poll reads the complete lines appended since the last poll. A trailing line
// without a terminator is left for a later poll.
func (d *Detector) Poll() (Update, error) {
	file, err := d.fs.Open(d.path)
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var upd Update
	size := info.Size()
	if size < d.cursor {
		d.cursor = 0
		upd.Truncated = true
	}
	if size == d.cursor {
		return upd, nil
	}

	if _, err := file.Seek(d.cursor, io.SeekStart); err != nil {
		return upd, fmt.Errorf("%w: seek: %v", ErrSourceUnavailable, err)
	}
	buf := make([]byte, size-d.cursor)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return upd, fmt.Errorf("%w: read: %v", ErrSourceUnavailable, err)
	}
	buf = buf[:n]

	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		return upd, nil
	}
	upd.Text = string(buf[:end+1])
	d.cursor += int64(end + 1)
	return upd, nil
}
