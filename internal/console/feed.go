package console

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time
	Level   logrus.Level
	Message string
	Fields  string // "k=v" pairs sorted by key
}

// Feed carries log records from the logger to the console.
type Feed struct {
	ch      chan Entry
	dropped atomic.Uint64
}

// NewFeed returns a Feed buffering up to size records.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1
	}
	return &Feed{ch: make(chan Entry, size)}
}

// Entries returns the receive side of the feed.
func (f *Feed) Entries() <-chan Entry {
	return f.ch
}

// Dropped reports how many records were discarded because the buffer was full.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// Hook returns a logrus hook that forwards every record into the feed.
func (f *Feed) Hook() logrus.Hook {
	return feedHook{feed: f}
}

func (f *Feed) push(e Entry) {
	select {
	case f.ch <- e:
	default:
		f.dropped.Add(1)
	}
}

type feedHook struct {
	feed *Feed
}

func (h feedHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire never blocks the logging goroutine.
func (h feedHook) Fire(entry *logrus.Entry) error {
	h.feed.push(Entry{
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
		Fields:  formatFields(entry.Data),
	})
	return nil
}

func formatFields(data logrus.Fields) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}
