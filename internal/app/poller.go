package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/webtail/internal/hub"
	"github.com/five82/webtail/internal/logtail"
	"github.com/five82/webtail/internal/markup"
	"github.com/five82/webtail/internal/state"
)

const defaultPollInterval = 100 * time.Millisecond

// Poller drives the detector on a fixed period and publishes what it finds.
// Ticks run on the goroutine that called Run, one at a time.
type Poller struct {
	Detector   *logtail.Detector
	Translator *markup.Translator
	Hub        *hub.Hub
	Store      *state.Store
	Log        logrus.FieldLogger
	Interval   time.Duration

	// Wake, when set, triggers an extra tick between timer ticks.
	Wake <-chan struct{}
}

// Run ticks until ctx is cancelled or the file becomes unreadable. The latter
// is reported to viewers and returned.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.Wake:
		}
		if err := p.Tick(); err != nil {
			return err
		}
	}
}

// Tick runs one poll cycle.
func (p *Poller) Tick() error {
	upd, err := p.Detector.Poll()
	if upd.Truncated {
		p.Store.RecordTruncation()
		p.Log.WithField("path", p.Detector.Path()).Warn("file truncated, reading from start")
	}
	if err != nil {
		p.fail(err)
		return err
	}
	if upd.Text == "" {
		return nil
	}

	chunk := p.Translator.Render(upd.Text)
	delivered := p.Hub.Publish(hub.Message{Type: hub.TypeAppend, HTML: chunk})
	p.Store.RecordChunk(len(upd.Text), p.Detector.Cursor())
	p.Log.WithFields(logrus.Fields{
		"bytes":   len(upd.Text),
		"viewers": delivered,
	}).Debug("file refresh")
	return nil
}

func (p *Poller) fail(err error) {
	p.Store.Fail(err)
	p.Log.WithError(err).WithField("path", p.Detector.Path()).Error("tailed file lost")
	p.Hub.Fail(markup.Render(fmt.Sprintf("webtail: %v", err)))
}
