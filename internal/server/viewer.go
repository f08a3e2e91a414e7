package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/five82/webtail/internal/hub"
)

// viewer is one websocket connection. The hub enqueues onto out; only
// writeLoop writes to the connection.
type viewer struct {
	id     string
	remote string
	conn   *websocket.Conn
	out    chan hub.Message

	done      chan struct{}
	closeOnce sync.Once
	lagging   atomic.Bool // closed because the queue overflowed
}

func newViewer(conn *websocket.Conn, queueSize int) *viewer {
	return &viewer{
		id:     uuid.NewString(),
		remote: conn.RemoteAddr().String(),
		conn:   conn,
		out:    make(chan hub.Message, queueSize),
		done:   make(chan struct{}),
	}
}

func (v *viewer) ID() string { return v.id }

// Deliver enqueues m without blocking. A full queue closes the viewer: its
// display can no longer be complete, so the connection is ended rather than
// left silently stale.
func (v *viewer) Deliver(m hub.Message) error {
	select {
	case <-v.done:
		return hub.ErrViewerClosed
	default:
	}
	select {
	case v.out <- m:
		return nil
	case <-v.done:
		return hub.ErrViewerClosed
	default:
		v.lagging.Store(true)
		v.close()
		return hub.ErrViewerBehind
	}
}

func (v *viewer) close() {
	v.closeOnce.Do(func() { close(v.done) })
}

// readLoop discards client messages and notices the connection closing.
func (v *viewer) readLoop() {
	defer v.close()
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop sends queued messages until the viewer closes, a write fails, or
// quit is closed. On quit the queue is drained before a close frame is sent.
func (v *viewer) writeLoop(quit <-chan struct{}, timeout time.Duration) error {
	for {
		select {
		case <-v.done:
			if v.lagging.Load() {
				_ = v.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "viewer fell behind"),
					time.Now().Add(timeout))
			}
			return nil
		case m := <-v.out:
			if err := v.write(m, timeout); err != nil {
				return err
			}
		case <-quit:
			if err := v.drain(timeout); err != nil {
				return err
			}
			_ = v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(timeout))
			return nil
		}
	}
}

func (v *viewer) drain(timeout time.Duration) error {
	for {
		select {
		case m := <-v.out:
			if err := v.write(m, timeout); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (v *viewer) write(m hub.Message, timeout time.Duration) error {
	if err := v.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return v.conn.WriteJSON(m)
}
