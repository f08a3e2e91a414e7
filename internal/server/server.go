package server

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/hub"
	"github.com/five82/webtail/internal/logtail"
	"github.com/five82/webtail/internal/markup"
	"github.com/five82/webtail/internal/state"
)

const (
	// StreamPath is the websocket endpoint viewers connect to.
	StreamPath = "/tail/"

	defaultQueueSize    = 64
	defaultWriteTimeout = 5 * time.Second
)

//go:embed page.html
var pageTemplate string

var page = template.Must(template.New("page").Parse(pageTemplate))

type pageData struct {
	Title      string
	Content    template.HTML
	StreamPath string
}

// Options configure a Server.
type Options struct {
	FS           afero.Fs
	Path         string
	InitialLines int
	Translator   *markup.Translator
	Hub          *hub.Hub
	Store        *state.Store
	QueueSize    int
	WriteTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Server serves the initial page and the websocket stream.
type Server struct {
	opts     Options
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	closed   bool
	quit     chan struct{}
	quitOnce sync.Once
	conns    sync.WaitGroup
}

// New builds a Server. Hub and Store are required.
func New(opts Options) (*Server, error) {
	if opts.Hub == nil {
		return nil, fmt.Errorf("server requires a hub")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("server requires a stats store")
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Translator == nil {
		opts.Translator = markup.New(markup.Options{})
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Server{
		opts: opts,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		quit: make(chan struct{}),
	}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc(StreamPath, s.handleTail)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Close tells every open stream to flush its queue and send a close frame,
// then waits for the connection handlers to return.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.quitOnce.Do(func() { close(s.quit) })
	s.conns.Wait()
}

// track counts a new stream unless Close has started.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	lines, err := logtail.Read(s.opts.FS, s.opts.Path, s.opts.InitialLines)
	if err != nil {
		s.log.WithError(err).Error("initial dump failed")
		http.Error(w, "could not read "+filepath.Base(s.opts.Path), http.StatusInternalServerError)
		return
	}
	var dump string
	if len(lines) > 0 {
		dump = strings.Join(lines, "\n") + "\n"
	}

	data := pageData{
		Title:      s.opts.Path,
		Content:    template.HTML(s.opts.Translator.Render(dump)),
		StreamPath: StreamPath,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		s.log.WithError(err).Warn("render page")
	}
}

func (s *Server) handleTail(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).WithField("remote", r.RemoteAddr).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	v := newViewer(conn, s.opts.QueueSize)
	entry := s.log.WithFields(logrus.Fields{"viewer": v.id, "remote": v.remote})
	entry.Info("websocket open")

	s.opts.Hub.Register(v)
	if snap := s.opts.Store.Snapshot(); snap.Degraded {
		_ = v.Deliver(hub.Message{Type: hub.TypeError, HTML: markup.Render(snap.LastError.Error())})
	}

	go v.readLoop()
	if err := v.writeLoop(s.quit, s.opts.WriteTimeout); err != nil {
		entry.WithError(err).Debug("websocket write failed")
	}
	v.close()
	s.opts.Hub.Unregister(v)
	entry.Info("websocket close")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.opts.Store.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if snap.Degraded {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "degraded: %v\n", snap.LastError)
		return
	}
	fmt.Fprintf(w, "ok viewers=%d chunks=%d\n", snap.Viewers, snap.Chunks)
}
