package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nara-t/nara-sim/sim"
)

const (
	subscriberBuffer = 64
	writeWait        = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// streamMessage is one websocket frame: a log line while the run is active,
// then a single "done" frame carrying the final run view.
type streamMessage struct {
	Type  string   `json:"type"` // "line" or "done"
	Line  string   `json:"line,omitempty"`
	Error bool     `json:"error,omitempty"`
	Run   *runView `json:"run,omitempty"`
}

// Observe feeds the log panel and fans the line out to live subscribers.
// A subscriber that falls behind is dropped.
func (r *run) Observe(rec *sim.RequestRecord) {
	msg := streamMessage{Type: "line", Line: sim.FormatLogLine(rec), Error: !rec.OK()}

	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.panel.Observe(rec)
	for ch := range r.subs {
		select {
		case ch <- msg:
		default:
			delete(r.subs, ch)
			close(ch)
		}
	}
}

// subscribe returns the lines logged so far and a channel for the rest.
// The channel is closed when the run ends.
func (r *run) subscribe() ([]streamMessage, chan streamMessage) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	backlog := make([]streamMessage, 0)
	for _, line := range r.panel.Lines() {
		backlog = append(backlog, streamMessage{Type: "line", Line: line, Error: strings.HasPrefix(line, "ERR,")})
	}
	ch := make(chan streamMessage, subscriberBuffer)
	if r.closed {
		close(ch)
		return backlog, ch
	}
	r.subs[ch] = struct{}{}
	return backlog, ch
}

func (r *run) unsubscribe(ch chan streamMessage) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
}

func (r *run) closeSubscribers() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.closed = true
	for ch := range r.subs {
		delete(r.subs, ch)
		close(ch)
	}
}

func (s *Server) handleStreamSimulation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn := s.current
	s.mu.Unlock()
	if rn == nil {
		respondError(w, http.StatusNotFound, "no simulation has been started")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so close and disconnect are noticed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	backlog, ch := rn.subscribe()
	defer rn.unsubscribe(ch)
	for _, msg := range backlog {
		if err := writeFrame(conn, msg); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				s.finishStream(conn, rn)
				return
			}
			if err := writeFrame(conn, msg); err != nil {
				return
			}
		}
	}
}

// finishStream sends the final view once the run is over, or just closes when
// the subscriber was dropped mid-run.
func (s *Server) finishStream(conn *websocket.Conn, rn *run) {
	if rn.finished() {
		view := s.view(rn)
		if err := writeFrame(conn, streamMessage{Type: "done", Run: &view}); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func writeFrame(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
