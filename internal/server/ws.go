package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/mdview/pkg/errors"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 64 << 10
)

// handleWS streams state frames to the client and applies the commands it
// sends. The first frame is the current state.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	ch := sess.subscribe()
	sess.mu.Lock()
	first, _ := json.Marshal(message{Type: "state", State: ptr(sess.snapshot(s.now()))})
	if _, ok := sess.subs[ch]; ok {
		ch <- first
	}
	sess.mu.Unlock()

	go s.writePump(conn, ch)
	s.readPump(conn, sess, ch)
}

// writePump owns every write on conn. It returns when ch is closed, either
// by the read side or by the session ending.
func (s *Server) writePump(conn *websocket.Conn, ch chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readPump(conn *websocket.Conn, sess *session, ch chan []byte) {
	defer sess.unsubscribe(ch)
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed", "session", sess.ID, "err", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.sendError(sess, ch, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed command"))
			continue
		}
		if err := cmd.Validate(); err != nil {
			s.sendError(sess, ch, err)
			continue
		}
		sess.mu.Lock()
		_, _, err = apply(sess.v, cmd)
		if err != nil {
			sess.mu.Unlock()
			s.sendError(sess, ch, err)
			continue
		}
		sess.publish(s.now())
		sess.mu.Unlock()
	}
}

// sendError queues an error frame for one subscriber. The session lock
// guards ch against a concurrent close.
func (s *Server) sendError(sess *session, ch chan []byte, err error) {
	msg, merr := json.Marshal(message{Type: "error", Error: toAPIError(err)})
	if merr != nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, ok := sess.subs[ch]; !ok {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
