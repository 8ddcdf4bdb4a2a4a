// internal/httpserver/events.go
//
// GET /game/events: websocket push channel for one session.
//
// Server → client: {"type":"state","state":<Snapshot>} on connect and on
// every change (notably when commentary arrives), or {"type":"error"}.
// Client → server: {"action":"start","mode":"daily"} or
// {"action":"guess","number":4}.

package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsMaxMessage = 1024
	actionStart  = "start"
	actionGuess  = "guess"
	msgTypeState = "state"
	msgTypeError = "error"
)

// wsCommand is a client → server message.
type wsCommand struct {
	Action string `json:"action"`
	Mode   string `json:"mode,omitempty"`
	Number int    `json:"number,omitempty"`
}

// wsMessage is a server → client message.
type wsMessage struct {
	Type  string            `json:"type"`
	State *session.Snapshot `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl := sessionFrom(r)

	// Carry a freshly issued session cookie through the handshake.
	var hdr http.Header
	if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
		hdr = http.Header{"Set-Cookie": cookies}
	}
	conn, err := s.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan wsCommand)
	go func() {
		defer cancel()
		for {
			var cmd wsCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			select {
			case inbound <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	snap, err := ctrl.Snapshot(ctx)
	if err != nil || !writeState(conn, snap) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Done():
			return
		case snap := <-updates:
			if !writeState(conn, snap) {
				return
			}
		case cmd := <-inbound:
			snap, err := s.applyCommand(ctx, ctrl, cmd)
			if err != nil {
				if !writeMessage(conn, wsMessage{Type: msgTypeError, Error: err.Error()}) {
					return
				}
				continue
			}
			if !writeState(conn, snap) {
				return
			}
		}
	}
}

type wsError string

func (e wsError) Error() string { return string(e) }

func (s *Server) applyCommand(ctx context.Context, ctrl *session.Controller, cmd wsCommand) (session.Snapshot, error) {
	switch cmd.Action {
	case actionStart:
		secret, ok := s.secretFor(cmd.Mode)
		if !ok {
			return session.Snapshot{}, wsError("bad_mode")
		}
		return ctrl.Start(ctx, secret)
	case actionGuess:
		return ctrl.Guess(ctx, cmd.Number)
	default:
		return session.Snapshot{}, wsError("unknown_action")
	}
}

func writeState(conn *websocket.Conn, snap session.Snapshot) bool {
	return writeMessage(conn, wsMessage{Type: msgTypeState, State: &snap})
}

func writeMessage(conn *websocket.Conn, m wsMessage) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(m); err != nil {
		log.Debug().Err(err).Msg("websocket write")
		return false
	}
	return true
}

// checkOrigin accepts same-host requests, non-browser clients (no Origin)
// and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}
