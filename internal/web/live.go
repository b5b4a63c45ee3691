package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/view"
)

// frame is one live update of the system view.
type frame struct {
	State string `json:"state"`
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

// handleSystemSocket streams system view snapshots as they change. The
// load is cancelled as soon as the viewer disconnects.
func (s *Server) handleSystemSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends anything; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.loader.Load(ctx, id, func(snap view.Snapshot) {
		d := NewSystemData(id, "", snap)
		html, err := s.render.SystemHTML(d)
		if err != nil {
			s.logger.Error("rendering system", zap.String("system", id), zap.Error(err))
			return
		}
		if err := conn.WriteJSON(frame{State: d.State, HTML: html, Error: d.Error}); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket write", zap.Error(err))
			}
			cancel()
		}
	})

	if ctx.Err() == nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
		if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
			s.logger.Debug("websocket close", zap.Error(err))
		}
	}
}
