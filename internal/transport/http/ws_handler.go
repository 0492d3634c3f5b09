package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"netexam/internal/app"
	"netexam/internal/transport/wire"
)

type WSHandler struct {
	coordinator *app.Coordinator
	baseCtx     context.Context
	upgrader    websocket.Upgrader
}

// NewWSHandler serves participant sessions. baseCtx bounds every session;
// request contexts are not used because hijacked connections outlive them.
func NewWSHandler(baseCtx context.Context, coordinator *app.Coordinator) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		baseCtx:     baseCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type wsCodec struct {
	conn *websocket.Conn
}

func (c wsCodec) ReadEnvelope(env *wire.Envelope) error { return c.conn.ReadJSON(env) }
func (c wsCodec) WriteJSON(v any) error                 { return c.conn.WriteJSON(v) }
func (c wsCodec) Close() error                          { return c.conn.Close() }

// Routes mounts the participant endpoint. Health checks live on the admin router.
func (h *WSHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", h.ServeWS)
	return r
}

// ServeWS upgrades HTTP requests to websockets and runs the exam session on them.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	peer := wire.NewPeer(wsCodec{conn: conn})
	if err := h.coordinator.Handle(h.baseCtx, peer); err != nil {
		log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("session ended with error")
	}
}
