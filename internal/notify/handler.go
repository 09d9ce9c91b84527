package notify

import (
	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
	"github.com/videoreview/videoreview_server/internal/auth"
)

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true
	},
}

type Handler struct {
	hub         *Hub
	authService *auth.Service
}

func NewHandler(hub *Hub, authService *auth.Service) *Handler {
	return &Handler{hub: hub, authService: authService}
}

// Serve upgrades the request to a websocket connection. The token is
// accepted from the "token" query parameter because browser websocket
// clients cannot set an Authorization header.
func (h *Handler) Serve(ctx *fasthttp.RequestCtx) {
	claims, err := h.authenticate(ctx)
	if err != nil {
		ctx.Error("Unauthorized", fasthttp.StatusUnauthorized)
		return
	}

	err = upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		client := NewClient(h.hub, conn, claims)
		h.hub.Register(client)

		go client.WritePump()
		client.ReadPump()
	})
	if err != nil {
		log.Error().Err(err).Msg("[WS] Upgrade failed")
	}
}

func (h *Handler) authenticate(ctx *fasthttp.RequestCtx) (*auth.Claims, error) {
	token := string(ctx.QueryArgs().Peek("token"))
	if token != "" {
		return h.authService.ValidateJWT(token)
	}
	return h.authService.ValidateRequest(ctx)
}
