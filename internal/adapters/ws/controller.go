package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/app"
	"github.com/finvue/vkyc/internal/config"
	"github.com/finvue/vkyc/internal/core"
)

// Controller runs the per-connection lifecycle: upgrade, identity, room
// admission, the relay read loop, and the close path.
type Controller struct {
	relay    *app.Relay
	resolver core.IdentityResolver
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewController(relay *app.Relay, resolver core.IdentityResolver, cfg *config.Config) *Controller {
	return &Controller{
		relay:    relay,
		resolver: resolver,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// HandleJoin serves GET /ws/:room_id/:client_id. Authentication and
// admission failures are reported through the close status so clients can
// distinguish failure classes; the registry is untouched on auth failure.
func (ctl *Controller) HandleJoin(ctx context.Context, c *gin.Context) {
	roomID := c.Param("room_id")
	clientID := c.Param("client_id")

	socket, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}
	socket.SetReadLimit(ctl.cfg.ReadLimit)
	conn := NewConn(socket)

	identity, err := ctl.resolver.Resolve(c.Request.URL.Query())
	if err != nil {
		log.Warn().Str("module", "ws").Str("room", roomID).Str("client", clientID).Msg("authentication failed")
		conn.CloseWithStatus(core.CloseAuthFailed, "authentication-failed")
		return
	}

	peer, err := ctl.relay.Admit(ctx, roomID, identity.Role, clientID, conn)
	if err != nil {
		var adm *core.AdmissionError
		if errors.As(err, &adm) {
			log.Info().Str("module", "ws").Str("room", roomID).Str("role", string(identity.Role)).Str("reason", string(adm.Reason)).Msg("admission rejected")
			conn.CloseWithStatus(adm.Reason.CloseStatus(), string(adm.Reason))
		} else {
			log.Error().Err(err).Str("module", "ws").Str("room", roomID).Msg("admission failed")
			conn.Close()
		}
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go conn.writePump(connCtx, ctl.cfg.PingPeriod, ctl.cfg.WriteTimeout)

	pongWait := ctl.cfg.PingPeriod + ctl.cfg.PingPeriod/2
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	log.Info().Str("module", "ws").Str("room", roomID).Str("role", string(identity.Role)).Str("client", clientID).Str("subject", identity.SubjectID).Msg("connected")

	// Cleanup must run even when the surrounding server context is
	// already gone, so it gets a fresh short-lived context.
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		peer.Close(closeCtx)
		conn.Close()
	}()

	for {
		select {
		case <-connCtx.Done():
			return
		default:
		}
		_, data, err := socket.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "ws").Str("room", roomID).Str("client", clientID).Msg("read loop ended")
			return
		}
		if err := peer.Dispatch(data); err != nil {
			return
		}
	}
}
