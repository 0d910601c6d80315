// Package http wires the gin router: the websocket join endpoint, the
// session boundary API, and operational queries.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/finvue/vkyc/internal/adapters/ws"
	"github.com/finvue/vkyc/internal/app"
	"github.com/finvue/vkyc/internal/config"
	"github.com/finvue/vkyc/internal/core"
)

// API bundles the handler dependencies.
type API struct {
	Cfg    *config.Config
	Rooms  *app.RoomRegistry
	Store  core.SessionStore
	Events core.EventSink
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ws/:room_id/:client_id", func(c *gin.Context) {
		ctl.HandleJoin(ctx, c)
	})

	rest := r.Group("/api")
	rest.GET("/ice-servers", api.iceServers)
	rest.GET("/rooms", api.listRooms)
	rest.POST("/sessions", api.createSession)
	rest.GET("/sessions", api.listSessions)
	rest.GET("/sessions/:room_id", api.getSession)
	rest.POST("/sessions/:room_id/claim", api.claimSession)
	rest.POST("/sessions/:room_id/decision", api.decideSession)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

// listRooms reports live registry occupancy, independent of the record
// store; useful when hunting rooms without a matching record.
func (api *API) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": api.Rooms.Snapshot()})
}

// iceServers hands clients the STUN/TURN configuration they need to build
// their RTCPeerConnection; the media path itself never touches this server.
func (api *API) iceServers(c *gin.Context) {
	servers := []webrtc.ICEServer{{URLs: api.Cfg.STUNURLs}}
	if api.Cfg.TURNURL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{api.Cfg.TURNURL},
			Username:   api.Cfg.TURNUsername,
			Credential: api.Cfg.TURNPassword,
		})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}
