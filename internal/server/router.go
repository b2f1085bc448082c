package server

import (
	"net/http"
	"time"

	"watchparty/internal/auth"
	"watchparty/internal/config"
	"watchparty/internal/metrics"
	"watchparty/internal/mw"
	"watchparty/internal/realtime"
	"watchparty/internal/service"
	"watchparty/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, db *gorm.DB, hub *ws.Hub, coord *realtime.Coordinator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env, cfg.ClientOrigin))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	userSvc := service.NewUserService(db, cfg)
	roomSvc := service.NewRoomService(db, coord)
	placeSvc := service.NewPlaceService(db)
	friendSvc := service.NewFriendService(db, coord)
	h := NewHandler(userSvc, roomSvc, placeSvc, friendSvc, coord)

	api := r.Group("/api")

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	// 不持有实时连接的客户端轮询在线状态用。
	api.GET("/users/:userId/status", h.UserStatus)
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:id", h.GetRoom)

	// 需要 Bearer Token 的业务接口。
	authed := api.Group("")
	authed.Use(auth.AuthMiddleware(cfg, db))

	authed.GET("/auth/me", h.Me)
	authed.GET("/auth/verify", h.Verify)
	authed.PUT("/auth/settings", h.UpdateSettings)
	authed.GET("/auth/users/:username", h.UserProfile)

	authed.POST("/auth/friends/request/:userId", h.FriendRequest)
	authed.POST("/auth/friends/accept/:userId", h.FriendAccept)
	authed.POST("/auth/friends/reject/:userId", h.FriendReject)
	authed.POST("/auth/friends/remove/:userId", h.FriendRemove)
	authed.GET("/auth/friends", h.ListFriends)
	authed.GET("/auth/friends/requests", h.ListFriendRequests)

	authed.POST("/rooms", h.CreateRoom)
	authed.POST("/rooms/:id/join", h.JoinRoom)

	authed.GET("/places/my-places", h.MyPlaces)
	authed.POST("/places", h.CreatePlace)
	authed.GET("/places/:id", h.GetPlace)
	authed.DELETE("/places/:id", h.DeletePlace)
	authed.POST("/places/:id/join", h.JoinPlace)
	authed.POST("/places/:id/leave", h.LeavePlace)
	authed.POST("/places/:id/invite", h.InviteToPlace)

	r.GET("/ws", ws.Serve(hub, coord, cfg))

	return r
}
