package main

import (
	"watchparty/internal/config"
	"watchparty/internal/db"
	clog "watchparty/internal/log"
	"watchparty/internal/realtime"
	"watchparty/internal/server"
	"watchparty/internal/service"
	"watchparty/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责加载配置、初始化日志、连接数据库并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	hub := ws.NewHub()
	coord := realtime.NewCoordinator(realtime.Config{
		Broadcaster:  hub,
		Store:        service.NewCoreStore(gdb),
		Logger:       &log.Logger,
		CleanupDelay: cfg.RoomCleanupDelay,
	})

	r := server.SetupRouter(cfg, gdb, hub, coord)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
