package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/router"
	"github.com/habitlog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to load timezone: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	created, err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}
	if created {
		log.Printf("[server] created admin user %s", cfg.SuperRootUserName)
	}

	if cfg.HolidaysFile != "" {
		count, err := service.NewHolidayService(db.DB, loc).ImportFile(cfg.HolidaysFile)
		if err != nil {
			log.Fatalf("failed to import holidays: %v", err)
		}
		log.Printf("[server] imported %d holidays from %s", count, cfg.HolidaysFile)
	}

	api := handler.NewAPI(db.DB, loc)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	log.Printf("[server] listening on %s (timezone %s)", cfg.ListenAddr, loc)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
