package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/solthius/episode-manager/internal/api"
	"github.com/solthius/episode-manager/internal/config"
	"github.com/solthius/episode-manager/internal/db"
	"github.com/solthius/episode-manager/internal/scheduler"
	"github.com/solthius/episode-manager/internal/service"
)

func main() {
	// 1. Load Config
	if err := config.LoadConfig("."); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Gin Mode
	gin.SetMode(config.AppConfig.Server.Mode)

	// 转换为绝对路径日志一下
	absPath, _ := filepath.Abs(config.AppConfig.Database.Path)
	log.Printf("Initializing database at: %s", absPath)

	db.InitDB(config.AppConfig.Database.Path)

	r := gin.Default()

	// 初始化路由
	api.InitRoutes(r, &api.Handlers{
		Manager: service.NewManager(),
		LLM:     service.NewLLMService(),
	})

	// Start Scheduler (history retention)
	sch := scheduler.NewManager()
	sch.Start()
	defer sch.Stop()

	port := fmt.Sprintf("%d", config.AppConfig.Server.Port)
	log.Printf("Server starting on port %s", port)
	if err := r.Run("127.0.0.1:" + port); err != nil {
		log.Fatal(err)
	}
}
