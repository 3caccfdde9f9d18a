package main

import (
	"log"
	"os"

	_ "pjm/docs"
	"pjm/internal/config"
	"pjm/internal/logger"
	"pjm/internal/server"
)

// @title           Project Management API
// @version         1.0
// @description     Projects, tasks, role-based permissions and task history.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()
	logr := logger.New(os.Stdout, cfg.LogLevel)

	s, err := server.Init(cfg, logr)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
