package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pjm/internal/config"
	"pjm/internal/handler"
	"pjm/internal/history"
	"pjm/internal/middleware"
	"pjm/internal/migrations"
	"pjm/internal/permission"
	"pjm/internal/repository"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	History *history.Log
	Logger  *slog.Logger
}

// Stores is everything the HTTP layer reads and writes.
type Stores struct {
	Users    handler.UserStore
	Projects handler.ProjectStore
	Members  handler.MemberStore
	Tasks    handler.TaskStore
	History  handler.HistoryLog
}

func Init(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.MigrateURL(), logger); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
	}

	// Setup GORM
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	// The history log lives for the whole process.
	historyLog := history.NewLog(history.WithLogger(logger.With(slog.String("component", "history"))))

	stores := Stores{
		Users:    repository.NewUserRepository(db),
		Projects: repository.NewProjectRepository(db),
		Members:  repository.NewMemberRepository(db),
		Tasks:    repository.NewTaskRepository(db),
		History:  historyLog,
	}

	return &Server{
		Engine:  NewEngine(cfg, stores, db, logger),
		DB:      db,
		Config:  cfg,
		History: historyLog,
		Logger:  logger,
	}, nil
}

// NewEngine builds the router. db is only used by the health check and may
// be nil.
func NewEngine(cfg *config.Config, s Stores, db *gorm.DB, logger *slog.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/healthz"))

	userHandler := handler.NewUserHandler(s.Users, cfg.JWTSecret, cfg.JWTExpiry)
	projectHandler := handler.NewProjectHandler(s.Projects, s.Members)
	memberHandler := handler.NewMemberHandler(s.Members, s.Users, logger)
	taskHandler := handler.NewTaskHandler(s.Tasks, s.Members, s.History)
	historyHandler := handler.NewHistoryHandler(s.History, s.Tasks, s.Members, logger)

	r.GET("/healthz", health(db))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.GET("/roles", handler.Roles)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.POST("/logout", userHandler.Logout)
		authorized.GET("/me", userHandler.Me)
		authorized.GET("/users", userHandler.List)

		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)
		authorized.GET("/projects/:id/permissions", projectHandler.Permissions)

		// Member routes
		authorized.POST("/projects/:id/members", memberHandler.AddMember)
		authorized.GET("/projects/:id/members", memberHandler.GetMembers)
		authorized.DELETE("/projects/:id/members/:user_id", memberHandler.RemoveMember)

		// Task routes
		authorized.POST("/projects/:id/tasks", taskHandler.Create)
		authorized.GET("/projects/:id/tasks", taskHandler.GetByProject)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/assign", taskHandler.Assign)

		// History routes
		authorized.GET("/projects/:id/history", historyHandler.GetProjectHistory)
		authorized.GET("/projects/:id/history/stream", historyHandler.Stream)
		authorized.DELETE("/history", middleware.RequireAppRole(permission.RoleAdministrator), historyHandler.Clear)
	}

	return r
}

// health godoc
// @Summary      Liveness and database reachability
// @Tags         Health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /healthz [get]
func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Logger.Info("server running", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	s.Logger.Info("server exited properly", slog.Int("history_events", s.History.Len()))
}
