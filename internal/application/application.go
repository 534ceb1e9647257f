package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/prathamsaiya01/apna-adda-1/internal/config"
	"github.com/prathamsaiya01/apna-adda-1/internal/database"
	"github.com/prathamsaiya01/apna-adda-1/internal/handler"
	"github.com/prathamsaiya01/apna-adda-1/internal/repository"
	"github.com/prathamsaiya01/apna-adda-1/internal/router"
	"github.com/prathamsaiya01/apna-adda-1/internal/service"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	hub *service.Hub
}

// NewAPI creates the API application: validates config, runs migrations,
// opens the store, builds the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	var db *gorm.DB
	var repo repository.RoomRepository
	if cfg.UseDatabase() {
		if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		gormDB, err := database.Open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		db = gormDB
		repo = repository.NewPostgres(gormDB)
	} else {
		logger.Warn("DB_HOST not set, using in-memory room store")
		repo = repository.NewMemory()
	}

	hub := service.NewHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger)
	roomSvc := service.NewRoomService(repo, hub, logger, cfg.RoomDefaultMaxPlayers, cfg.RoomCodeAttempts)
	roomHandler := handler.NewRoomHandler(roomSvc)
	roomWS := handler.NewRoomWSHandler(roomSvc, logger, cfg.CommandRatePerSec, cfg.CommandBurst, cfg.WSMaxMessageSize)
	health := handler.NewHealthHandler()

	r := router.New(roomHandler, roomWS, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, hub: hub}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Rooms:     %s/api/rooms", base)
	log.Printf("  WebSocket: ws://%s:%s/ws", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
