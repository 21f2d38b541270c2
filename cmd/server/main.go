package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mrader1248/happy-games/internal/config"
	"github.com/mrader1248/happy-games/internal/engine"
	"github.com/mrader1248/happy-games/internal/engine/dummy"
	"github.com/mrader1248/happy-games/internal/otelutil"
	"github.com/mrader1248/happy-games/internal/state"
	"github.com/mrader1248/happy-games/pkg/protocol"
)

// Server wires the HTTP surface, the engine registry, and the
// process-wide game state together.
type Server struct {
	router       *gin.Engine
	stateManager *state.Manager
	engines      *engine.Registry
	cfg          config.Config
}

func NewServer(cfg config.Config) *Server {
	engines := engine.NewRegistry()
	engines.Register(dummy.New(cfg.MaxPlayers, cfg.HistoryLimit))

	s := &Server{
		router:       gin.New(),
		stateManager: state.NewManager(),
		engines:      engines,
		cfg:          cfg,
	}
	s.router.Use(gin.Recovery())
	s.router.Use(s.cidMiddleware())
	s.router.Use(s.otelMiddleware())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "happy-games",
		})
	})

	r.GET("/engine", s.handleListEngines)
	r.POST("/game", s.handleCreateGame)
	r.GET("/game", s.handleListGames)
	r.GET("/api/stats", s.handleStats)
	r.GET("/game-socket", s.handleWebSocket)

	if s.cfg.StaticDir != "" {
		r.Static("/static", s.cfg.StaticDir)
		r.StaticFile("/", filepath.Join(s.cfg.StaticDir, "index.html"))
	}
}

func (s *Server) handleListEngines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": protocol.StatusOK,
		"result": gin.H{"engines": s.engines.List()},
	})
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req protocol.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResult(c, protocol.MsgNoArguments)
		return
	}
	if req.User == "" {
		errorResult(c, protocol.MsgNoUser)
		return
	}
	if req.EngineName == "" {
		errorResult(c, protocol.MsgNoEngineName)
		return
	}

	eng, err := s.engines.Get(req.EngineName)
	if err != nil {
		errorResult(c, fmt.Sprintf("unknown game '%s'", req.EngineName))
		return
	}

	gameID, err := s.stateManager.CreateGame(req.User, eng)
	if err != nil {
		if errors.Is(err, state.ErrUserInAnotherGame) {
			errorResult(c, protocol.MsgUserAlreadyInGame)
		} else {
			errorResult(c, protocol.MsgInternalError)
		}
		return
	}

	log.Printf("user %s created game %s (engine %s)", req.User, gameID, req.EngineName)
	c.JSON(http.StatusOK, gin.H{
		"status": protocol.StatusOK,
		"result": gin.H{"gameId": gameID},
	})
}

func (s *Server) handleListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": protocol.StatusOK,
		"result": gin.H{"games": s.stateManager.ListGames()},
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stateManager.GetStats())
}

// errorResult writes the API error envelope. The API reports request
// failures in the body; the HTTP status stays 200.
func errorResult(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{
		"status": protocol.StatusError,
		"result": msg,
	})
}

func main() {
	if err := otelutil.Init(); err != nil {
		log.Printf("tracing disabled: %v", err)
	}
	defer otelutil.Flush()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	s := NewServer(cfg)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: s.router,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		} else {
			log.Println("Server shutdown complete")
		}
	}()

	log.Printf("Starting happy-games server on %s (Ctrl+C to stop)", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}
