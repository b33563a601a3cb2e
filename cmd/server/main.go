// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"gridlock/internal/auth"
	"gridlock/internal/database"
	"gridlock/internal/engine"
	"gridlock/internal/handlers"
	"gridlock/internal/middleware"
	"gridlock/internal/store"
	"gridlock/internal/store/memory"
	"gridlock/internal/store/redisstore"
)

func main() {
	if err := auth.Init(); err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	var (
		rooms store.RoomStore
		conns store.ConnectionStore
	)
	if os.Getenv("STORE") == "memory" {
		// Single-process mode for local development: replaces Redis only.
		// Room state does not survive a restart; accounts and stats still
		// live in Postgres.
		mem := memory.New()
		rooms, conns = mem, mem
		logger.Warn("Using in-memory room store; Postgres still backs accounts and stats")
	} else {
		cfg := redisstore.DefaultConfig()
		if url := os.Getenv("REDIS_URL"); url != "" {
			cfg.URL = url
		}
		rs, err := redisstore.New(cfg)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rs.Close()
		rooms, conns = rs, rs
	}

	statsRepo := database.StatsRepo{}
	registry := handlers.NewRegistry()
	eng := engine.New(rooms, conns, statsRepo, statsRepo, registry, logger)
	gs := handlers.NewGameServer(eng, registry, logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// game websocket
	mux.Handle("/ws", middleware.LogMiddleware(logger)(gs.WSHandler()))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
