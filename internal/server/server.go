package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/scythe504/chain-reaction-backend/internal"
	"github.com/scythe504/chain-reaction-backend/internal/game"
	"github.com/scythe504/chain-reaction-backend/internal/utils"
)

// Config is read from the environment (a .env file is loaded by main).
type Config struct {
	Port         int `env:"PORT" envDefault:"8080"`
	GridRows     int `env:"DEFAULT_GRID_ROWS" envDefault:"9"`
	GridCols     int `env:"DEFAULT_GRID_COLS" envDefault:"6"`
	TurnDuration int `env:"DEFAULT_TURN_SECONDS" envDefault:"20"`
}

type Server struct {
	config Config
	hub    *game.Hub
}

// NewServer parses configuration and wires the room registry and hub.
func NewServer() (*http.Server, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	registry := game.NewRegistry(
		internal.GridSize{Rows: cfg.GridRows, Cols: cfg.GridCols},
		internal.TimerSettings{Duration: cfg.TurnDuration},
	)
	s := &Server{
		config: cfg,
		hub:    game.NewHub(registry, utils.UUIDSource{}),
	}

	log.Printf("[NewServer] Listening on port %d (default grid %dx%d, turn %ds)",
		cfg.Port, cfg.GridRows, cfg.GridCols, cfg.TurnDuration)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, nil
}
