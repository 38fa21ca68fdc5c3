package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sightline/internal/api"
	"sightline/internal/config"
	"sightline/internal/game"
	"sightline/internal/perf"
	"sightline/internal/world"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment only")
	}

	cfg := config.Load()
	log.Printf("world: size=%.0f grid=%dx%d cell=%.1f bots=%d seed=%d",
		cfg.World.TerrainSize, cfg.World.GridSize, cfg.World.GridSize,
		cfg.World.CellSize, cfg.World.BotsCount, cfg.World.Seed)

	w, err := world.Generate(cfg.World)
	if err != nil {
		log.Fatalf("world generation: %v", err)
	}
	log.Printf("generated %d obstacles", len(w.Obstacles))

	var tracker *perf.Tracker
	if os.Getenv("PERF_TRACKER") == "true" {
		tracker = perf.New(10 * time.Second)
	}

	engine := game.NewEngine(cfg.World, cfg.Sim, w, tracker)

	api.RegisterEngineMetrics(engine)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		api.StartDebugServer(cfg.Server.DebugListenAddr)
	}

	server, err := api.NewServer(cfg.Server, cfg.World, engine)
	if err != nil {
		log.Fatalf("server setup: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
	engine.Stop()
	log.Println("shutdown complete")
}
