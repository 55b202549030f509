package main

import (
	"flag"
	"log"
	"time"

	"clipdeck/internal/engine/sharelinks"
	"clipdeck/internal/pkg/logger"
	"clipdeck/internal/platform/config"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/repositories"
	"clipdeck/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	runner := workers.NewRunner(
		sharelinks.NewRepository(globalDB),
		repositories.NewClientGroupRepository(globalDB),
		tenantDBPool,
	)

	go runShareLinkPurge(runner, cfg.Workers.ShareLinkPurgeInterval)
	go runSessionSweep(runner)

	log.Println("Background workers started")

	// Keep process alive
	select {}
}

func runShareLinkPurge(runner *workers.Runner, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := runner.PurgeExpiredShareLinks(); err != nil {
			log.Printf("Error purging share links: %v", err)
		}
	}
}

func runSessionSweep(runner *workers.Runner) {
	// Run at 01:00 UTC daily
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 1, 0, 0, 0, time.UTC)
		duration := next.Sub(now)
		if duration < 0 {
			duration = time.Minute
		}

		time.Sleep(duration)

		if err := runner.SweepOldSessions(); err != nil {
			log.Printf("Error sweeping sessions: %v", err)
		}
	}
}
