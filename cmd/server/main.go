package main

import (
	"log"

	"aquatrack/internal/alerts"
	"aquatrack/internal/config"
	"aquatrack/internal/database"
	"aquatrack/internal/server"
)

func main() {
	if _, err := config.Load("./config.yaml"); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	engine := alerts.NewEngine(cfg.Alerts)

	httpServer := server.NewServer(db, engine)

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := httpServer.Start(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
