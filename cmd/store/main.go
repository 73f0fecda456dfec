package main

import (
	"log"

	"aquatrack/internal/config"
	"aquatrack/internal/database"
	"aquatrack/internal/export"
	"aquatrack/internal/models"
)

func main() {
	// Load config for export paths and database connection
	if _, err := config.Load("./config.yaml"); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	imported := 0
	for _, sc := range models.Scenarios {
		path := export.FilePath(cfg.Export.Dir, sc)

		samples, err := export.ReadCSV(path)
		if err != nil {
			log.Printf("Skipping %s: %v", sc, err)
			continue
		}

		if err := db.ReplaceSamples(sc, samples); err != nil {
			log.Fatalf("Failed to store %s samples: %v", sc, err)
		}

		imported++
		log.Printf("Imported %d rows for scenario %s from %s", len(samples), sc, path)
	}

	if imported == 0 {
		log.Fatalf("No datasets imported. Run cmd/generate first.")
	}

	log.Printf("Import complete! %d scenario datasets stored", imported)
}
