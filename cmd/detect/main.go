package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"aquatrack/internal/alerts"
	"aquatrack/internal/config"
	"aquatrack/internal/database"
	"aquatrack/internal/export"
	"aquatrack/internal/metrics"
	"aquatrack/internal/models"

	"github.com/go-redis/redis/v8"
)

// replayResult holds the alerts found while replaying one scenario.
type replayResult struct {
	Scenario       models.Scenario
	Alerts         []models.Alert
	Err            error
	ProcessingTime time.Duration
}

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

	redisCfg := config.GetRedisConfig()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	defer redisClient.Close()

	engine := alerts.NewEngine(cfg.Alerts)

	log.Printf("Replaying %d scenarios through the alert engine...", len(models.Scenarios))
	startTime := time.Now()

	results := make(chan replayResult, len(models.Scenarios))
	var wg sync.WaitGroup
	for _, sc := range models.Scenarios {
		wg.Add(1)
		go func(sc models.Scenario) {
			defer wg.Done()
			replayStart := time.Now()
			found, err := replayScenario(engine, cfg.Export.Dir, sc)
			results <- replayResult{
				Scenario:       sc,
				Alerts:         found,
				Err:            err,
				ProcessingTime: time.Since(replayStart),
			}
		}(sc)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	totalAlerts := 0
	totalErrors := 0
	for result := range results {
		if result.Err != nil {
			log.Printf("❌ %s: %v (%.1fs)", result.Scenario, result.Err, result.ProcessingTime.Seconds())
			totalErrors++
			continue
		}

		for _, a := range result.Alerts {
			metrics.RecordAlert(a.Kind, a.Severity)
		}

		if err := db.StoreAlerts(result.Alerts); err != nil {
			log.Printf("Failed to store alerts for %s: %v", result.Scenario, err)
			totalErrors++
			continue
		}

		published := publishAlerts(redisClient, redisCfg.Stream, result.Alerts)

		totalAlerts += len(result.Alerts)
		log.Printf("✓ %s: %d alerts, %d published to %s (%.1fs)",
			result.Scenario, len(result.Alerts), published, redisCfg.Stream, result.ProcessingTime.Seconds())
	}

	log.Printf("Detection complete in %.1fs: %d alerts, %d errors", time.Since(startTime).Seconds(), totalAlerts, totalErrors)
}

// replayScenario feeds the scenario dataset to the alert engine one sample
// at a time, as the dashboard would during playback. The engine itself
// re-raises a persisting condition on every step, so the replay keeps only
// the onset of each contiguous run per alert kind.
func replayScenario(engine *alerts.Engine, dir string, sc models.Scenario) ([]models.Alert, error) {
	samples, err := export.ReadCSV(export.FilePath(dir, sc))
	if err != nil {
		return nil, err
	}

	var found []models.Alert
	active := make(map[string]bool)

	for i := 1; i <= len(samples); i++ {
		raised := engine.Evaluate(samples[:i])

		seen := make(map[string]bool, len(raised))
		for _, a := range raised {
			seen[a.Kind] = true
			if !active[a.Kind] {
				found = append(found, a)
			}
		}
		active = seen
	}

	return found, nil
}

// publishAlerts serializes each alert and publishes it to the Redis stream
// for downstream notification consumers.
func publishAlerts(redisClient *redis.Client, stream string, alertList []models.Alert) int {
	published := 0
	for _, a := range alertList {
		data, err := json.Marshal(a)
		if err != nil {
			log.Printf("Failed to serialize alert %s: %v", a.Kind, err)
			continue
		}

		err = redisClient.XAdd(context.Background(), &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{"data": string(data)},
		}).Err()
		if err != nil {
			log.Printf("Failed to publish alert to Redis: %v", err)
			continue
		}
		published++
	}
	return published
}
