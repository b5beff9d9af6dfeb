package main

import (
	"flag"
	"log"

	"wxinsight/internal/alerts"
	"wxinsight/internal/api"
	"wxinsight/internal/config"
	"wxinsight/internal/database"
	"wxinsight/internal/insights"
	"wxinsight/internal/narrative"
	"wxinsight/internal/server"
	"wxinsight/internal/store"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisCfg := cfg.RedisConfig()
	redisClient := config.NewRedisClient(redisCfg)
	defer redisClient.Close()
	kv := store.NewRedisStore(redisClient, redisCfg.KeyPrefix)

	deps := server.Deps{
		Builder:   insights.NewBuilder(),
		Forecasts: api.NewOpenMeteoClient(cfg.Collector.RequestsPerSecond, cfg.Collector.Burst),
		Tracker:   alerts.NewTracker(kv, cfg.Alerts.AckTTL),
		KV:        kv,
	}

	// Event history is optional; without MySQL /events answers 503
	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Printf("Warning: database unavailable, event history disabled: %v", err)
	} else {
		defer db.Close()
		deps.Events = db
	}

	if cfg.AI.URL != "" {
		completion := api.NewCompletionClient(cfg.AI.URL, cfg.AI.Timeout)
		deps.Narrator = narrative.NewGenerator(completion, cfg.AI.Highlights)
		deps.AI = completion
	}

	srv := server.NewServer(deps)

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
