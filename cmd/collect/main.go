package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"wxinsight/internal/api"
	"wxinsight/internal/config"
	"wxinsight/internal/database"
	"wxinsight/internal/insights"
	"wxinsight/internal/models"
)

const fetchTimeout = 30 * time.Second

// forecastSource is the part of the Open-Meteo client the collector needs
type forecastSource interface {
	GetInsightForecast(ctx context.Context, latitude, longitude float64, days int) (*models.Forecast, error)
}

// publisher hands an encoded report to the stream
type publisher interface {
	Publish(ctx context.Context, payload string) error
}

type redisPublisher struct {
	client *redis.Client
	stream string
}

func (p redisPublisher) Publish(ctx context.Context, payload string) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{insights.MessageField: payload},
	}).Err()
}

// seededLocations lists the locations loaded by the seed command
type seededLocations interface {
	GetAllLocations() ([]models.Location, error)
}

// collector fetches, builds and publishes one report per location
type collector struct {
	source    forecastSource
	builder   *insights.Builder
	publisher publisher
	locations []models.Location
	seeded    seededLocations
	days      int
	workers   int
}

// targets returns the configured locations plus any seeded ones. The seed
// table is read on every round so new rows are picked up without a restart.
func (c *collector) targets() []models.Location {
	if c.seeded == nil {
		return c.locations
	}
	seeded, err := c.seeded.GetAllLocations()
	if err != nil {
		log.Printf("Warning: failed to load seeded locations, using config only: %v", err)
		return c.locations
	}
	return mergeLocations(c.locations, seeded)
}

// mergeLocations appends seeded locations whose names are not configured.
// Names compare case-insensitively and the configured entry wins.
func mergeLocations(configured, seeded []models.Location) []models.Location {
	out := make([]models.Location, 0, len(configured)+len(seeded))
	seen := make(map[string]bool, len(configured)+len(seeded))
	for _, group := range [][]models.Location{configured, seeded} {
		for _, loc := range group {
			key := strings.ToLower(strings.TrimSpace(loc.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, loc)
		}
	}
	return out
}

// run processes every location with at most c.workers in flight. A failing
// location is logged and does not stop the others.
func (c *collector) run(ctx context.Context) (published int) {
	locs := c.targets()
	log.Printf("Collecting reports for %d locations", len(locs))
	results := make([]bool, len(locs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, loc := range locs {
		i, loc := i, loc
		g.Go(func() error {
			if err := c.collect(gCtx, loc); err != nil {
				log.Printf("Failed to collect %s: %v", loc.Name, err)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if ok {
			published++
		}
	}
	log.Printf("✓ Collection completed: %d/%d locations published", published, len(locs))
	return published
}

func (c *collector) collect(ctx context.Context, loc models.Location) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	forecast, err := c.source.GetInsightForecast(ctx, loc.Latitude, loc.Longitude, c.days)
	if err != nil {
		return err
	}

	report, err := c.builder.Build(loc.Name, forecast)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		log.Printf("Warning: %s: %s", loc.Name, w)
	}

	payload, err := insights.EncodeMessage(loc, report)
	if err != nil {
		return err
	}
	if err := c.publisher.Publish(ctx, payload); err != nil {
		return err
	}

	log.Printf("Published report %s for %s (%d events, %d impacts)",
		report.ID, loc.Name, len(report.Events.Events), len(report.Impacts.Impacts))
	return nil
}

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config file")
	once := flag.Bool("once", false, "collect a single round and exit")
	flag.Parse()

	config.LoadEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisCfg := cfg.RedisConfig()
	redisClient := config.NewRedisClient(redisCfg)
	defer redisClient.Close()

	c := &collector{
		source:    api.NewOpenMeteoClient(cfg.Collector.RequestsPerSecond, cfg.Collector.Burst),
		builder:   insights.NewBuilder(),
		publisher: redisPublisher{client: redisClient, stream: redisCfg.Stream},
		locations: cfg.Locations,
		days:      cfg.Collector.ForecastDays,
		workers:   cfg.Collector.Workers,
	}

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Printf("Warning: database unavailable, collecting configured locations only: %v", err)
	} else {
		defer db.Close()
		c.seeded = db
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *once {
		c.run(ctx)
		return
	}

	s := gocron.NewScheduler(time.UTC)
	_, err = s.Every(cfg.Collector.Interval).SingletonMode().Do(func() {
		c.run(ctx)
	})
	if err != nil {
		log.Fatalf("Failed to schedule collection: %v", err)
	}

	s.StartAsync()
	log.Printf("Collector started, every %s. Press Ctrl+C to stop...", cfg.Collector.Interval)

	<-ctx.Done()
	s.Stop()
	log.Println("Collector stopped")
}
