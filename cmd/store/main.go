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

	"github.com/go-redis/redis/v8"

	"wxinsight/internal/config"
	"wxinsight/internal/database"
	"wxinsight/internal/detector"
	"wxinsight/internal/insights"
	"wxinsight/internal/models"
)

const (
	consumerGroup = "insight_consumers"
	consumerName  = "consumer-1"
	batchSize     = 10
	blockFor      = 5 * time.Second
	retryPending  = time.Minute
)

// reportSink is the write side of the database the consumer needs
type reportSink interface {
	StoreReport(reportID, location string, ts time.Time, values map[string]float64, events []models.Event) error
}

// streamClient is the part of the Redis client the reader uses
type streamClient interface {
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// consumer persists reports read from the stream
type consumer struct {
	sink    reportSink
	history *detector.HistoryChecker
}

// handle stores one stream entry. It returns false when the entry should be
// left unacknowledged for a retry.
func (c *consumer) handle(raw string) bool {
	msg, err := insights.DecodeMessage(raw)
	if err != nil {
		// Malformed entries are acknowledged and dropped
		log.Printf("Failed to decode message: %v", err)
		return true
	}

	loc := msg.Location.Name
	report := msg.Report
	derived := insights.DerivedMetrics(report)

	// Compare against history before the new values join it
	if c.history != nil {
		unusual, err := c.history.Check(loc, derived, report.GeneratedAt)
		if err != nil {
			log.Printf("Warning: history check for %s failed: %v", loc, err)
		}
		for _, u := range unusual {
			log.Printf("Unusual reading at %s: %s (confidence %d)", loc, u.Description, u.Confidence)
		}
	}

	if err := c.sink.StoreReport(report.ID, loc, report.GeneratedAt, derived, report.Events.Events); err != nil {
		log.Printf("Failed to store report %s for %s: %v", report.ID, loc, err)
		return false
	}

	log.Printf("Stored report %s for %s (%.2f, %.2f)", report.ID, loc, msg.Location.Latitude, msg.Location.Longitude)
	return true
}

// reader feeds stream entries to the consumer. Entries the consumer could
// not store stay in the group's pending list and are read again from ID 0
// on startup and every retry interval.
type reader struct {
	client     streamClient
	stream     string
	consumer   *consumer
	block      time.Duration
	retryEvery time.Duration
}

// run reads until ctx is cancelled
func (r *reader) run(ctx context.Context) {
	r.drainPending(ctx)
	lastRetry := time.Now()

	for ctx.Err() == nil {
		if time.Since(lastRetry) >= r.retryEvery {
			r.drainPending(ctx)
			lastRetry = time.Now()
		}

		msgs, err := r.read(ctx, ">", r.block)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("Error reading from Redis: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		r.process(ctx, msgs)
	}
}

// drainPending walks this consumer's unacknowledged entries once, oldest
// first, and returns how many were read
func (r *reader) drainPending(ctx context.Context) int {
	start, seen := "0", 0
	for ctx.Err() == nil {
		msgs, err := r.read(ctx, start, -1)
		if err != nil {
			log.Printf("Error reading pending entries: %v", err)
			return seen
		}
		if len(msgs) == 0 {
			return seen
		}
		r.process(ctx, msgs)
		seen += len(msgs)
		start = msgs[len(msgs)-1].ID
	}
	return seen
}

// read returns the next batch after id. A negative block does not wait.
func (r *reader) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    consumerGroup,
		Consumer: consumerName,
		Streams:  []string{r.stream, id},
		Count:    batchSize,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []redis.XMessage
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
	}
	return msgs, nil
}

func (r *reader) process(ctx context.Context, msgs []redis.XMessage) {
	for _, m := range msgs {
		raw, ok := m.Values[insights.MessageField].(string)
		if !ok {
			log.Printf("Skipping entry %s without %q field", m.ID, insights.MessageField)
			r.ack(ctx, m.ID)
			continue
		}
		if r.consumer.handle(raw) {
			r.ack(ctx, m.ID)
		}
	}
}

func (r *reader) ack(ctx context.Context, id string) {
	if err := r.client.XAck(ctx, r.stream, consumerGroup, id).Err(); err != nil {
		log.Printf("Failed to acknowledge entry %s: %v", id, err)
	}
}

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

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	err = redisClient.XGroupCreateMkStream(context.Background(), redisCfg.Stream, consumerGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Fatalf("Failed to create consumer group: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := &reader{
		client:     redisClient,
		stream:     redisCfg.Stream,
		consumer:   &consumer{sink: db, history: detector.NewHistoryChecker(db)},
		block:      blockFor,
		retryEvery: retryPending,
	}

	log.Println("Store started, reading from Redis stream. Press Ctrl+C to stop...")
	r.run(ctx)
	log.Println("Store service stopped")
}
