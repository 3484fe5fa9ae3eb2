/**
 * @description
 * This is the main entry point for the notification worker. It consumes
 * transfer notification events from Kafka, delivers push notifications through
 * the push gateway, and drives the retry-topic pipeline: failed deliveries are
 * rerouted through delayed retry topics, exhausted messages land on the
 * dead-letter topic, and a dead-letter handler republishes them for recovery.
 *
 * @dependencies
 * - log, os/signal: Standard Go libraries for logging and lifecycle.
 * - github.com/redis/go-redis/v9: Optional duplicate-delivery guard.
 * - internal/config, internal/events, internal/notifier: Internal packages.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ssokpay/transfer-service/internal/config"
	"github.com/ssokpay/transfer-service/internal/events"
	"github.com/ssokpay/transfer-service/internal/notifier"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting notification worker\" topic=%s group=%s", cfg.NotificationTopic, cfg.NotificationConsumerGroup)

	// Redis backs the best-effort duplicate-delivery guard. The worker still
	// runs without it; redeliveries then produce duplicate pushes.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; duplicate suppression disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; duplicate suppression disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; duplicate suppression disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	pushClient := notifier.NewPushClient(cfg.PushGatewayURL, cfg.PushGatewayAPIKey, 10*time.Second)
	worker := notifier.NewWorker(
		pushClient,
		redisClient,
		cfg.NotificationDedupPrefix,
		time.Duration(cfg.NotificationDedupTTLMin)*time.Minute,
	)

	schedule := events.Schedule{
		PrimaryTopic:    cfg.NotificationTopic,
		RetryTopics:     cfg.RetryTopics(),
		RetryDelays:     cfg.RetryDelays(),
		DeadLetterTopic: cfg.NotificationDeadLetterTopic,
		RecoveryTopic:   cfg.NotificationRecoveryTopic,
	}

	pipeline, err := events.NewPipeline(cfg.Brokers(), cfg.NotificationConsumerGroup, schedule, worker.Handle)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"pipeline init failed\" err=%v", err)
	}

	deadLetter, err := events.NewDeadLetterHandler(cfg.Brokers(), cfg.DeadLetterConsumerGroup, schedule)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"dead letter handler init failed\" err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pipeline.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		deadLetter.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=bootstrap msg=\"shutdown started\"")

	cancel()
	wg.Wait()

	log.Println("level=info component=bootstrap msg=\"shutdown complete\"")
}
