/**
 * @description
 * This is the main entry point for the transfer-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the account-service gRPC client, the open-banking rail client, the
 * Kafka notification producer, repositories, the core application service, and
 * both the HTTP and gRPC servers. It wires everything together and starts the
 * service.
 *
 * @dependencies
 * - log, net, net/http: Standard Go libraries for logging and serving.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - google.golang.org/grpc: For the transfer query RPC surface.
 * - internal/api, internal/app, internal/config, internal/events, internal/rpc,
 *   internal/store: Internal packages for the service.
 * - pkg/accountclient, pkg/bankclient: Clients for upstream services.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/ssokpay/transfer-service/internal/api"
	"github.com/ssokpay/transfer-service/internal/app"
	"github.com/ssokpay/transfer-service/internal/config"
	"github.com/ssokpay/transfer-service/internal/events"
	"github.com/ssokpay/transfer-service/internal/rpc"
	"github.com/ssokpay/transfer-service/internal/store"
	"github.com/ssokpay/transfer-service/pkg/accountclient"
	"github.com/ssokpay/transfer-service/pkg/bankclient"
)

func main() {
	// Load a local .env when present; container environments inject variables directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting transfer-service\" port=%s grpc_port=%s", cfg.ServerPort, cfg.GRPCPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the Kafka producer for notification events. A broken broker
	// connection must not prevent transfers, so we degrade to a fallback that
	// only logs the events it drops.
	var producer events.Producer
	kafkaProducer, err := events.NewKafkaProducer(cfg.Brokers(), cfg.NotificationTopic, cfg.NotificationDeadLetterTopic)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"kafka producer unavailable; using fallback\" err=%v", err)
		producer = events.FallbackProducer{}
	} else {
		defer kafkaProducer.Close()
		producer = kafkaProducer
		log.Println("level=info component=bootstrap msg=\"kafka producer connected\"")
	}

	// Initialize the gRPC client for the account-service.
	resolver, err := accountclient.NewClient(cfg.AccountServiceAddr, time.Duration(cfg.AccountResolveTimeoutMS)*time.Millisecond)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"account client init failed\" err=%v", err)
	}
	defer resolver.Close()

	// Initialize the client for the open-banking transfer rail.
	rail := bankclient.NewClient(cfg.OpenBankingBaseURL, cfg.OpenBankingAPIKey, time.Duration(cfg.OpenBankingTimeoutMS)*time.Millisecond)

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	transferService := app.NewService(resolver, rail, repository, producer)

	// Initialize the API handlers.
	transferHandlers := api.NewTransferHandlers(transferService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/", api.TransferRoutes(transferHandlers, cfg.JWTSecret, cfg.InternalAPIKey))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	// Expose the transfer query RPC surface for sibling services.
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("level=fatal component=grpc msg=\"listen failed\" port=%s err=%v", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer()
	rpc.RegisterTransferServer(grpcServer, rpc.NewTransferServer(repository))

	go func() {
		log.Printf("level=info component=grpc msg=\"server listening\" addr=%s", grpcListener.Addr())
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatalf("level=fatal component=grpc msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}
	grpcServer.GracefulStop()

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
