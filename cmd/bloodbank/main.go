package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hemolink/bloodbank-service/internal/audit"
	"github.com/hemolink/bloodbank-service/internal/config"
	"github.com/hemolink/bloodbank-service/internal/repository/postgres"
	"github.com/hemolink/bloodbank-service/internal/service"
	myhttp "github.com/hemolink/bloodbank-service/internal/transport/http"
	"github.com/hemolink/bloodbank-service/pkg/logger/sl"
	"github.com/hemolink/bloodbank-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting bloodbank-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	organizerRepo := postgres.NewOrganizerRepository(db.DB(), log)
	pouchRepo := postgres.NewPouchRepository(db.DB(), log)
	transferRepo := postgres.NewTransferRepository(db.DB(), log)

	processors := []audit.Processor{
		&audit.SlogProcessor{Log: log},
		&audit.PostgresProcessor{DB: db.DB()},
	}

	if cfg.Audit.Kafka.Enabled {
		kafkaProc, err := audit.NewKafkaProcessor(cfg.Audit.Kafka.Brokers, cfg.Audit.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("failed to init kafka audit processor: %v", err)
		}
		defer func() {
			if err := kafkaProc.Close(); err != nil {
				log.Error("kafka producer close failed", sl.Err(err))
			}
		}()

		processors = append(processors, kafkaProc)
	}

	auditPool := audit.NewWorkerPool(audit.PoolConfig{
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
		ChannelSize:   cfg.Audit.ChannelSize,
	}, log, processors...)

	auditCtx, auditCancel := context.WithCancel(context.Background())
	auditPool.Start(auditCtx, cfg.Audit.Workers)
	defer func() {
		auditCancel()
		auditPool.Wait()
	}()

	organizerService := service.NewOrganizerService(db.DB(), log, organizerRepo, auditPool)
	pouchService := service.NewPouchService(db.DB(), log, pouchRepo, organizerRepo, auditPool)
	transferService := service.NewTransferService(db.DB(), log, transferRepo, transferRepo, pouchRepo, organizerRepo, auditPool)
	eligibilityService := service.NewEligibilityService(db.DB(), log, pouchRepo, organizerRepo)
	availabilityService := service.NewAvailabilityService(db.DB(), log, pouchRepo, organizerRepo)

	srv := myhttp.NewServer(log, organizerService, pouchService, transferService, eligibilityService, availabilityService)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
