package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/bondtrack/golang_services/internal/platform/config"
	"github.com/bondtrack/golang_services/internal/platform/logger"
	grpcadapter "github.com/bondtrack/golang_services/internal/reminder_service/adapters/grpc"
	"github.com/bondtrack/golang_services/internal/reminder_service/app"
	"github.com/bondtrack/golang_services/internal/reminder_service/bootstrap"
	httptransport "github.com/bondtrack/golang_services/internal/reminder_service/transport/http"
)

const (
	serviceName     = "reminder-service"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configName := flag.String("config-name", "", "config file name without extension (default config.defaults)")
	flag.Parse()

	cfg, err := config.Load(*configName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel).With("service", serviceName)
	log.Info("Starting service...")

	mainCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(mainCtx, startupTimeout)
	comps, err := bootstrap.Build(startCtx, cfg, log, bootstrap.Options{AppName: serviceName, Migrate: true})
	cancelStart()
	if err != nil {
		log.Error("Failed to initialize service components", "error", err)
		os.Exit(1)
	}
	defer comps.Close()

	worker := app.NewDispatchWorker(comps.Dispatch, cfg.ReminderDispatchInterval, log)
	handler := httptransport.NewReminderHandler(comps.Scheduler, comps.CourtDates, comps.Dispatch, log, validator.New(), cfg.ReminderUpcomingDefaultDays)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httptransport.NewRouter(handler, []byte(cfg.JWTSecret), log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpcadapter.NewServer(log)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		return worker.Run(groupCtx)
	})

	if comps.NATS != nil {
		consumer := app.NewCourtDateEventConsumer(comps.NATS, comps.CourtDates, comps.Scheduler, log)
		g.Go(func() error {
			return consumer.Start(groupCtx)
		})
	}

	g.Go(func() error {
		log.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		log.Info("Initiating HTTP server graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return grpcServer.ListenAndServe(groupCtx, fmt.Sprintf(":%d", cfg.GRPCPort))
	})

	log.Info("Service components initialized and workers started. Service is ready.")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service stopped with error", "error", err)
		comps.Close()
		os.Exit(1)
	}
	log.Info("Service shutdown complete.")
}
