package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	blockchain "daomerge/blockchain/client"
	"daomerge/config"
	core "daomerge/ingestion/service/core"
	grpchandler "daomerge/ingestion/service/grpc"
	httphandler "daomerge/ingestion/service/http"
	"daomerge/internal/codec"
	"daomerge/internal/github"
	"daomerge/internal/ledger"
	"daomerge/internal/messaging/producer"
	"daomerge/internal/models"
	worker "daomerge/processing"
	"daomerge/processing/notify"
	"daomerge/processing/orchestrator"
)

func parseDuration(logger *log.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Printf("Warning: Invalid %s '%s', using default %s", name, value, fallback)
		return fallback
	}
	return d
}

func runAgent(opts *rootOptions) error {
	logger := log.New(os.Stdout, "[AGENT] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting DAO merge agent...")

	// 1. Load configuration. Any configuration error is fatal here.
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load agent configuration: %w", err)
	}
	retryDelay := parseDuration(logger, "agent.retry_delay", cfg.Agent.RetryDelay, 5*time.Second)
	drainTimeout := parseDuration(logger, "agent.drain_timeout", cfg.Agent.DrainTimeout, 15*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize dependencies
	commitCodec, err := codec.New(cfg.Codec.Scheme, cfg.Codec.Key)
	if err != nil {
		return &config.ConfigurationError{Field: config.EnvEncryptionKey, Reason: err.Error()}
	}

	logger.Printf("Initializing %s merge ledger...", cfg.Ledger.Backend)
	mergeLedger, err := ledger.New(ctx, cfg.Ledger, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize merge ledger: %w", err)
	}
	defer mergeLedger.Close()

	gh, err := github.NewClient(github.Config{
		BaseURL:   cfg.GitHub.BaseURL,
		Token:     cfg.GitHub.Token,
		UserAgent: cfg.GitHub.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return &config.ConfigurationError{Field: config.EnvGitHubToken, Reason: err.Error()}
	}

	reporterOpts := notify.Options{DAOName: cfg.Reporter.DAOName, DAOURL: cfg.Reporter.DAOURL}
	if cfg.OutcomeStream.Enabled() {
		logger.Println("Initializing outcome stream producer...")
		outcomes, err := producer.NewKafkaProducer(cfg.OutcomeStream, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize outcome stream producer: %w", err)
		}
		defer outcomes.Close()
		reporterOpts.Publisher = outcomes
	}
	reporter := notify.NewReporter(gh, reporterOpts, logger)

	orch := orchestrator.New(gh, commitCodec, mergeLedger, orchestrator.NewSerializer(), reporter, cfg.GitHub.MergeMethod, logger)

	logger.Printf("Initializing %s event source...", cfg.Blockchain.Source)
	source, err := blockchain.NewEventSource(&cfg.Blockchain, retryDelay, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event source: %w", err)
	}
	defer source.Close()

	var wg sync.WaitGroup

	// 3. [Conditional startup] hash endpoint
	var httpServer *http.Server
	if cfg.HashService.Enabled {
		hashService := core.NewService(gh, commitCodec, logger)
		httpServer = &http.Server{
			Addr:           cfg.HashService.ListenAddr,
			Handler:        httphandler.NewRouter(httphandler.NewCommitHandler(hashService, logger), cfg.HashService.RateLimit),
			ReadTimeout:    cfg.HashService.HttpServer.ReadTimeout,
			WriteTimeout:   cfg.HashService.HttpServer.WriteTimeout,
			IdleTimeout:    cfg.HashService.HttpServer.IdleTimeout,
			MaxHeaderBytes: cfg.HashService.HttpServer.MaxHeaderBytes,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("Hash endpoint listening on %s", cfg.HashService.ListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Hash endpoint failed: %v", err)
			}
			logger.Println("Hash endpoint stopped listening.")
		}()
	} else {
		logger.Println("hash_service.enabled is false, skipping hash endpoint startup.")
	}

	// 4. [Conditional startup] gRPC health
	var healthServer *grpchandler.HealthServer
	if cfg.Health.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.Health.GrpcListenAddr)
		if err != nil {
			return fmt.Errorf("unable to listen on gRPC health port %s: %w", cfg.Health.GrpcListenAddr, err)
		}
		healthServer = grpchandler.NewHealthServer(logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := healthServer.Serve(lis); err != nil {
				logger.Printf("gRPC health server failed: %v", err)
			}
		}()
	}

	// 5. Start ingress and worker
	batches := make(chan models.EventBatch, cfg.Agent.BatchBuffer)
	sourceDone := make(chan struct{})
	go func() {
		defer close(sourceDone)
		worker.RunSource(ctx, source, batches, retryDelay, logger)
	}()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.New(orch, logger).Run(ctx, batches)
	}()

	if healthServer != nil {
		healthServer.SetServing(true)
	}
	logger.Println("DAO merge agent started. Press Ctrl+C to stop.")

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Printf("Received shutdown signal: %s, starting graceful shutdown...", sig)
	case <-workerDone:
		logger.Println("Worker exited unexpectedly, shutting down...")
	}
	cancel()
	if healthServer != nil {
		healthServer.SetServing(false)
	}

	logger.Println("Waiting for the in-flight merge to finish...")
	<-workerDone
	<-sourceDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer shutdownCancel()

	logger.Println("Flushing pending pull request comments...")
	if err := reporter.Wait(shutdownCtx); err != nil {
		logger.Printf("Pending comments were not flushed: %v", err)
	}

	if httpServer != nil {
		logger.Println("Shutting down hash endpoint...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Hash endpoint shutdown failed: %v", err)
		}
	}
	if healthServer != nil {
		healthServer.Stop()
	}

	wg.Wait()
	logger.Println("DAO merge agent shut down gracefully.")
	return nil
}
