// Package main runs the Calculator gRPC service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dmgcalc/internal/calcserver"
	"github.com/cory-johannsen/dmgcalc/internal/config"
	"github.com/cory-johannsen/dmgcalc/internal/engine"
	"github.com/cory-johannsen/dmgcalc/internal/observability"
	"github.com/cory-johannsen/dmgcalc/internal/server"
	"github.com/cory-johannsen/dmgcalc/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	useStore := flag.Bool("store", true, "connect to PostgreSQL so requests may name stored profiles")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "calcserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting calculator server", zap.String("grpc_addr", cfg.CalcServer.Addr()))

	eng, err := engine.Load(cfg, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger, cfg.CalcServer.ShutdownTimeout)

	var store calcserver.ProfileStore
	if *useStore {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		store = postgres.NewProfileRepository(pool.DB())

		stopHealth := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stopHealth:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func(context.Context) {
				close(stopHealth)
				pool.Close()
			},
		})
	}

	svc := calcserver.NewService(eng.Evaluator, eng.Deps, store, logger)
	grpcServer := calcserver.NewServer(svc, logger)

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.CalcServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.CalcServer.Addr(), err)
			}
			logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: func(ctx context.Context) {
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("graceful stop timed out, forcing")
				grpcServer.Stop()
			}
		},
	})

	logger.Info("calculator server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.CalcServer.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
