package orchestrator_application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	db "github.com/ERRORIK404/Expression_Calculator/database"
	"github.com/ERRORIK404/Expression_Calculator/internal/service"
	conf "github.com/ERRORIK404/Expression_Calculator/pkg/config"
	"github.com/ERRORIK404/Expression_Calculator/pkg/history"
	"github.com/ERRORIK404/Expression_Calculator/pkg/logger"
)

// Как часто монитор пишет в лог размер очереди
var monitorInterval = 5 * time.Second

// NewService builds the calculation service described by cfg. The returned
// close function releases the history store.
func NewService(cfg *conf.Config, log zerolog.Logger) (*service.Service, func() error, error) {
	var (
		store     history.Store
		closeFunc = func() error { return nil }
	)
	if cfg.DatabasePath == "" {
		store = history.NewMemoryStore()
		log.Info().Msg("history kept in memory")
	} else {
		sqlStore, err := db.NewHistoryStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history database: %w", err)
		}
		store, closeFunc = sqlStore, sqlStore.Close
		log.Info().Str("path", cfg.DatabasePath).Msg("history kept in sqlite")
	}

	opts := []service.Option{
		service.WithMaxDepth(cfg.MaxDepth),
		service.WithTimings(service.Timings{
			Addition:       cfg.TimeAddition,
			Subtraction:    cfg.TimeSubtraction,
			Multiplication: cfg.TimeMultiplication,
			Division:       cfg.TimeDivision,
		}),
	}
	if cfg.EvaluationMode == conf.ModeAsync {
		opts = append(opts, service.WithAsync(cfg.ComputingPower, cfg.QueueSize))
	}

	svc, err := service.New(store, logger.Component(log, "service"), opts...)
	if err != nil {
		_ = closeFunc()
		return nil, nil, err
	}
	return svc, closeFunc, nil
}

// RunServer starts the HTTP and gRPC APIs and blocks until ctx is cancelled
// or one of them fails.
func RunServer(ctx context.Context, cfg *conf.Config, log zerolog.Logger) error {
	svc, closeStore, err := NewService(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("failed to close history store")
		}
	}()

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		httpLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	return Serve(ctx, svc, httpLis, grpcLis, cfg.ShutdownTimeout, log)
}

// Serve runs both APIs and the queue monitor on the given listeners. When ctx
// is done the servers and the service are shut down within shutdownTimeout.
func Serve(ctx context.Context, svc *service.Service, httpLis, grpcLis net.Listener, shutdownTimeout time.Duration, log zerolog.Logger) error {
	httpServer := &http.Server{
		Handler:           NewHTTPHandler(svc, logger.Component(log, "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := NewGRPCServer(svc, logger.Component(log, "grpc"))

	svc.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpLis.Addr().String()).Msg("http server listening")
		if err := httpServer.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", grpcLis.Addr().String()).Msg("grpc server listening")
		if err := grpcServer.Serve(grpcLis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		svc.Monitor(gctx, monitorInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		stopGRPC(shutdownCtx, grpcServer)
		if err := svc.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	log.Info().Err(err).Msg("orchestrator stopped")
	return err
}

// stopGRPC waits for in-flight RPCs until ctx is done, then closes them.
func stopGRPC(ctx context.Context, s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
		<-done
	}
}
