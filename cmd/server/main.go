package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"healthcare-booking-api/internal/config"
	"healthcare-booking-api/internal/handler"
	"healthcare-booking-api/internal/metrics"
	"healthcare-booking-api/internal/middleware"
	"healthcare-booking-api/internal/rpc"
	"healthcare-booking-api/internal/scheduling"
	"healthcare-booking-api/internal/store"
)

// backend is what both record stores provide.
type backend interface {
	scheduling.Store
	handler.Accounts
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Healthcare appointment booking API",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if memory, _ := cmd.Flags().GetBool("memory"); memory {
				cfg.StoreBackend = config.BackendMemory
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Bool("memory", false, "Keep all records in memory instead of Postgres")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			ctx := context.Background()
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := store.New(pool).Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", n)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func openBackend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (backend, func(context.Context) error, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn().Msg("using in-memory record store; data is lost on restart")
		return store.NewMemory(), nil, func() {}, nil
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, nil, err
	}
	st := store.New(pool)
	n, err := st.Migrate(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Int("applied", n).Msg("connected to postgres")
	return st, st.Ping, pool.Close, nil
}

func openDirectory(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (scheduling.Directory, func(), error) {
	if cfg.AvailabilityBackend != config.BackendRedis {
		return scheduling.NewMemoryDirectory(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
	return scheduling.NewRedisDirectory(rdb), func() { rdb.Close() }, nil
}

// newEcho builds the HTTP server with its global middleware. Recovery sits
// inside Logger so a panicking request still gets its request line.
func newEcho(logger zerolog.Logger, origins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	return e
}

// wait blocks until ctx is done or a server fails, returning the failure.
func wait(ctx context.Context, errc <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		if err == nil {
			return errors.New("server exited unexpectedly")
		}
		return err
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, ping, closeStore, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dir, closeDir, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDir()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := scheduling.New(st, dir,
		scheduling.WithLogger(logger.With().Str("component", "scheduling").Logger()),
		scheduling.WithMetrics(metrics.New(reg)),
	)

	rl := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst)
	go rl.Run(ctx)

	// HTTP
	e := newEcho(logger, cfg.CORSOrigins)
	h := handler.New(st, svc, handler.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, logger)
	h.Register(e, middleware.RateLimit(rl))
	e.GET("/healthz", handler.Health(ping))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// gRPC
	grpcSrv, health := rpc.NewGRPCServer(svc, rpc.Options{Secret: cfg.JWTSecret, Limiter: rl, Logger: logger})
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("starting grpc server")
		errc <- grpcSrv.Serve(lis)
	}()
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting http server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	serveErr := wait(ctx, errc)
	if serveErr != nil {
		logger.Error().Err(serveErr).Msg("server error")
	}

	logger.Info().Msg("shutting down")
	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	grpcSrv.GracefulStop()
	logger.Info().Msg("server stopped")
	return serveErr
}
