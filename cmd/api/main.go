package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mtsk-dev/streamgate/internal/api/handler"
	"github.com/mtsk-dev/streamgate/internal/api/middleware"
	"github.com/mtsk-dev/streamgate/internal/config"
	"github.com/mtsk-dev/streamgate/internal/domain/repository"
	"github.com/mtsk-dev/streamgate/internal/hls"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/cache"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/postgres"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/queue"
	"github.com/mtsk-dev/streamgate/internal/infrastructure/storage"
	"github.com/mtsk-dev/streamgate/internal/probe"
	"github.com/mtsk-dev/streamgate/internal/transcoder"
	"github.com/mtsk-dev/streamgate/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	for _, dir := range []string{cfg.Streaming.HLSOutputDir, cfg.Media.ThumbnailsDir, cfg.Media.PostersDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pgClient.Close()
	mediaRepo := postgres.NewMediaRepository(pgClient.Pool())

	var probeCache cache.MetadataCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		probeCache = cache.NewRedisMetadataCache(redisClient)
	}

	var mirror repository.ObjectStorage
	if cfg.MinIO.Enabled {
		minioClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to minio: %w", err)
		}
		mirror = minioClient
	}

	var events repository.EventPublisher
	if cfg.RabbitMQ.Enabled {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer queueClient.Close()
		events = queueClient
	}

	store := hls.NewStore(cfg.Streaming.HLSOutputDir)

	ffmpegCfg := transcoder.DefaultFFmpegConfig()
	ffmpegCfg.FFmpegPath = cfg.Streaming.FFmpegPath
	ffmpegCfg.SegmentSeconds = cfg.Streaming.SegmentSeconds

	streamSvc := usecase.NewStreamService(
		store,
		transcoder.NewFFmpegTranscoder(ffmpegCfg),
		mediaRepo,
		events,
		mirror,
		usecase.StreamServiceConfig{
			MaxConcurrentStreams: cfg.Streaming.MaxConcurrentStreams,
			IdleTTL:              cfg.Streaming.IdleTTL,
			URLPrefix:            "/v1/streams",
		},
	)

	prober := probe.New(probe.Config{
		FFprobePath:   cfg.Media.FFprobePath,
		FFmpegPath:    cfg.Streaming.FFmpegPath,
		ThumbnailsDir: cfg.Media.ThumbnailsDir,
		PostersDir:    cfg.Media.PostersDir,
	})

	metadataSvc := usecase.NewMetadataService(mediaRepo, prober, probeCache, usecase.MetadataServiceConfig{
		CacheTTL: cfg.Media.ProbeCacheTTL,
	})

	r := setupRouter(logger, streamSvc, metadataSvc, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.Int("max_concurrent_streams", cfg.Streaming.MaxConcurrentStreams),
			slog.String("hls_output_dir", cfg.Streaming.HLSOutputDir),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(
	logger *slog.Logger,
	streamSvc usecase.StreamService,
	metadataSvc usecase.MetadataService,
	store *hls.Store,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	streamHandler := handler.NewStreamHandler(streamSvc, store)
	mediaHandler := handler.NewMediaHandler(metadataSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/streams", func(r chi.Router) {
			r.Get("/stats", streamHandler.Stats)
			r.Post("/{mediaID}/{quality}/start", streamHandler.Start)
			r.Delete("/{mediaID}/{quality}", streamHandler.Stop)
			r.Get("/{mediaID}/{quality}/playlist.m3u8", streamHandler.Playlist)
			r.Get("/{mediaID}/{quality}/{segment}", streamHandler.Segment)
		})
		r.Route("/media", func(r chi.Router) {
			r.Get("/{mediaID}/metadata", mediaHandler.Metadata)
			r.Post("/{mediaID}/thumbnail", mediaHandler.Thumbnail)
			r.Post("/{mediaID}/thumbnails", mediaHandler.Thumbnails)
			r.Post("/{mediaID}/poster", mediaHandler.Poster)
		})
	})

	return r
}
