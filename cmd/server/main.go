package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/config"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/db"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/handler"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/lease"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/metrics"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/middleware"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/repository"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/router"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/scheduler"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/service"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

func main() {
	cfg := config.Load()

	middleware.InitLogger(cfg.LogLevel, "youtube-radar")
	log := middleware.Logger

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// Leases require Redis; refusing to start beats running a radar that
		// can never execute a task.
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	metrics.Register(pool)

	// Repositories
	channelRepo := repository.NewChannelRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	snapshotRepo := repository.NewSnapshotRepo(pool)
	dailyRepo := repository.NewDailyStatRepo(pool)
	taskLogRepo := repository.NewTaskLogRepo(pool)

	// Services
	src := source.NewYouTubeSource(cfg.YouTubeAPIKey)
	leases := lease.NewRedisStore(rdb)
	cache := service.NewReportCache(rdb)

	ingest := service.NewIngestService(channelRepo, videoRepo, snapshotRepo, src, cfg.SyncPageSize, log)
	rollup := service.NewRollupService(videoRepo, snapshotRepo, dailyRepo, cfg.ViewsRule, log)
	runner := service.NewTaskRunner(leases, taskLogRepo, channelRepo, ingest, rollup,
		cfg.TaskLockTTL, cfg.BackfillDays, log)
	channelSvc := service.NewChannelService(channelRepo, dailyRepo, src, cache, log)
	statsSvc := service.NewStatsService(channelRepo, videoRepo, snapshotRepo, taskLogRepo)

	// Scheduler
	sched := scheduler.New(runner, log)
	if cfg.SchedulerEnabled {
		if err := sched.Register(cfg); err != nil {
			log.Fatal().Err(err).Msg("invalid cron configuration")
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Warn().Msg("scheduler disabled, tasks run on manual trigger only")
	}

	// HTTP surface
	app := fiber.New(fiber.Config{
		AppName:      "YouTubeRadar API",
		ServerHeader: "YouTubeRadar",
	})

	router.Setup(app, &router.Handlers{
		Channel: handler.NewChannelHandler(channelSvc),
		Task:    handler.NewTaskHandler(runner, taskLogRepo, leases),
		Stats:   handler.NewStatsHandler(statsSvc),
		Health:  handler.NewHealthHandler(pool, rdb),
	}, cfg.CORSOrigins)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
