package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"conference-plugins/config"
	"conference-plugins/internal/conversion"
	"conference-plugins/internal/cronjobs"
	"conference-plugins/internal/events"
	"conference-plugins/internal/handler"
	"conference-plugins/internal/ravem"
	"conference-plugins/internal/redis"
	"conference-plugins/internal/repository"
	"conference-plugins/internal/server"
	"conference-plugins/internal/services"
	"conference-plugins/internal/storage"
	"conference-plugins/internal/tasks"
	"conference-plugins/pkg/database"
	"conference-plugins/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error(context.Background(), "service stopped with error", zap.Error(err))
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, l *logger.Logger) error {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.InitSchema(ctx, db); err != nil {
		return err
	}

	rdb := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Workers:  cfg.Tasks.Concurrency,
	})
	defer rdb.Close()

	store, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		return err
	}

	cache := redis.NewStatusCache(rdb)
	queue := tasks.NewQueue(redis.NewListQueue(rdb), tasks.QueueConfig{
		Name:        cfg.Tasks.Queue,
		DeadLetter:  cfg.Tasks.DeadLetter,
		Parked:      cfg.Tasks.Parked,
		MaxRequeues: cfg.Tasks.MaxRequeues,
	})

	settings := conversion.Settings{
		ServerURL:       cfg.Conversion.ServerURL,
		ValidExtensions: cfg.Conversion.ValidExtensions,
		CallbackURL:     cfg.Conversion.CallbackURL,
		Secret:          cfg.Conversion.Secret,
		StatusTTL:       cfg.Conversion.StatusTTL,
		RequestTimeout:  cfg.Conversion.RequestTimeout,
	}

	bus := events.NewBus()
	plugin := conversion.NewPlugin(settings, cache, queue, l)
	plugin.Register(bus)

	attachments := services.NewAttachmentService(db, repository.NewAttachmentRepository(db), store, bus, l)
	finisher := conversion.NewFinisher(settings, attachments, cache, l)

	registry := tasks.NewRegistry()
	registry.Register(conversion.TaskSubmitAttachment, conversion.NewSubmitter(settings, attachments, cache, l))
	worker := tasks.NewWorker(queue, registry, tasks.WorkerConfig{
		MaxRetries:  cfg.Tasks.MaxRetries,
		PollTimeout: cfg.Tasks.PollTimeout,
		TaskTimeout: cfg.Tasks.TaskTimeout,
		Concurrency: cfg.Tasks.Concurrency,
	}, l)

	rooms := ravem.NewClient(ravem.Config{
		APIEndpoint: cfg.Ravem.APIEndpoint,
		Username:    cfg.Ravem.Username,
		Password:    cfg.Ravem.Password,
		Prefix:      cfg.Ravem.Prefix,
		Timeout:     cfg.Ravem.Timeout,
	}, l)

	scheduler := cronjobs.New(cronjobs.Config{Enabled: cfg.Cron.Enabled}, l)
	for _, job := range []cronjobs.Job{
		cronjobs.QueueReport(cfg.Cron.QueueReport, queue, l),
		cronjobs.DeadLetterRetry(cfg.Cron.DeadLetterRetry, queue, l),
	} {
		if err := scheduler.Register(job); err != nil {
			return err
		}
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Attachments: handler.NewAttachmentHandler(attachments, bus, plugin, store),
		Conversion:  handler.NewConversionHandler(finisher),
		Rooms:       handler.NewRoomHandler(rooms),
	}, redis.NewRateLimiter(rdb, redis.DefaultRateLimitConfig()), map[string]server.HealthCheck{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		"redis":    cache.Ping,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return scheduler.Run(gctx) })
	return g.Wait()
}
