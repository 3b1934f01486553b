package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"signupgate/internal/platform/config"
	"signupgate/internal/platform/httpserver"
	"signupgate/internal/platform/logger"
	platformmetrics "signupgate/internal/platform/metrics"
	"signupgate/internal/platform/redis"
	"signupgate/internal/signup/client"
	"signupgate/internal/signup/events"
	"signupgate/internal/signup/handler"
	signupmetrics "signupgate/internal/signup/metrics"
	"signupgate/internal/signup/service"
	"signupgate/internal/signup/store"
	"signupgate/internal/signup/validation"
	id "signupgate/pkg/domain"
)

// main wires the signup front-end: config, backend client, workflow registry,
// event pipeline and HTTP server. Business logic lives in internal/signup.
func main() {
	configPath := flag.String("config", config.PathFromEnv(), "path to YAML config")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && ctx.Err() == nil {
		log.Error("signupgate stopped", logger.Err(err))
		os.Exit(1)
	}
	log.Info("signupgate stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.DefaultRegisterer
	httpMetrics := platformmetrics.New(reg)
	signupMetrics := signupmetrics.New(reg)
	checks := map[string]func(context.Context) error{}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
	}

	var sink events.Publisher = events.NewLogPublisher(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		if err := kafka.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure kafka topic", logger.Err(err))
		}
		sink = kafka
		checks["kafka"] = kafka.Ping
		log.Info("publishing signup events to kafka", "brokers", strings.Join(cfg.Kafka.Brokers, ","), "topic", cfg.Kafka.Topic)
	}
	publisher := events.NewChannelPublisher(1024)
	worker := events.NewWorker(sink, publisher.Inbox(), log)

	backend := client.NewFromConfig(cfg.Backend, log, signupMetrics)
	presenter := handler.Presenter{SignInURL: cfg.Frontend.SignInURL()}
	validator := validation.New()

	var lock service.StepLock = store.NewInMemoryStepLock()
	if redisClient != nil {
		lock = store.NewRedisStepLock(redisClient.Client, redisClient.LockPrefix)
	}
	factory := func(workflowID id.WorkflowID, opts ...service.Option) *service.Workflow {
		return service.New(workflowID, service.Deps{
			Client:    backend,
			Submitter: backend,
			Validator: validator,
			Navigator: presenter,
			Notifier:  presenter,
		}, append([]service.Option{
			service.WithLogger(log),
			service.WithMetrics(signupMetrics),
			service.WithPublisher(publisher),
			service.WithStepLock(lock, cfg.Workflow.StepLockTTL),
		}, opts...)...)
	}

	var workflows handler.WorkflowStore
	var sweeper func(context.Context) error
	if redisClient != nil {
		workflows = store.NewRedisWorkflowStore(redisClient.Client, factory, cfg.Redis.WorkflowPrefix, cfg.Workflow.IdleTTL, log)
		log.Info("sharing workflows and step locks through redis")
	} else {
		memory := store.NewInMemoryWorkflowStore(cfg.Workflow.IdleTTL,
			store.WithMetrics(signupMetrics),
			store.WithLogger(log),
		)
		workflows = memory
		sweeper = func(ctx context.Context) error { return memory.RunSweeper(ctx, cfg.Workflow.SweepInterval) }
		log.Info("keeping workflows in memory, run a single instance or route each workflow to one instance")
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.HealthHandler(checks))
	handler.New(workflows, factory, log, httpMetrics).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)
	log.Info("starting signupgate", "addr", cfg.Server.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout) })
	if sweeper != nil {
		g.Go(func() error { return sweeper(gctx) })
	}
	g.Go(func() error { return worker.Run(gctx) })
	return g.Wait()
}
