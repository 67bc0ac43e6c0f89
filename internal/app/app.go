// Package app wires the orchestration core. Construction is explicit: the
// caller builds one App, runs it, and closes it. Nothing here is a global.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"notarius/internal/audit"
	auditmemory "notarius/internal/audit/store/memory"
	auditpostgres "notarius/internal/audit/store/postgres"
	"notarius/internal/consent"
	"notarius/internal/event"
	"notarius/internal/meeting"
	meetingmemory "notarius/internal/meeting/store/memory"
	meetingpostgres "notarius/internal/meeting/store/postgres"
	"notarius/internal/notify"
	"notarius/internal/nudge"
	"notarius/internal/platform/config"
	platformredis "notarius/internal/platform/redis"
	"notarius/internal/queue"
	queuememory "notarius/internal/queue/memory"
	qmetrics "notarius/internal/queue/metrics"
	"notarius/internal/queue/redisq"
	"notarius/internal/redact"
	transporthttp "notarius/internal/transport/http"
	"notarius/internal/webhook"
)

// stores groups the meeting-side persistence the core consumes.
type stores struct {
	meetings  meeting.MeetingStore
	actions   meeting.ActionStore
	decisions meeting.DecisionStore
	briefs    meeting.BriefStore
	consents  meeting.ConsentStore
	audit     audit.Store
}

// App holds every wired component plus the resources to release on Close.
type App struct {
	Handler http.Handler
	Queue   *queue.Queue
	Bus     *event.Bus
	Auditor *audit.Auditor

	logger  *slog.Logger
	closers []func()
}

// New builds the full dependency graph from configuration. Absent
// infrastructure (no redis URL, no postgres DSN, no kafka brokers)
// degrades to the in-process variants so a bare binary still runs.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	registry := prometheus.NewRegistry()

	backend, err := a.queueBackend(cfg)
	if err != nil {
		return nil, err
	}
	st, err := a.buildStores(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	notifier, err := a.buildNotifier(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	bus := event.NewBus(logger)
	engine := consent.NewEngine(st.consents)
	redactor := redact.New(redact.DefaultRules())

	q := queue.New(backend, logger, qmetrics.New(registry), queue.Options{
		Workers:      cfg.Queue.WorkersPerQueue,
		JobTimeout:   cfg.Queue.JobTimeout,
		PollInterval: cfg.Queue.PollInterval,
		BackoffBase:  cfg.Queue.BackoffBase,
		BackoffCap:   cfg.Queue.BackoffCap,
	})

	router := nudge.NewRouter(q, st.actions, st.meetings, st.briefs, engine, notifier, redactor, logger, nudge.Config{
		Window:             cfg.Nudge.Window,
		EscalationSteps:    cfg.Nudge.EscalationSteps,
		EscalationInterval: cfg.Nudge.EscalationInterval,
	})
	router.Subscribe(bus)
	router.RegisterHandlers(q)

	auditor := audit.New(st.audit, st.actions, st.decisions, st.briefs, st.consents, logger,
		audit.WithNudgeCanceler(router))
	auditor.SubscribeAll(bus)

	processor := webhook.NewProcessor(bus, st.consents, st.actions, st.decisions, logger)

	handler := transporthttp.NewHandler(q, auditor, processor,
		cfg.Webhook.Secrets, cfg.OperatorTokenHash, registry, logger)

	a.Handler = handler.Router()
	a.Queue = q
	a.Bus = bus
	a.Auditor = auditor
	return a, nil
}

// Run starts the worker pools and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Queue.Run(ctx, queue.Queues...)
}

// Close releases infrastructure connections in reverse wiring order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *App) queueBackend(cfg config.Config) (queue.Backend, error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if client == nil {
		a.logger.Info("queue backend: in-memory (no redis configured)")
		return queuememory.New(0), nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.logger.Info("queue backend: redis")
	return redisq.New(client, 0), nil
}

func (a *App) buildStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Postgres.DSN == "" {
		a.logger.Info("stores: in-memory (no postgres configured)")
		mem := meetingmemory.New()
		return stores{
			meetings:  mem,
			actions:   mem,
			decisions: mem.Decisions(),
			briefs:    mem.Briefs(),
			consents:  mem.Consents(),
			audit:     auditmemory.New(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, fmt.Errorf("postgres ping: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	db, err := auditpostgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return stores{}, fmt.Errorf("audit store: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	pg := meetingpostgres.New(pool)
	a.logger.Info("stores: postgres")
	return stores{
		meetings:  pg,
		actions:   pg,
		decisions: pg.Decisions(),
		briefs:    pg.Briefs(),
		consents:  pg.Consents(),
		audit:     auditpostgres.New(db),
	}, nil
}

func (a *App) buildNotifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (notify.Notifier, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("notifier: log only (no kafka configured)")
		return notify.NewLogNotifier(logger), nil
	}
	notifier, err := notify.NewKafkaNotifier(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka notifier: %w", err)
	}
	a.closers = append(a.closers, notifier.Close)
	logger.Info("notifier: kafka", "topic", cfg.Kafka.Topic)
	return notifier, nil
}
