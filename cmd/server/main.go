package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	artifacthandler "notaria/internal/artifact/handler"
	artifactservice "notaria/internal/artifact/service"
	artifactstore "notaria/internal/artifact/store"
	certifierhandler "notaria/internal/certifier/handler"
	certifierservice "notaria/internal/certifier/service"
	dochandler "notaria/internal/document/handler"
	docmetrics "notaria/internal/document/metrics"
	"notaria/internal/document/policy"
	docservice "notaria/internal/document/service"
	docstore "notaria/internal/document/store"
	httpapi "notaria/internal/http"
	jwttoken "notaria/internal/jwt_token"
	"notaria/internal/notification"
	"notaria/internal/platform/config"
	"notaria/internal/platform/httpserver"
	"notaria/internal/platform/kafka"
	"notaria/internal/platform/logger"
	"notaria/internal/platform/metrics"
	"notaria/internal/platform/postgres"
	"notaria/internal/platform/redis"
	"notaria/internal/signature/embed"
	sighandler "notaria/internal/signature/handler"
	sigmetrics "notaria/internal/signature/metrics"
	sigservice "notaria/internal/signature/service"
	templatecache "notaria/internal/template/cache"
	templatehandler "notaria/internal/template/handler"
	templateservice "notaria/internal/template/service"
	templatestore "notaria/internal/template/store"
	"notaria/pkg/platform/audit"
	"notaria/pkg/platform/audit/publisher"
	auditmemory "notaria/pkg/platform/audit/store/memory"
	auditpostgres "notaria/pkg/platform/audit/store/postgres"
)

const shutdownTimeout = 10 * time.Second

// stores groups the persistence backends chosen at startup.
type stores struct {
	documents interface {
		docservice.Store
		docservice.TxRunner
		Ping(ctx context.Context) error
	}
	templates templateservice.Store
	artifacts artifactservice.Store
	audit     audit.Store
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	health := httpapi.NewHealth()

	st, db, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	health.Add("store", st.documents.Ping)

	var templateReader templateservice.Reader = st.templates
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		templateReader = templatecache.New(rdb.Client, st.templates,
			templatecache.WithTTL(cfg.Templates.CacheTTL),
			templatecache.WithLogger(log),
		)
		health.Add("redis", rdb.Health)
		log.Info("template cache enabled", "ttl", cfg.Templates.CacheTTL.String())
	}

	notifier, kc, err := newNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	if kc != nil {
		defer kc.Close()
		health.Add("kafka", func(ctx context.Context) error { return kafka.Health(ctx, kc) })
	}

	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	)
	defer auditPublisher.Close()

	p := policy.Default()
	signatureMetrics := sigmetrics.New()

	artifacts := artifactservice.New(st.artifacts, artifactservice.WithLogger(log))
	documents := docservice.New(st.documents, st.documents, templateReader, p,
		docservice.WithLogger(log),
		docservice.WithMetrics(docmetrics.New()),
		docservice.WithAuditPublisher(auditPublisher),
		docservice.WithNotifier(notifier),
		docservice.WithArtifactRemover(artifacts),
	)
	signatures := sigservice.New(documents, embed.New(), artifacts, p,
		sigservice.WithLogger(log),
		sigservice.WithMetrics(signatureMetrics),
		sigservice.WithAuditPublisher(auditPublisher),
	)
	certifier := certifierservice.New(documents, artifacts, p,
		certifierservice.WithLogger(log),
		certifierservice.WithMetrics(signatureMetrics),
		certifierservice.WithAuditPublisher(auditPublisher),
	)
	templates := templateservice.New(st.templates,
		templateservice.WithReader(templateReader),
		templateservice.WithLogger(log),
		templateservice.WithAuditPublisher(auditPublisher),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	router := httpapi.NewRouter(httpapi.Config{
		Logger:    log,
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Latency:   metrics.New(),
		Health:    health,
		Handlers: []httpapi.Registrar{
			dochandler.New(documents, log),
			templatehandler.New(templates, log),
			sighandler.New(signatures, log),
			certifierhandler.New(certifier, log),
			artifacthandler.New(documents, artifacts, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting notaria", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStores picks Postgres when DATABASE_URL is set and in-memory stores
// otherwise. The returned *sql.DB is nil in memory mode.
func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return &stores{
			documents: docstore.NewInMemoryStore(docstore.WithTxTimeout(cfg.TxTimeout)),
			templates: templatestore.NewInMemoryStore(),
			artifacts: artifactstore.NewInMemoryStore(),
			audit:     auditmemory.NewInMemoryStore(),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db, postgres.Schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return &stores{
		documents: docstore.NewPostgres(db, docstore.WithPostgresTxTimeout(cfg.TxTimeout)),
		templates: templatestore.NewPostgres(db),
		artifacts: artifactstore.NewPostgres(db),
		audit:     auditpostgres.New(db),
	}, db, nil
}

// newNotifier returns a Kafka-backed notifier when brokers are configured and
// a log notifier otherwise.
func newNotifier(ctx context.Context, cfg config.Server, log *slog.Logger) (notification.Notifier, *kgo.Client, error) {
	client, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("KAFKA_BROKERS not set, notifications are only logged")
		return notification.NewLogNotifier(log), nil, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, 3); err != nil {
		log.Warn("could not ensure notification topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	return notification.NewKafkaNotifier(client, cfg.Kafka.Topic, notification.WithLogger(log)), client, nil
}
