// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	adminhandler "gatekeeper/internal/admin/handler"
	"gatekeeper/internal/altaccount"
	"gatekeeper/internal/anonymizer"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/decision"
	decisionhandler "gatekeeper/internal/decision/handler"
	decisionmetrics "gatekeeper/internal/decision/metrics"
	"gatekeeper/internal/decision/ports"
	"gatekeeper/internal/gateway"
	httpapi "gatekeeper/internal/http"
	"gatekeeper/internal/iplist"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/httpserver"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/platform/postgres"
	platformredis "gatekeeper/internal/platform/redis"
	"gatekeeper/internal/record"
	"gatekeeper/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Storage. Postgres is the reference backing store; without a DSN the
	// service falls back to process-local memory, which only suits local
	// development.
	var (
		tokenStore     token.Store
		directiveStore iplist.Store
		recordStore    record.Store
		auditStore     audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(startupCtx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(startupCtx, db); err != nil {
			return err
		}
		tokenStore = token.NewPostgres(db)
		directiveStore = iplist.NewPostgres(db)
		recordStore = record.NewPostgres(db)
		ps, err := audit.NewPostgresStore(db)
		if err != nil {
			return err
		}
		auditStore = ps
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores; tokens will not survive restarts")
		tokenStore = token.NewInMemoryStore()
		directiveStore = iplist.NewInMemoryStore()
		recordStore = record.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	// Redis, when configured, takes over token storage with GETDEL semantics.
	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(startupCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		tokenStore = token.NewRedis(rdb.Client)
		log.Info("token store backed by redis")
	}

	tokens, err := token.NewService(tokenStore)
	if err != nil {
		return err
	}
	directives, err := iplist.NewService(directiveStore)
	if err != nil {
		return err
	}
	alts, err := altaccount.NewService(recordStore, cfg.AltAccountThreshold)
	if err != nil {
		return err
	}

	// Anonymizer detector: exit relays and reverse DNS always on, ASN and
	// reputation signals only when configured.
	relays := anonymizer.NewExitRelayCache(cfg.ExitRelayURL, cfg.ExitRelayTTL, log)
	var detectorOpts []anonymizer.DetectorOption
	if cfg.ASNDatabasePath != "" {
		asnDB, err := anonymizer.OpenASNDatabase(cfg.ASNDatabasePath)
		if err != nil {
			log.Warn("asn database unavailable, signal disabled", "path", cfg.ASNDatabasePath, "error", err.Error())
		} else {
			defer asnDB.Close()
			detectorOpts = append(detectorOpts, anonymizer.WithOrgResolver(asnDB))
		}
	}
	if cfg.ReputationAPIKey != "" {
		detectorOpts = append(detectorOpts,
			anonymizer.WithReputation(anonymizer.NewReputationClient(cfg.ReputationAPIURL, cfg.ReputationAPIKey)))
	}
	detector := anonymizer.NewDetector(relays, net.DefaultResolver, log, detectorOpts...)

	// Chat-platform collaborator. Without an endpoint the logging stand-in
	// keeps local development usable.
	var (
		directory ports.MemberDirectory
		roles     ports.RoleGranter
		moderator ports.Moderator
		profiles  ports.ProfileResolver
	)
	if cfg.GatewayURL != "" {
		client, err := gateway.NewClient(cfg.GatewayURL, cfg.GatewayToken)
		if err != nil {
			return err
		}
		directory, roles, moderator, profiles = client, client, client, client
	} else {
		log.Warn("GATEWAY_URL not set, using logging gateway stand-in")
		stub := gateway.NewLoggingGateway(log, ports.Member{
			AccountCreatedAt: time.Now().AddDate(-1, 0, 0),
		})
		directory, roles, moderator, profiles = stub, stub, stub, stub
	}

	auditOpts := []audit.PublisherOption{}
	if len(cfg.AuditBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.AuditBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("audit events mirrored to kafka", "topic", cfg.AuditTopic)
	}
	auditor, err := audit.NewPublisher(auditStore, log, auditOpts...)
	if err != nil {
		return err
	}

	engine, err := decision.NewService(tokens, directives, detector, alts, recordStore,
		directory, roles, log,
		decision.WithAuditor(auditor),
		decision.WithModerator(moderator),
		decision.WithMetrics(decisionmetrics.New()),
		decision.WithMinAccountAge(cfg.MinAccountAgeDays),
	)
	if err != nil {
		return err
	}

	verifyHandler, err := decisionhandler.New(engine, profiles, log)
	if err != nil {
		return err
	}
	adminHandler := adminhandler.New(directives, tokens, recordStore, cfg.BaseURL, log)

	router := httpapi.NewRouter(httpapi.Deps{
		Verify:          verifyHandler,
		Admin:           adminHandler,
		AdminSigningKey: []byte(cfg.AdminSigningKey),
		Logger:          log,
	})
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting gatekeeper", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
