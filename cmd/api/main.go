package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bwbexpress/leadflow-backend/internal/api/rest"
	"github.com/bwbexpress/leadflow-backend/internal/domain/compliance"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/cache"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/config"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/database"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/messaging"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/repository"
	"github.com/bwbexpress/leadflow-backend/internal/infrastructure/telemetry"
	"github.com/bwbexpress/leadflow-backend/internal/service/ingest"
	"github.com/bwbexpress/leadflow-backend/internal/service/outreach"
	"github.com/bwbexpress/leadflow-backend/internal/service/prospect"
	"github.com/bwbexpress/leadflow-backend/internal/service/verification"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	zlog, err := buildZapLogger(cfg.Environment)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, zlog); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, zlog *zap.Logger) error {
	// Lead storage: Postgres when configured, in-process otherwise.
	var (
		leads    lead.Repository
		messages lead.MessageLog
	)
	if cfg.Database.URL != "" {
		pool, err := database.Connect(ctx, cfg.Database, zlog)
		if err != nil {
			return err
		}
		defer pool.Close()
		leads = database.NewLeadRepository(pool)
		messages = database.NewMessageLog(pool)
	} else {
		logger.Warn("no database configured, using in-memory lead store")
		leads = repository.NewMemoryLeadRepository()
		messages = repository.NewMemoryMessageLog()
	}

	resolver := verification.NewResolver(cfg.Verification.DNSTimeout, zlog)
	probe := verification.NewSMTPProbe(resolver, verification.ProbeConfig{
		HELODomain:      cfg.Verification.ProbeHELODomain,
		MailFrom:        cfg.Verification.ProbeMailFrom,
		Port:            cfg.Verification.ProbePort,
		ConnectTimeout:  cfg.Verification.ProbeTimeout,
		ReadTimeout:     cfg.Verification.ProbeReadTimeout,
		ProbesPerSecond: cfg.Verification.ProbesPerSecond,
	}, zlog)
	carrier := verification.NewCarrierClient(
		cfg.Twilio.LookupURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken,
		cfg.Twilio.Timeout, zlog)

	verifierOpts := []verification.Option{
		verification.WithDisposableDomains(cfg.Verification.DisposableDomains),
		verification.WithConfidencePolicy(cfg.Verification.Confidence),
	}
	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		verifierOpts = append(verifierOpts,
			verification.WithCache(cache.NewRedisResultCache(client, zlog), cfg.Verification.CacheTTL))
	}
	verifier := verification.NewService(resolver, probe, carrier, zlog, verifierOpts...)

	guard := compliance.NewGuard(
		cfg.Compliance.QuietStartHour, cfg.Compliance.QuietEndHour,
		cfg.Compliance.DefaultTimezone, zlog)
	renderer := outreach.NewRenderer(outreach.Branding{
		CompanyName:  cfg.Branding.CompanyName,
		AgentName:    cfg.Branding.AgentName,
		CalendarLink: cfg.Branding.CalendarLink,
	})
	smsSender := messaging.NewTwilioSMSSender(
		cfg.Twilio.APIURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken,
		cfg.Twilio.From, cfg.Twilio.Timeout, zlog)
	emailSender := messaging.NewSMTPEmailSender(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password,
		cfg.SMTP.From, zlog)
	orchestrator := outreach.NewOrchestrator(leads, messages, guard, smsSender, emailSender, renderer, zlog)

	prospector := prospect.NewService(
		prospect.NewPlacesClient(cfg.Prospect.GooglePlacesKey, cfg.Prospect.Timeout, zlog),
		prospect.NewYelpClient(cfg.Prospect.YelpKey, cfg.Prospect.Timeout, zlog),
		leads, cfg.Compliance.DefaultTimezone, zlog)
	importer := ingest.NewService(leads, cfg.Compliance.DefaultTimezone, zlog)

	handler := rest.NewHandler(leads, messages, verifier, prospector, importer,
		orchestrator, cfg.Compliance.DefaultTimezone, logger)
	server := rest.NewServer(cfg.Server, rest.NewRouter(handler), logger)

	logger.Info("starting leadflow api",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)
	return server.Run(ctx)
}

func buildZapLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
