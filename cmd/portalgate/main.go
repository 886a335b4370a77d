package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	portalgate "github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/audit/redisstream"
	"github.com/MrEthical07/portalgate/credentials"
	"github.com/MrEthical07/portalgate/internal/config"
	"github.com/MrEthical07/portalgate/internal/logging"
	"github.com/MrEthical07/portalgate/internal/server"
)

func main() {
	ctx := context.Background()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	for _, w := range engineCfg.Lint() {
		logger.Warn("config lint", slog.String("code", w.Code), slog.String("severity", string(w.Severity)), slog.String("detail", w.Message))
	}

	verifier, err := loadVerifier(cfg, engineCfg.Password, logger)
	if err != nil {
		return err
	}

	builder := portalgate.New().
		WithConfig(engineCfg).
		WithCredentialVerifier(verifier)

	var sinks portalgate.MultiSink
	if cfg.AuditStdout {
		sinks = append(sinks, portalgate.NewJSONWriterSink(os.Stdout))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		sink, err := redisstream.New(rdb, redisstream.Config{Stream: cfg.AuditStream, Logger: logger})
		if err != nil {
			return err
		}
		if err := sink.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup", slog.String("addr", cfg.RedisAddr), slog.Any("error", err))
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) > 0 {
		builder = builder.WithAuditSink(sinks)
	}

	engine, err := builder.Build()
	if err != nil {
		return errors.Join(errors.New("engine build failed"), err)
	}
	defer engine.Close()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.New(engine, server.Options{
		WebRoot:        cfg.WebRoot,
		TrustedProxies: cfg.TrustedProxyList(),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	report := engine.SecurityReport()
	logger.Info("portal configured",
		slog.Bool("production", report.ProductionMode),
		slog.Duration("session_ttl", report.SessionTTL),
		slog.Int("token_bits", report.TokenBits),
		slog.String("sweep", report.SweepStrategy),
		slog.Bool("bind_remote_ip", report.BindRemoteIP),
		slog.Bool("assertions", report.AssertionsEnabled),
		slog.Bool("audit", report.AuditEnabled),
	)

	return srv.Run(ctx, cfg.Addr(), cfg.ShutdownTimeout)
}

func loadVerifier(cfg *config.Config, pw portalgate.PasswordConfig, logger *slog.Logger) (portalgate.CredentialVerifier, error) {
	hasher, err := credentials.NewHasher(credentials.Params{
		Memory:      pw.Memory,
		Time:        pw.Time,
		Parallelism: pw.Parallelism,
		SaltLength:  pw.SaltLength,
		KeyLength:   pw.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	if cfg.CredentialsFile != "" {
		users, err := credentials.LoadFile(cfg.CredentialsFile, hasher)
		if err != nil {
			return nil, err
		}
		logger.Info("credentials loaded", slog.String("file", cfg.CredentialsFile), slog.Int("users", users.Len()))
		return users, nil
	}

	// config.Load already refuses production without a credentials file.
	logger.Warn("no credentials file configured, using development user",
		slog.String("username", credentials.DevUsername))
	return credentials.NewDevStatic(hasher)
}
