package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/newstype/internal/config"
	"github.com/verte-zerg/newstype/internal/gateway"
	"github.com/verte-zerg/newstype/internal/relay"
	"github.com/verte-zerg/newstype/internal/worldnews"
)

var (
	relayAddr          string
	relayBaseURL       string
	relayEnvFile       string
	relayRedisAddr     string
	relayRedisDB       int
	relayRedisPassword string
	relayCacheTTL      time.Duration
	relayLogLevel      string
	relayTimeout       time.Duration
)

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve news pages to newstype clients",
		Args:  cobra.NoArgs,
		RunE:  runRelayCmd,
	}
	cmd.Flags().StringVar(&relayAddr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&relayBaseURL, "base-url", worldnews.DefaultBaseURL, "World News API base URL")
	cmd.Flags().StringVar(&relayEnvFile, "env-file", ".env", "dotenv file to load before reading "+relay.EnvAPIKey)
	cmd.Flags().StringVar(&relayRedisAddr, "redis-addr", "", "Redis address for the response cache (disabled when empty)")
	cmd.Flags().IntVar(&relayRedisDB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&relayRedisPassword, "redis-password", "", "Redis password")
	cmd.Flags().DurationVar(&relayCacheTTL, "cache-ttl", relay.DefaultCacheTTL, "cache lifetime per category")
	cmd.Flags().StringVar(&relayLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&relayTimeout, "timeout", defaultTimeout, "upstream request timeout")
	return cmd
}

func runRelayCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(relayEnvFile); err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &relayAddr, fileCfg.Relay.Addr)
	applyStringConfig(cmd, "base-url", &relayBaseURL, fileCfg.News.BaseURL)
	applyStringConfig(cmd, "redis-addr", &relayRedisAddr, fileCfg.Relay.RedisAddr)
	applyIntConfig(cmd, "redis-db", &relayRedisDB, fileCfg.Relay.RedisDB)
	applyStringConfig(cmd, "redis-password", &relayRedisPassword, fileCfg.Relay.RedisPassword)
	applyDurationConfig(cmd, "cache-ttl", &relayCacheTTL, fileCfg.Relay.CacheTTL)
	applyStringConfig(cmd, "log-level", &relayLogLevel, fileCfg.Relay.LogLevel)
	applyDurationConfig(cmd, "timeout", &relayTimeout, fileCfg.News.Timeout)

	logger, err := newRelayLogger(relayLogLevel)
	if err != nil {
		return err
	}

	apiKey := strings.TrimSpace(os.Getenv(relay.EnvAPIKey))
	if apiKey == "" && fileCfg.Relay.APIKey != nil {
		apiKey = strings.TrimSpace(*fileCfg.Relay.APIKey)
	}
	if apiKey == "" {
		logger.Warn("no server API key; clients must send their own", "header", gateway.APIKeyHeader)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache relay.Cache
	if relayRedisAddr != "" {
		client, err := relay.DialRedis(ctx, relayRedisAddr, relayRedisDB, relayRedisPassword)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := client.Close(); cerr != nil {
				logger.Error("failed to close redis", "err", cerr)
			}
		}()
		cache = relay.NewRedisCache(client, "")
		logger.Info("response cache enabled", "redis", relayRedisAddr, "ttl", relayCacheTTL)
	}

	srv := relay.New(worldnews.New(relayBaseURL, relayTimeout), relay.Options{
		APIKey:   apiKey,
		Cache:    cache,
		CacheTTL: relayCacheTTL,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx, relayAddr)
}

func newRelayLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "relay",
		Level:           lvl,
	}), nil
}
