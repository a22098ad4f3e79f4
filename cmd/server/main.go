package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/pathlight/mailbroker/internal/api"
	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/gmail"
	"github.com/pathlight/mailbroker/internal/hunter"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
	"github.com/pathlight/mailbroker/internal/repository/postgres"
	"github.com/pathlight/mailbroker/internal/resolver"
	"github.com/pathlight/mailbroker/internal/service/contacts"
	"github.com/pathlight/mailbroker/internal/service/delivery"
	"github.com/pathlight/mailbroker/internal/service/settings"
	"github.com/pathlight/mailbroker/internal/ses"
	"github.com/pathlight/mailbroker/internal/websearch"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	cancel()

	// Optional Redis for the resolver cache. Missing Redis degrades to
	// uncached lookups, it never blocks startup.
	var cache resolver.Cache
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, resolver cache disabled",
				"addr", cfg.Redis.Addr, "error", err.Error())
			rdb.Close()
		} else {
			cache = resolver.NewRedisCache(rdb, cfg.Resolver.CacheTTL())
			defer rdb.Close()
			logger.Info("resolver cache enabled", "addr", cfg.Redis.Addr)
		}
		cancel()
	}

	// Services
	contactsSvc := contacts.NewService(postgres.NewContactRepo(db))
	settingsSvc := settings.NewService(postgres.NewSettingsRepo(db), settingsBase(cfg))

	// The resolver is rebuilt per request from the effective settings, so
	// API keys stored through PUT /api/settings take effect immediately.
	// The cache is shared across rebuilds.
	newResolver := func(rcfg config.ResolverConfig) *resolver.Service {
		sources := []resolver.Source{
			websearch.NewSource(websearch.NewClient(rcfg), nil),
			hunter.NewSource(hunter.NewClient(rcfg)),
		}
		return resolver.NewService(sources, cache)
	}

	// Transport
	transport, err := buildTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s transport: %v", cfg.Delivery.Transport, err)
	}
	executor := delivery.NewExecutor(transport, cfg.Delivery.SendTimeout())

	handlers := api.NewHandlers(executor, contactsSvc, settingsSvc, cfg.Delivery, cfg.Resolver, newResolver)
	if d, ok := transport.(delivery.SenderDiscoverer); ok {
		handlers.SetSenderDiscoverer(d)
	}

	server := api.NewServer(handlers)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	go func() {
		logger.Info("server listening", "addr", addr, "transport", transport.Name())
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// buildTransport selects the outbound transport from configuration.
func buildTransport(cfg *config.Config) (delivery.Transport, error) {
	switch cfg.Delivery.Transport {
	case "ses":
		return ses.NewTransport(context.Background(), cfg.SES)
	case "gmail", "":
		return gmail.NewClient(cfg.Gmail), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Delivery.Transport)
	}
}

// settingsBase exposes the process-level values the settings API layers
// over, keyed by the environment names users already know.
func settingsBase(cfg *config.Config) map[string]string {
	return map[string]string{
		"BING_API_KEY":   cfg.Resolver.WebSearchKey,
		"PEOPLE_API_KEY": cfg.Resolver.PeopleKey,
		"SENDER_EMAIL":   cfg.Delivery.FromEmail,
		"SENDER_NAME":    cfg.Delivery.FromName,
	}
}
