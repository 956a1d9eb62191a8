package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"support-bot/bot"
	"support-bot/config"
	"support-bot/handlers"
	"support-bot/health"
	"support-bot/lang"
	"support-bot/logging"
	"support-bot/tickets"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := lang.Load(cfg.MessagesFile); err != nil {
		logger.Warn("failed to load message strings, using defaults", zap.Error(err))
	}

	// The health responder runs for the whole process lifetime, whether or
	// not the Discord connection ever comes up.
	hs := health.NewServer(cfg.Health.Port, logger)
	hs.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if cfg.Discord.Token == "" {
		logger.Error("no Discord token configured (set DISCORD_TOKEN or discord.token); " +
			"serving health checks only")
		<-stop
		shutdownHealth(hs, logger)
		return
	}

	b, err := bot.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}
	if err := b.Start(); err != nil {
		logger.Error("cannot open the Discord session; serving health checks only", zap.Error(err))
		<-stop
		shutdownHealth(hs, logger)
		return
	}
	defer b.Stop()

	b.WaitReady()

	categories := buildCategories(cfg)
	registry := tickets.NewRegistry()
	manager := tickets.NewManager(b.Session, registry, tickets.Config{
		AdminRoles:     cfg.Permissions.AdminRoles,
		Categories:     categories,
		ParentCategory: cfg.Tickets.ParentCategory,
		BotUserID:      b.Session.State.User.ID,
		DeleteDelay:    time.Duration(cfg.Tickets.DeleteDelaySeconds) * time.Second,
	}, logger)

	handlers.New(cfg, manager, categories, logger).Register(b.Session)

	logger.Info("bot is running", zap.String("prefix", cfg.Discord.Prefix))
	<-stop

	logger.Info("shutting down")
	shutdownHealth(hs, logger)
}

// buildCategories overlays the configured role names onto the fixed
// category set.
func buildCategories(cfg *config.Config) []tickets.Category {
	cats := tickets.DefaultCategories()
	for idx := range cats {
		switch cats[idx].Key {
		case "general":
			cats[idx].Roles = cfg.Tickets.GeneralRoles
		case "report":
			cats[idx].Roles = []string{cfg.Tickets.ReportRole}
		case "unban":
			cats[idx].Roles = []string{cfg.Tickets.UnbanRole}
		}
	}
	return cats
}

func shutdownHealth(hs *health.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(ctx); err != nil {
		logger.Warn("health server shutdown failed", zap.Error(err))
	}
}
