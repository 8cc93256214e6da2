package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/database"
	"github.com/darkus007/FlatScrapper/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	token := cfg.BotToken()
	if token == "" {
		logger.Fatal("Telegram bot token is not configured")
	}

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	client := telegram.NewClient(token, cfg.Telegram.PollTimeout, logger)
	commands := telegram.NewCommands(db, cfg.Telegram.ExportDir)
	bot := telegram.NewBot(client, commands, cfg.Telegram.AccessIDs, cfg.Telegram.PollTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil {
		logger.WithError(err).Error("Telegram bot stopped")
	}
}
