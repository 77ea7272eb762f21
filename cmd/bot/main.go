package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Jinwoo290350/PaiLOCAL/internal/bot"
	"github.com/Jinwoo290350/PaiLOCAL/internal/config"
	"github.com/Jinwoo290350/PaiLOCAL/internal/graceful"
	"github.com/Jinwoo290350/PaiLOCAL/internal/logger"
	"github.com/Jinwoo290350/PaiLOCAL/internal/planner"
	"github.com/Jinwoo290350/PaiLOCAL/internal/repository"
	"github.com/Jinwoo290350/PaiLOCAL/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New("info", false)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

// run owns every resource so that deferred cleanup happens before main exits.
func run(cfg *config.Config, log zerolog.Logger) error {
	if cfg.Bot.Token == "" {
		return errors.New("BOT_TOKEN is not set")
	}

	ctx, cancel := graceful.Context(context.Background(), log)
	defer cancel()

	repo, closeStore, err := repository.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close location store")
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	log.Info().Str("username", api.Self.UserName).Msg("bot started")

	client := planner.New(planner.Config{
		BaseURL:   cfg.Planner.BaseURL,
		Timeout:   cfg.Planner.Timeout,
		ThemesTTL: cfg.Planner.ThemesTTL,
	}, log)
	locations := service.NewLocationService(repo, nil, log)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	b := bot.New(api, client, locations, log)
	b.Run(ctx, updates)

	api.StopReceivingUpdates()
	log.Info().Msg("bot stopped")
	return nil
}
