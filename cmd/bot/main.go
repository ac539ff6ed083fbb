package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/telebot.v4"

	"voicefx-bot/internal/config"
	"voicefx-bot/internal/handler"
	"voicefx-bot/internal/logging"
	"voicefx-bot/internal/retry"
	"voicefx-bot/internal/session"
	"voicefx-bot/internal/webapp"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return 1
	}

	// Validate configuration: a missing token or incomplete remote
	// credentials never start a half-working bot.
	if err := cfg.Validate(); err != nil {
		log.Errorf("Configuration error: %v", err)
		return 1
	}

	// Initialize logging
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Output)
	if err != nil {
		log.Errorf("Failed to initialize logging: %v", err)
		return 1
	}
	logger.Info("Starting Voice Effects Bot")

	// Create session store
	store, err := session.NewStore(session.Options{
		Type:      cfg.Storage.Type,
		FilePath:  cfg.Storage.FilePath,
		RedisAddr: cfg.Storage.RedisAddr,
	})
	if err != nil {
		logger.Errorf("Failed to create session store: %v", err)
		return 1
	}
	defer store.Close()

	// Create Telegram bot
	botSettings := telebot.Settings{
		Token:     cfg.Telegram.Token,
		Poller:    &telebot.LongPoller{Timeout: time.Duration(cfg.Telegram.PollingTimeout) * time.Second},
		Verbose:   cfg.Logging.Level == "debug",
		ParseMode: telebot.ModeDefault,
	}

	tgBot, err := telebot.NewBot(botSettings)
	if err != nil {
		logger.Errorf("Failed to create Telegram bot: %v", err)
		return 1
	}

	logger.Infof("Telegram bot authorized as @%s", tgBot.Me.Username)

	// Acquire the update stream before registering handlers. A previous
	// instance can hold it until its long poll expires, so conflicts are
	// retried with linear backoff before giving up.
	if err := acquireUpdateStream(tgBot, cfg); err != nil {
		logger.Errorf("Failed to acquire update stream: %v", err)
		return 1
	}

	// Create bot handler
	botHandler, err := handler.NewBot(cfg, store)
	if err != nil {
		logger.Errorf("Failed to create bot handler: %v", err)
		return 1
	}
	if err := botHandler.SetTelegramBot(tgBot); err != nil {
		logger.Errorf("Failed to wire bot handler: %v", err)
		return 1
	}
	botHandler.Start()

	// Start the companion mini-app API if enabled
	var miniApp *webapp.Server
	if cfg.WebApp.Enabled {
		miniApp = webapp.New(cfg.WebApp.ListenAddr)
		go func() {
			if err := miniApp.Start(); err != nil {
				logger.Errorf("Mini-app API failed: %v", err)
			}
		}()
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bot is now running. Press Ctrl+C to exit.")

	// Start the bot in a goroutine
	go func() {
		tgBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Infof("Received signal %v, shutting down...", sig)

	// Stop accepting updates, then let in-flight transform jobs finish.
	tgBot.Stop()
	botHandler.Stop()

	if miniApp != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := miniApp.Stop(shutdownCtx); err != nil {
			logger.Warnf("Mini-app API shutdown: %v", err)
		}
		cancel()
	}

	logger.Info("Bot shutdown complete")
	return 0
}

// acquireUpdateStream probes getUpdates once per attempt until no other
// instance holds the stream for this token.
func acquireUpdateStream(tgBot *telebot.Bot, cfg *config.Config) error {
	delay := time.Duration(cfg.Telegram.StartupRetryDelay) * time.Second

	return retry.Do(context.Background(), cfg.Telegram.StartupMaxRetries, retry.Linear(delay), func() error {
		_, err := tgBot.Raw("getUpdates", map[string]int{
			"offset":  -1,
			"limit":   1,
			"timeout": 0,
		})
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			// Anything but a conflict (bad token, network refusal) will
			// not resolve by waiting.
			return retry.Permanent(err)
		}
		log.Warnf("Update stream held by another instance, retrying: %v", err)
		return err
	})
}

// isConflict reports whether err is the Bot API 409 returned while another
// process is still polling.
func isConflict(err error) bool {
	var apiErr *telebot.Error
	return errors.As(err, &apiErr) && apiErr.Code == 409
}
