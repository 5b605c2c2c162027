// Package app initializes all application components.
// app.go is the assembly point: store, Telegram API, account service,
// dialogue controller, bot shell and scheduler, wired in dependency order.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"mockbank.dev/telegram-bot/internal/bot"
	"mockbank.dev/telegram-bot/internal/bot/filters"
	"mockbank.dev/telegram-bot/internal/config"
	"mockbank.dev/telegram-bot/internal/db/postgres"
	"mockbank.dev/telegram-bot/internal/features/account"
	"mockbank.dev/telegram-bot/internal/features/dialog"
	"mockbank.dev/telegram-bot/internal/jobs"
)

// App holds the assembled application.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool // nil with DB_BACKEND=memory
	BotAPI    *tgbotapi.BotAPI
}

// New creates and initializes the application. Initialization order
// matters — later components depend on earlier ones.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Account store ===
	var (
		store account.Store
		pool  *pgxpool.Pool
	)
	switch cfg.DBBackend {
	case "memory":
		log.Warn("DB_BACKEND=memory: account state will not survive a restart")
		store = account.NewMemStore()
	default:
		var err error
		pool, err = postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := runMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		store = account.NewRepository(pool)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Authorized as @%s", botAPI.Self.UserName)

	// === 3. Services and dialogue ===
	accountService := account.NewService(store)
	sessions := dialog.NewSessions()
	controller := dialog.NewController(accountService, sessions, botAPI)

	// === 4. Transport shell ===
	chatFilter := filters.NewChatFilter(botAPI)
	b := bot.New(botAPI, cfg, controller, chatFilter)

	// === 5. Background jobs ===
	scheduler := jobs.NewScheduler(sessions, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations applies the embedded SQL migrations in order.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		log.Infof("Migration %d applied", m.version)
	}
	return nil
}

// SQL migrations are embedded in the binary to keep deploys to a single
// artifact.

var migration001Accounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    last_transaction JSONB,
    payment_methods JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts(user_id);
`
