// Package bot is the transport shell: it polls Telegram for updates,
// applies the access filter and rate limit, and feeds callback queries
// and text messages to the dialogue controller.
//
// Events for one user are strictly serialized — the dialogue state
// machine assumes each event is processed to completion before the next
// one for the same user starts. Different users proceed in parallel up
// to the global inflight cap.
package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"mockbank.dev/telegram-bot/internal/bot/filters"
	"mockbank.dev/telegram-bot/internal/bot/middleware"
	"mockbank.dev/telegram-bot/internal/config"
	"mockbank.dev/telegram-bot/internal/features/dialog"
)

// Bot ties the Telegram API to the dialogue controller.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	controller  *dialog.Controller
	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	// global parallelism cap across all users
	inflight chan struct{}

	// per-user serialization
	userMu    sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// New creates the bot shell.
func New(api *tgbotapi.BotAPI, cfg *config.Config, controller *dialog.Controller, chatFilter *filters.ChatFilter) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		controller:  controller,
		chatFilter:  chatFilter,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		inflight:    make(chan struct{}, maxInFlight),
		userLocks:   make(map[int64]*sync.Mutex),
	}
}

// Start polls for updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				b.rateLimiter.Close()
				return
			}

			userID, handled := updateUserID(update)
			if !handled {
				continue
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update, uid int64) {
				defer func() { <-b.inflight }()
				defer middleware.RecoverFromPanic()

				// One event at a time per user. The lock is what lets the
				// committer trust amounts validated a few turns earlier.
				lock := b.lockFor(uid)
				lock.Lock()
				defer lock.Unlock()

				b.handleUpdate(ctx, upd)
			}(update, userID)
		}
	}
}

// handleUpdate processes a single update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		query := update.CallbackQuery
		middleware.LogCallback(query)

		if query.From != nil && !b.rateLimiter.Allow(query.From.ID) {
			log.WithField("user_id", query.From.ID).Debug("rate limited")
			return
		}
		b.controller.HandleCallback(ctx, query)
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}

	message := update.Message
	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}
	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	// /start (and /menu) render the main menu; everything else is flow input.
	if message.IsCommand() {
		switch message.Command() {
		case "start", "menu":
			b.controller.SendMainMenu(message.Chat.ID)
		default:
			log.WithField("cmd", message.Command()).Debug("unknown command ignored")
		}
		return
	}

	b.controller.HandleText(ctx, message)
}

// lockFor returns the serialization lock for one user, creating it on
// first contact. Locks are never removed; one mutex per user seen is
// cheaper than the bookkeeping to reap them.
func (b *Bot) lockFor(userID int64) *sync.Mutex {
	b.userMu.Lock()
	defer b.userMu.Unlock()

	lock, ok := b.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.userLocks[userID] = lock
	}
	return lock
}

// updateUserID extracts the acting user from an update. Updates with no
// user (channel posts, edits we ignore) are skipped.
func updateUserID(update tgbotapi.Update) (int64, bool) {
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID, true
	}
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID, true
	}
	return 0, false
}
