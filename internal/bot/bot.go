// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты long polling'ом и раздаёт их обработчикам:
// нажатия кнопок — маршрутизатору callback'ов, текст — пошаговым диалогам.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/api"
	"serotonyl.ru/trash-bot/internal/bot/middleware"
	"serotonyl.ru/trash-bot/internal/config"
	"serotonyl.ru/trash-bot/internal/features/families"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	tgAPI tgAPI
	cfg   *config.Config

	rateLimiter   *middleware.RateLimiter
	familyHandler *families.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// tgAPI — часть *tgbotapi.BotAPI, которую использует цикл бота.
type tgAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(tg tgAPI, cfg *config.Config, familyHandler *families.Handler) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		tgAPI:         tg,
		cfg:           cfg,
		rateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		familyHandler: familyHandler,
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.tgAPI.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.tgAPI.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	api.UpdatesTotal.Inc()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message != nil && update.Message.Text != "" {
		b.handleMessage(ctx, update.Message)
	}
}

// handleCallback обрабатывает нажатие инлайн-кнопки.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	middleware.LogCallback(query)

	if query.From == nil || query.Message == nil {
		return
	}

	// Сначала подтверждаем Telegram получение callback'а — убирает «часики» на кнопке
	if _, err := b.tgAPI.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}

	userID := query.From.ID
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	chatID := query.Message.Chat.ID
	b.familyHandler.HandleCallback(ctx, chatID, userID, userLabel(query.From), query.Data)
}

// handleMessage обрабатывает текстовое сообщение.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	middleware.LogMessage(message)

	if message.From == nil {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			b.familyHandler.HandleStart(ctx, chatID, userID, message.From.FirstName)
		default:
			b.sendMessage(chatID, "Используйте кнопки")
		}
		return
	}

	b.familyHandler.HandleText(ctx, chatID, userID, userLabel(message.From), message.Text)
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tgAPI.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет личное сообщение пользователю (для напоминаний).
func (b *Bot) SendMessageToUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.tgAPI.Send(msg); err != nil {
		return err
	}
	log.WithField("user_id", userID).Debug("Напоминание отправлено")
	return nil
}

// userLabel возвращает отображаемое имя пользователя:
// @username, если он есть, иначе имя.
func userLabel(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}
	return user.FirstName
}
