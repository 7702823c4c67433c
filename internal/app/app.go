// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозиторий, сервис, обработчики
// и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/api"
	"serotonyl.ru/trash-bot/internal/bot"
	"serotonyl.ru/trash-bot/internal/config"
	"serotonyl.ru/trash-bot/internal/db/postgres"
	"serotonyl.ru/trash-bot/internal/features/families"
	"serotonyl.ru/trash-bot/internal/jobs"
	"serotonyl.ru/trash-bot/internal/session"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	HTTP      *api.Server
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// Отправка личных сообщений — общая для нотификатора и планировщика
	sendToUser := func(userID int64, text string) error {
		_, err := botAPI.Send(tgbotapi.NewMessage(userID, text))
		return err
	}

	// === 3. Реестр семей ===
	familyRepo := families.NewRepository(pool)
	familyService := families.NewService(familyRepo)
	notifier := families.NewNotifier(familyService, sendToUser)

	// === 4. Состояния диалогов ===
	flows := session.NewMemoryStore(cfg.FlowTTL)

	// === 5. Обработчики ===
	familyHandler := families.NewHandler(familyService, flows, botAPI, notifier)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, familyHandler)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(familyService, sendToUser, cfg.AppTimezone)

	// === 8. Служебный HTTP ===
	httpServer := api.NewServer(cfg.HTTPListenAddr, pool)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		HTTP:      httpServer,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Families},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Families = `
CREATE TABLE IF NOT EXISTS families (
    id SERIAL PRIMARY KEY,
    name TEXT UNIQUE NOT NULL,
    password_hash TEXT
);
CREATE TABLE IF NOT EXISTS members (
    id SERIAL PRIMARY KEY,
    family_id INTEGER REFERENCES families(id) ON DELETE CASCADE,
    telegram_id BIGINT NOT NULL,
    username TEXT,
    count INTEGER NOT NULL DEFAULT 0,
    is_admin BOOLEAN DEFAULT FALSE,
    UNIQUE(family_id, telegram_id)
);
CREATE INDEX IF NOT EXISTS idx_members_telegram ON members(telegram_id);
`
