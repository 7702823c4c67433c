// Package families — handlers.go обрабатывает нажатия инлайн-кнопок
// (маршрутизатор команд) и свободный текст (пошаговые диалоги).
//
// Весь свободный текст трактуется только через текущий этап диалога
// пользователя; без активного диалога любой текст получает ответ-заглушку.
// Членство и админ-права каждый раз перечитываются из БД, данные из
// payload кнопки не считаются доверенными.
package families

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/api"
	"serotonyl.ru/trash-bot/internal/common"
	"serotonyl.ru/trash-bot/internal/session"
)

// Registry — операции семейного реестра, нужные обработчикам.
// Реализуется *Service; в тестах подменяется фейком.
type Registry interface {
	CreateFamily(ctx context.Context, name, password string, creatorID int64, creatorName string) (int64, error)
	JoinFamily(ctx context.Context, name, password string, userID int64, username string) error
	FamilyForUser(ctx context.Context, userID int64) (*Family, error)
	RecordTrashOut(ctx context.Context, userID int64) (*Family, error)
	Stats(ctx context.Context, familyID int64) ([]*Member, error)
	Members(ctx context.Context, familyID int64) ([]*Member, error)
	RequireAdmin(ctx context.Context, familyID, userID int64) error
	SetCount(ctx context.Context, callerID, familyID, targetID int64, newCount int) error
	AdjustCount(ctx context.Context, callerID, familyID, targetID int64, delta int) error
	ToggleAdmin(ctx context.Context, callerID, familyID, targetID int64) error
	RemoveMember(ctx context.Context, callerID, familyID, targetID int64) error
	ResetCounts(ctx context.Context, callerID, familyID int64) error
	DeleteFamily(ctx context.Context, callerID, familyID int64) error
}

// Sender отправляет сообщения в Telegram. *tgbotapi.BotAPI реализует его напрямую.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// leastNotifier — напоминание отстающему после выноса.
type leastNotifier interface {
	NotifyLeast(ctx context.Context, familyID int64)
}

// Handler обрабатывает кнопки и текстовые сообщения.
type Handler struct {
	registry Registry
	flows    session.Store
	bot      Sender
	notifier leastNotifier
}

// NewHandler создаёт обработчик.
func NewHandler(registry Registry, flows session.Store, bot Sender, notifier leastNotifier) *Handler {
	return &Handler{
		registry: registry,
		flows:    flows,
		bot:      bot,
		notifier: notifier,
	}
}

// HandleStart отвечает на /start: приветствие и главное меню.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, firstName string) {
	_, err := h.registry.FamilyForUser(ctx, userID)
	isMember := err == nil
	h.sendWithKeyboard(chatID, fmt.Sprintf("Привет, %s! 👋", firstName), MainMenuKeyboard(isMember))
}

// HandleCallback маршрутизирует нажатие инлайн-кнопки.
func (h *Handler) HandleCallback(ctx context.Context, chatID, userID int64, userLabel, data string) {
	cb := ParseCallback(data)

	switch cb.Action {
	case ActionCreateFamily:
		h.flows.Set(userID, &session.State{Flow: session.FlowCreateName})
		h.sendMessage(chatID, "Введите название семьи:")

	case ActionJoinFamily:
		h.flows.Set(userID, &session.State{Flow: session.FlowJoinName})
		h.sendMessage(chatID, "Введите название семьи:")

	case ActionTrashOut:
		h.handleTrashOut(ctx, chatID, userID)

	case ActionStats:
		h.handleStats(ctx, chatID, userID)

	case ActionAdmin:
		if err := h.registry.RequireAdmin(ctx, cb.FamilyID, userID); err != nil {
			h.sendAdminDenied(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Админ-панель:", AdminPanelKeyboard(cb.FamilyID))

	case ActionAdminList:
		if err := h.registry.RequireAdmin(ctx, cb.FamilyID, userID); err != nil {
			h.sendAdminDenied(chatID, err)
			return
		}
		members, err := h.registry.Members(ctx, cb.FamilyID)
		if err != nil {
			h.sendError(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Участники:", MemberListKeyboard(cb.FamilyID, members))

	case ActionAdminMember:
		if err := h.registry.RequireAdmin(ctx, cb.FamilyID, userID); err != nil {
			h.sendAdminDenied(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Действия с участником:", MemberActionsKeyboard(cb.FamilyID, cb.UserID))

	case ActionAdminInc, ActionAdminDec:
		delta := 1
		if cb.Action == ActionAdminDec {
			delta = -1
		}
		if err := h.registry.AdjustCount(ctx, userID, cb.FamilyID, cb.UserID, delta); err != nil {
			h.sendError(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Изменено.", BackToListKeyboard(cb.FamilyID))

	case ActionAdminSet:
		if err := h.registry.RequireAdmin(ctx, cb.FamilyID, userID); err != nil {
			h.sendAdminDenied(chatID, err)
			return
		}
		h.flows.Set(userID, &session.State{
			Flow:         session.FlowAdminSetCount,
			FamilyID:     cb.FamilyID,
			TargetUserID: cb.UserID,
		})
		h.sendMessage(chatID, "Введите новое целое число (>=0):")

	case ActionAdminRemove:
		if err := h.registry.RemoveMember(ctx, userID, cb.FamilyID, cb.UserID); err != nil {
			h.sendError(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Участник удалён.", BackToListKeyboard(cb.FamilyID))

	case ActionAdminToggleAdmin:
		if err := h.registry.ToggleAdmin(ctx, userID, cb.FamilyID, cb.UserID); err != nil {
			h.sendError(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Права изменены.", BackToListKeyboard(cb.FamilyID))

	case ActionAdminReset:
		if err := h.registry.ResetCounts(ctx, userID, cb.FamilyID); err != nil {
			h.sendError(chatID, err)
			return
		}
		h.sendWithKeyboard(chatID, "Счёты сброшены.", AdminPanelKeyboard(cb.FamilyID))

	case ActionAdminDelete:
		if err := h.registry.RequireAdmin(ctx, cb.FamilyID, userID); err != nil {
			h.sendAdminDenied(chatID, err)
			return
		}
		h.flows.Set(userID, &session.State{
			Flow:     session.FlowAdminConfirmDelete,
			FamilyID: cb.FamilyID,
		})
		h.sendMessage(chatID, "Введите DELETE чтобы подтвердить удаление семьи:")

	case ActionBackMain:
		_, err := h.registry.FamilyForUser(ctx, userID)
		h.sendWithKeyboard(chatID, "Главное меню:", MainMenuKeyboard(err == nil))

	default:
		log.WithField("data", data).Warn("Неизвестный callback-токен")
		h.sendMessage(chatID, "Неизвестная операция.")
	}
}

// HandleText обрабатывает свободный текст согласно текущему этапу диалога.
func (h *Handler) HandleText(ctx context.Context, chatID, userID int64, userLabel, text string) {
	text = strings.TrimSpace(text)

	state := h.flows.Get(userID)
	flow := session.FlowNone
	if state != nil {
		flow = state.Flow
	}

	switch flow {
	case session.FlowCreateName:
		h.flows.Set(userID, &session.State{Flow: session.FlowCreatePass, FamilyName: text})
		h.sendMessage(chatID, "Введите пароль для семьи (можно оставить пустым):")

	case session.FlowCreatePass:
		h.finishCreate(ctx, chatID, userID, userLabel, state.FamilyName, text)

	case session.FlowJoinName:
		h.flows.Set(userID, &session.State{Flow: session.FlowJoinPass, FamilyName: text})
		h.sendMessage(chatID, "Введите пароль семьи (если есть) или оставьте пустым:")

	case session.FlowJoinPass:
		h.finishJoin(ctx, chatID, userID, userLabel, state.FamilyName, text)

	case session.FlowAdminSetCount:
		h.finishSetCount(ctx, chatID, userID, state, text)

	case session.FlowAdminConfirmDelete:
		h.finishDelete(ctx, chatID, userID, state, text)

	default:
		_, err := h.registry.FamilyForUser(ctx, userID)
		h.sendWithKeyboard(chatID, "Нераспознанный ввод. Вернись в меню.", MainMenuKeyboard(err == nil))
	}
}

// --- Завершающие шаги диалогов ---

// finishCreate — последний шаг создания семьи: пустой текст = семья без пароля.
// Любая ошибка сбрасывает диалог, чтобы пользователь не застрял.
func (h *Handler) finishCreate(ctx context.Context, chatID, userID int64, userLabel, name, password string) {
	h.flows.Clear(userID)

	_, err := h.registry.CreateFamily(ctx, name, password, userID, userLabel)
	if err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendWithKeyboard(chatID, fmt.Sprintf("Семья '%s' создана. Вы админ.", name), MainMenuKeyboard(true))
}

// finishJoin — последний шаг вступления: проверка пароля и запись членства.
func (h *Handler) finishJoin(ctx context.Context, chatID, userID int64, userLabel, name, password string) {
	h.flows.Clear(userID)

	err := h.registry.JoinFamily(ctx, name, password, userID, userLabel)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrFamilyNotFound):
			h.sendWithKeyboard(chatID, "Семья не найдена", MainMenuKeyboard(false))
		case errors.Is(err, common.ErrWrongPassword):
			h.sendWithKeyboard(chatID, "Неверный пароль", MainMenuKeyboard(false))
		default:
			h.sendError(chatID, err)
		}
		return
	}
	h.sendWithKeyboard(chatID, "Вы успешно присоединились к семье!", MainMenuKeyboard(true))
}

// finishSetCount — ввод нового значения счётчика.
// Некорректное число НЕ сбрасывает диалог: пользователь пробует ещё раз.
func (h *Handler) finishSetCount(ctx context.Context, chatID, userID int64, state *session.State, text string) {
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 {
		h.sendMessage(chatID, "Неверное число. Введите целое >=0.")
		return
	}

	h.flows.Clear(userID)

	if err := h.registry.SetCount(ctx, userID, state.FamilyID, state.TargetUserID, value); err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendWithKeyboard(chatID, "Значение установлено.", MainMenuKeyboard(true))
}

// finishDelete — подтверждение удаления семьи: принимается только литерал DELETE.
func (h *Handler) finishDelete(ctx context.Context, chatID, userID int64, state *session.State, text string) {
	h.flows.Clear(userID)

	if text != "DELETE" {
		h.sendWithKeyboard(chatID, "Подтверждение не пройдено.", MainMenuKeyboard(true))
		return
	}

	if err := h.registry.DeleteFamily(ctx, userID, state.FamilyID); err != nil {
		h.sendError(chatID, err)
		return
	}
	h.sendWithKeyboard(chatID, "Семья удалена.", MainMenuKeyboard(false))
}

// --- Действия участника ---

func (h *Handler) handleTrashOut(ctx context.Context, chatID, userID int64) {
	family, err := h.registry.RecordTrashOut(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotInFamily) {
			h.sendWithKeyboard(chatID, "Вы не в семье.", MainMenuKeyboard(false))
			return
		}
		h.sendError(chatID, err)
		return
	}

	api.TrashOutsTotal.Inc()
	h.sendWithKeyboard(chatID, "✅ Мусор отмечен.", MainMenuKeyboard(true))

	// Напоминаем отстающему; сбой доставки вынос не откатывает
	h.notifier.NotifyLeast(ctx, family.ID)
}

func (h *Handler) handleStats(ctx context.Context, chatID, userID int64) {
	family, err := h.registry.FamilyForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotInFamily) {
			h.sendWithKeyboard(chatID, "Вы не в семье.", MainMenuKeyboard(false))
			return
		}
		h.sendError(chatID, err)
		return
	}

	members, err := h.registry.Stats(ctx, family.ID)
	if err != nil {
		h.sendError(chatID, err)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Статистика семьи:\n")
	for _, m := range members {
		sb.WriteString(fmt.Sprintf("%s: %d\n", m.DisplayName(), m.Count))
	}
	h.sendWithKeyboard(chatID, sb.String(), MainMenuKeyboard(true))
}

// --- Отправка ответов ---

// sendAdminDenied различает «не в этой семье» и «не админ» — сообщения разные.
func (h *Handler) sendAdminDenied(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotAdmin):
		h.sendMessage(chatID, "Только админ может открыть панель.")
	case errors.Is(err, common.ErrNotInFamily):
		h.sendMessage(chatID, "Нет доступа к админ-панели.")
	default:
		h.sendError(chatID, err)
	}
}

// sendError переводит ошибку в ответ пользователю.
// Известные ошибки показываем как есть, внутренние — общей фразой.
func (h *Handler) sendError(chatID int64, err error) {
	known := []error{
		common.ErrFamilyExists,
		common.ErrFamilyNotFound,
		common.ErrWrongPassword,
		common.ErrNotInFamily,
		common.ErrMemberNotFound,
		common.ErrNotAdmin,
		common.ErrInvalidCount,
	}
	for _, k := range known {
		if errors.Is(err, k) {
			h.sendMessage(chatID, "❌ "+k.Error())
			return
		}
	}
	log.WithError(err).Error("Внутренняя ошибка при обработке запроса")
	h.sendMessage(chatID, "❌ Что-то пошло не так. Попробуйте ещё раз.")
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
