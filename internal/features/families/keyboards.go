// Package families — keyboards.go собирает инлайн-клавиатуры бота.
package families

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MainMenuKeyboard — главное меню.
// Гостю показываем создание/вступление, участнику семьи — кнопки выноса и статистики.
func MainMenuKeyboard(isMember bool) tgbotapi.InlineKeyboardMarkup {
	if !isMember {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Создать семью 👨‍👩‍👧‍👦", ActionCreateFamily),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Присоединиться к семье 🔑", ActionJoinFamily),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Вынес мусор", ActionTrashOut),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика семьи", ActionStats),
		),
	)
}

// LobbyKeyboard — меню семьи. Админу дополнительно показываем вход в админ-панель.
func LobbyKeyboard(familyID int64, isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Вынес мусор", FamilyToken(ActionTrashOut, familyID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика семьи", FamilyToken(ActionStats, familyID)),
		),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Админ-панель", FamilyToken(ActionAdmin, familyID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// AdminPanelKeyboard — админ-панель семьи.
func AdminPanelKeyboard(familyID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Список участников", FamilyToken(ActionAdminList, familyID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сбросить счёт семьи", FamilyToken(ActionAdminReset, familyID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Удалить семью", FamilyToken(ActionAdminDelete, familyID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", ActionBackMain),
		),
	)
}

// MemberListKeyboard — список участников, по кнопке на каждого.
func MemberListKeyboard(familyID int64, members []*Member) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(members)+1)
	for _, m := range members {
		label := fmt.Sprintf("%s — %d", m.DisplayName(), m.Count)
		if m.IsAdmin {
			label += " (админ)"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, MemberToken(ActionAdminMember, familyID, m.TelegramID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", FamilyToken(ActionAdmin, familyID)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// MemberActionsKeyboard — действия над одним участником.
func MemberActionsKeyboard(familyID, userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+1", MemberToken(ActionAdminInc, familyID, userID)),
			tgbotapi.NewInlineKeyboardButtonData("-1", MemberToken(ActionAdminDec, familyID, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Установить...", MemberToken(ActionAdminSet, familyID, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Промо/Демотировать", MemberToken(ActionAdminToggleAdmin, familyID, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Удалить", MemberToken(ActionAdminRemove, familyID, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", FamilyToken(ActionAdminList, familyID)),
		),
	)
}

// BackToListKeyboard — одна кнопка возврата к списку участников.
func BackToListKeyboard(familyID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", FamilyToken(ActionAdminList, familyID)),
		),
	)
}
