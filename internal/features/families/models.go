// Package families управляет семьями и их участниками: создание, вступление,
// счётчики выносов мусора, админ-права.
// models.go описывает структуры данных для таблиц families и members.
package families

import "fmt"

// Family представляет семью в базе данных.
type Family struct {
	ID           int64   `db:"id"`            // Автоинкрементный ID
	Name         string  `db:"name"`          // Уникальное название семьи
	PasswordHash *string `db:"password_hash"` // Хеш пароля (nil = вход без пароля)
}

// Member представляет участника семьи.
// Один пользователь Telegram может иметь не больше одной записи на семью.
type Member struct {
	ID         int64  `db:"id"`          // Автоинкрементный ID записи
	FamilyID   int64  `db:"family_id"`   // Семья, к которой относится запись
	TelegramID int64  `db:"telegram_id"` // Telegram user ID
	Username   string `db:"username"`    // Отображаемое имя (может быть пустым)
	Count      int    `db:"count"`       // Сколько раз вынес мусор
	IsAdmin    bool   `db:"is_admin"`    // Флаг администратора семьи
}

// DisplayName возвращает отображаемое имя участника.
// Если имя не сохранилось — показываем Telegram ID.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return fmt.Sprintf("id%d", m.TelegramID)
}
