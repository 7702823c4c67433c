// Package families — callbacks.go разбирает callback-токены инлайн-кнопок.
// Формат токена: действие и до двух числовых аргументов через "|",
// например "admin_inc|3|123456789".
package families

import (
	"fmt"
	"strconv"
	"strings"
)

// Названия callback-действий
const (
	ActionCreateFamily     = "create_family"
	ActionJoinFamily       = "join_family"
	ActionTrashOut         = "trash_out"
	ActionStats            = "stats"
	ActionAdmin            = "admin"
	ActionAdminList        = "admin_list"
	ActionAdminMember      = "admin_member"
	ActionAdminInc         = "admin_inc"
	ActionAdminDec         = "admin_dec"
	ActionAdminSet         = "admin_set"
	ActionAdminRemove      = "admin_remove"
	ActionAdminToggleAdmin = "admin_toggle_admin"
	ActionAdminReset       = "admin_reset"
	ActionAdminDelete      = "admin_delete"
	ActionBackMain         = "back_main"
)

const callbackSeparator = "|"

// Callback — разобранный токен кнопки.
type Callback struct {
	Action   string // Действие
	FamilyID int64  // ID семьи (0, если не передан)
	UserID   int64  // Telegram ID целевого участника (0, если не передан)
}

// ParseCallback разбирает строку callback-данных.
// Нечисловые аргументы не считаются ошибкой разбора токена целиком:
// возвращается действие с нулевыми аргументами, решение за маршрутизатором.
func ParseCallback(data string) Callback {
	parts := strings.Split(strings.TrimSpace(data), callbackSeparator)
	cb := Callback{Action: parts[0]}
	if len(parts) > 1 {
		cb.FamilyID, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	if len(parts) > 2 {
		cb.UserID, _ = strconv.ParseInt(parts[2], 10, 64)
	}
	return cb
}

// FamilyToken собирает токен вида "действие|familyID".
func FamilyToken(action string, familyID int64) string {
	return fmt.Sprintf("%s%s%d", action, callbackSeparator, familyID)
}

// MemberToken собирает токен вида "действие|familyID|userID".
func MemberToken(action string, familyID, userID int64) string {
	return fmt.Sprintf("%s%s%d%s%d", action, callbackSeparator, familyID, callbackSeparator, userID)
}
