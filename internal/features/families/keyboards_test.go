package families

import "testing"

func TestMainMenuKeyboard(t *testing.T) {
	guest := MainMenuKeyboard(false)
	if len(guest.InlineKeyboard) != 2 {
		t.Fatalf("рядов в гостевом меню: %d", len(guest.InlineKeyboard))
	}
	if got := *guest.InlineKeyboard[0][0].CallbackData; got != ActionCreateFamily {
		t.Errorf("первая кнопка гостя: %q", got)
	}

	member := MainMenuKeyboard(true)
	if got := *member.InlineKeyboard[0][0].CallbackData; got != ActionTrashOut {
		t.Errorf("первая кнопка участника: %q", got)
	}
}

func TestLobbyKeyboardAdminRow(t *testing.T) {
	plain := LobbyKeyboard(3, false)
	admin := LobbyKeyboard(3, true)

	if len(admin.InlineKeyboard) != len(plain.InlineKeyboard)+1 {
		t.Fatalf("админ-ряд не добавился: %d vs %d",
			len(admin.InlineKeyboard), len(plain.InlineKeyboard))
	}
	last := admin.InlineKeyboard[len(admin.InlineKeyboard)-1][0]
	if got := *last.CallbackData; got != "admin|3" {
		t.Errorf("токен админ-кнопки: %q", got)
	}
}

func TestMemberListKeyboard(t *testing.T) {
	members := []*Member{
		{TelegramID: 10, Username: "anna", Count: 2, IsAdmin: true},
		{TelegramID: 20, Username: "boris", Count: 5},
	}
	kb := MemberListKeyboard(7, members)

	// Ряд на участника плюс «Назад»
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("рядов в списке: %d", len(kb.InlineKeyboard))
	}
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "admin_member|7|10" {
		t.Errorf("токен участника: %q", got)
	}
	if got := kb.InlineKeyboard[0][0].Text; got != "anna — 2 (админ)" {
		t.Errorf("подпись админа: %q", got)
	}
	if got := kb.InlineKeyboard[1][0].Text; got != "boris — 5" {
		t.Errorf("подпись участника: %q", got)
	}
}
