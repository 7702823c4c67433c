package families

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"serotonyl.ru/trash-bot/internal/common"
	"serotonyl.ru/trash-bot/internal/session"
)

// --- Фейки ---

type sentMessage struct {
	chatID int64
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

// fakeSender записывает отправленные сообщения вместо похода в Telegram.
type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	sm := sentMessage{chatID: msg.ChatID, text: msg.Text}
	if mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
		sm.markup = &mk
	}
	f.sent = append(f.sent, sm)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("бот ничего не отправил")
	}
	return f.sent[len(f.sent)-1]
}

type setCall struct {
	callerID, familyID, targetID int64
	newCount                     int
}

type adjustCall struct {
	callerID, familyID, targetID int64
	delta                        int
}

// fakeRegistry — управляемая реализация Registry для тестов диалогов.
type fakeRegistry struct {
	family   *Family // семья пользователя; nil = не в семье
	members  []*Member
	adminErr error // результат RequireAdmin и админ-мутаторов
	createErr, joinErr error

	createdName, createdPass string
	joinedName, joinedPass   string
	trashOuts                int
	setCalls                 []setCall
	adjustCalls              []adjustCall
	removed, toggled         []int64
	resets, deleted          []int64
}

func (f *fakeRegistry) CreateFamily(_ context.Context, name, password string, _ int64, _ string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.createdName, f.createdPass = name, password
	return 1, nil
}

func (f *fakeRegistry) JoinFamily(_ context.Context, name, password string, _ int64, _ string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joinedName, f.joinedPass = name, password
	return nil
}

func (f *fakeRegistry) FamilyForUser(context.Context, int64) (*Family, error) {
	if f.family == nil {
		return nil, common.ErrNotInFamily
	}
	return f.family, nil
}

func (f *fakeRegistry) RecordTrashOut(ctx context.Context, userID int64) (*Family, error) {
	if f.family == nil {
		return nil, common.ErrNotInFamily
	}
	f.trashOuts++
	return f.family, nil
}

func (f *fakeRegistry) Stats(context.Context, int64) ([]*Member, error) {
	return f.members, nil
}

func (f *fakeRegistry) Members(context.Context, int64) ([]*Member, error) {
	return f.members, nil
}

func (f *fakeRegistry) RequireAdmin(context.Context, int64, int64) error {
	return f.adminErr
}

func (f *fakeRegistry) SetCount(_ context.Context, callerID, familyID, targetID int64, newCount int) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.setCalls = append(f.setCalls, setCall{callerID, familyID, targetID, newCount})
	return nil
}

func (f *fakeRegistry) AdjustCount(_ context.Context, callerID, familyID, targetID int64, delta int) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.adjustCalls = append(f.adjustCalls, adjustCall{callerID, familyID, targetID, delta})
	return nil
}

func (f *fakeRegistry) ToggleAdmin(_ context.Context, _, _, targetID int64) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.toggled = append(f.toggled, targetID)
	return nil
}

func (f *fakeRegistry) RemoveMember(_ context.Context, _, _, targetID int64) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.removed = append(f.removed, targetID)
	return nil
}

func (f *fakeRegistry) ResetCounts(_ context.Context, _, familyID int64) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.resets = append(f.resets, familyID)
	return nil
}

func (f *fakeRegistry) DeleteFamily(_ context.Context, _, familyID int64) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.deleted = append(f.deleted, familyID)
	return nil
}

type fakeNotifier struct {
	notified []int64
}

func (f *fakeNotifier) NotifyLeast(_ context.Context, familyID int64) {
	f.notified = append(f.notified, familyID)
}

func newTestHandler(reg *fakeRegistry) (*Handler, *fakeSender, *fakeNotifier, session.Store) {
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	flows := session.NewMemoryStore(time.Minute)
	return NewHandler(reg, flows, sender, notifier), sender, notifier, flows
}

const (
	testChatID = int64(100)
	testUserID = int64(42)
)

// --- Диалог создания семьи ---

func TestCreateFamilyFlow(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, flows := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", ActionCreateFamily)
	if got := sender.last(t).text; got != "Введите название семьи:" {
		t.Fatalf("неожиданный запрос названия: %q", got)
	}

	h.HandleText(ctx, testChatID, testUserID, "anna", "Смирновы")
	if got := sender.last(t).text; !strings.Contains(got, "пароль") {
		t.Fatalf("неожиданный запрос пароля: %q", got)
	}

	h.HandleText(ctx, testChatID, testUserID, "anna", "тайна")
	if reg.createdName != "Смирновы" || reg.createdPass != "тайна" {
		t.Fatalf("CreateFamily вызван с (%q, %q)", reg.createdName, reg.createdPass)
	}
	if got := sender.last(t).text; !strings.Contains(got, "создана") {
		t.Fatalf("нет подтверждения создания: %q", got)
	}
	if flows.Get(testUserID) != nil {
		t.Fatal("диалог не сброшен после завершения")
	}
}

func TestCreateFamilyEmptyPasswordMeansOpen(t *testing.T) {
	reg := &fakeRegistry{}
	h, _, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", ActionCreateFamily)
	h.HandleText(ctx, testChatID, testUserID, "anna", "Ивановы")
	h.HandleText(ctx, testChatID, testUserID, "anna", "")

	if reg.createdName != "Ивановы" || reg.createdPass != "" {
		t.Fatalf("CreateFamily вызван с (%q, %q)", reg.createdName, reg.createdPass)
	}
}

func TestCreateFamilyDuplicateResetsFlow(t *testing.T) {
	reg := &fakeRegistry{createErr: common.ErrFamilyExists}
	h, sender, _, flows := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", ActionCreateFamily)
	h.HandleText(ctx, testChatID, testUserID, "anna", "Смирновы")
	h.HandleText(ctx, testChatID, testUserID, "anna", "")

	if got := sender.last(t).text; !strings.Contains(got, "уже существует") {
		t.Fatalf("нет сообщения о дубликате: %q", got)
	}
	// Ошибка на последнем шаге не оставляет пользователя в диалоге
	if flows.Get(testUserID) != nil {
		t.Fatal("диалог не сброшен после ошибки")
	}
}

// --- Диалог вступления ---

func TestJoinFamilyFlow(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "boris", ActionJoinFamily)
	h.HandleText(ctx, testChatID, testUserID, "boris", "Смирновы")
	h.HandleText(ctx, testChatID, testUserID, "boris", "x")

	if reg.joinedName != "Смирновы" || reg.joinedPass != "x" {
		t.Fatalf("JoinFamily вызван с (%q, %q)", reg.joinedName, reg.joinedPass)
	}
	if got := sender.last(t).text; !strings.Contains(got, "присоединились") {
		t.Fatalf("нет подтверждения вступления: %q", got)
	}
}

func TestJoinFamilyWrongPassword(t *testing.T) {
	reg := &fakeRegistry{joinErr: common.ErrWrongPassword}
	h, sender, _, flows := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "boris", ActionJoinFamily)
	h.HandleText(ctx, testChatID, testUserID, "boris", "Смирновы")
	h.HandleText(ctx, testChatID, testUserID, "boris", "не тот")

	if got := sender.last(t).text; got != "Неверный пароль" {
		t.Fatalf("неожиданный ответ: %q", got)
	}
	if flows.Get(testUserID) != nil {
		t.Fatal("диалог не сброшен после отказа")
	}
}

func TestJoinFamilyNotFound(t *testing.T) {
	reg := &fakeRegistry{joinErr: common.ErrFamilyNotFound}
	h, sender, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "boris", ActionJoinFamily)
	h.HandleText(ctx, testChatID, testUserID, "boris", "Нетаких")
	h.HandleText(ctx, testChatID, testUserID, "boris", "")

	if got := sender.last(t).text; got != "Семья не найдена" {
		t.Fatalf("неожиданный ответ: %q", got)
	}
}

// --- Вынос мусора и статистика ---

func TestTrashOutNotInFamily(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, notifier, _ := newTestHandler(reg)

	h.HandleCallback(context.Background(), testChatID, testUserID, "anna", ActionTrashOut)

	if got := sender.last(t).text; got != "Вы не в семье." {
		t.Fatalf("неожиданный ответ: %q", got)
	}
	if len(notifier.notified) != 0 {
		t.Fatal("нотификатор вызван без семьи")
	}
}

func TestTrashOutRecordsAndNotifies(t *testing.T) {
	reg := &fakeRegistry{family: &Family{ID: 3, Name: "Смирновы"}}
	h, sender, notifier, _ := newTestHandler(reg)

	h.HandleCallback(context.Background(), testChatID, testUserID, "anna", ActionTrashOut)

	if reg.trashOuts != 1 {
		t.Fatalf("выносов записано: %d", reg.trashOuts)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != 3 {
		t.Fatalf("нотификатор вызван неверно: %v", notifier.notified)
	}
	// Подтверждение уходит до напоминания отстающему
	if got := sender.sent[0].text; got != "✅ Мусор отмечен." {
		t.Fatalf("неожиданный ответ: %q", got)
	}
}

func TestStatsRendersDescendingList(t *testing.T) {
	reg := &fakeRegistry{
		family: &Family{ID: 3, Name: "Смирновы"},
		members: []*Member{
			{TelegramID: 2, Username: "boris", Count: 7},
			{TelegramID: 1, Username: "anna", Count: 0},
		},
	}
	h, sender, _, _ := newTestHandler(reg)

	h.HandleCallback(context.Background(), testChatID, testUserID, "anna", ActionStats)

	got := sender.last(t).text
	if !strings.Contains(got, "📊 Статистика семьи:") {
		t.Fatalf("нет заголовка: %q", got)
	}
	if strings.Index(got, "boris: 7") > strings.Index(got, "anna: 0") {
		t.Fatalf("порядок не сохранён: %q", got)
	}
}

// --- Админ-панель ---

func TestAdminPanelDeniedMessages(t *testing.T) {
	reg := &fakeRegistry{adminErr: common.ErrNotAdmin}
	h, sender, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin|3")
	if got := sender.last(t).text; got != "Только админ может открыть панель." {
		t.Fatalf("неожиданный отказ: %q", got)
	}

	reg.adminErr = common.ErrNotInFamily
	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin|3")
	if got := sender.last(t).text; got != "Нет доступа к админ-панели." {
		t.Fatalf("неожиданный отказ: %q", got)
	}
}

func TestAdminSubActionsRevalidate(t *testing.T) {
	// Разжалованный админ получает отказ на каждом под-действии,
	// а не только при открытии панели
	reg := &fakeRegistry{adminErr: common.ErrNotAdmin}
	h, sender, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_inc|3|7")
	if len(reg.adjustCalls) != 0 {
		t.Fatal("изменение счётчика прошло без прав")
	}
	if got := sender.last(t).text; !strings.Contains(got, "админ") {
		t.Fatalf("неожиданный отказ: %q", got)
	}

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_remove|3|7")
	if len(reg.removed) != 0 {
		t.Fatal("удаление участника прошло без прав")
	}
}

func TestAdminIncDec(t *testing.T) {
	reg := &fakeRegistry{}
	h, _, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_inc|3|7")
	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_dec|3|7")

	if len(reg.adjustCalls) != 2 {
		t.Fatalf("вызовов AdjustCount: %d", len(reg.adjustCalls))
	}
	if reg.adjustCalls[0].delta != 1 || reg.adjustCalls[1].delta != -1 {
		t.Fatalf("неверные дельты: %+v", reg.adjustCalls)
	}
	if reg.adjustCalls[0].familyID != 3 || reg.adjustCalls[0].targetID != 7 {
		t.Fatalf("неверные аргументы: %+v", reg.adjustCalls[0])
	}
}

func TestAdminSetCountFlow(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, flows := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_set|3|7")
	if got := sender.last(t).text; !strings.Contains(got, "целое число") {
		t.Fatalf("нет запроса числа: %q", got)
	}

	// Нечисловой ввод не сбрасывает диалог
	h.HandleText(ctx, testChatID, testUserID, "anna", "abc")
	if got := sender.last(t).text; !strings.Contains(got, "Неверное число") {
		t.Fatalf("нет сообщения об ошибке: %q", got)
	}
	if flows.Get(testUserID) == nil {
		t.Fatal("диалог сброшен после неверного ввода")
	}

	// Отрицательное число тоже отклоняется
	h.HandleText(ctx, testChatID, testUserID, "anna", "-5")
	if flows.Get(testUserID) == nil {
		t.Fatal("диалог сброшен после отрицательного ввода")
	}

	h.HandleText(ctx, testChatID, testUserID, "anna", "7")
	if len(reg.setCalls) != 1 {
		t.Fatalf("вызовов SetCount: %d", len(reg.setCalls))
	}
	call := reg.setCalls[0]
	if call.familyID != 3 || call.targetID != 7 || call.newCount != 7 || call.callerID != testUserID {
		t.Fatalf("SetCount вызван с %+v", call)
	}
	if flows.Get(testUserID) != nil {
		t.Fatal("диалог не сброшен после установки")
	}
}

func TestDeleteFamilyConfirm(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, _ := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_delete|3")
	if got := sender.last(t).text; !strings.Contains(got, "DELETE") {
		t.Fatalf("нет запроса подтверждения: %q", got)
	}

	// Принимается только точный литерал
	h.HandleText(ctx, testChatID, testUserID, "anna", "DELETE")
	if len(reg.deleted) != 1 || reg.deleted[0] != 3 {
		t.Fatalf("семья не удалена: %v", reg.deleted)
	}
	if got := sender.last(t).text; got != "Семья удалена." {
		t.Fatalf("неожиданный ответ: %q", got)
	}
}

func TestDeleteFamilyAbort(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, flows := newTestHandler(reg)
	ctx := context.Background()

	h.HandleCallback(ctx, testChatID, testUserID, "anna", "admin_delete|3")
	h.HandleText(ctx, testChatID, testUserID, "anna", "delete")

	if len(reg.deleted) != 0 {
		t.Fatalf("семья удалена без подтверждения: %v", reg.deleted)
	}
	if got := sender.last(t).text; got != "Подтверждение не пройдено." {
		t.Fatalf("неожиданный ответ: %q", got)
	}
	if flows.Get(testUserID) != nil {
		t.Fatal("диалог не сброшен после отмены")
	}
}

// --- Прочее ---

func TestUnknownCallback(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, _ := newTestHandler(reg)

	h.HandleCallback(context.Background(), testChatID, testUserID, "anna", "explode|1|2")

	if got := sender.last(t).text; got != "Неизвестная операция." {
		t.Fatalf("неожиданный ответ: %q", got)
	}
}

func TestFallbackTextWithoutFlow(t *testing.T) {
	reg := &fakeRegistry{}
	h, sender, _, _ := newTestHandler(reg)

	h.HandleText(context.Background(), testChatID, testUserID, "anna", "привет")

	last := sender.last(t)
	if !strings.Contains(last.text, "Нераспознанный ввод") {
		t.Fatalf("неожиданный ответ: %q", last.text)
	}
	// Гостю показываем меню создания/вступления
	if last.markup == nil || len(last.markup.InlineKeyboard) != 2 {
		t.Fatalf("нет гостевого меню: %+v", last.markup)
	}
}

func TestBackMainReflectsMembership(t *testing.T) {
	reg := &fakeRegistry{family: &Family{ID: 3, Name: "Смирновы"}}
	h, sender, _, _ := newTestHandler(reg)

	h.HandleCallback(context.Background(), testChatID, testUserID, "anna", ActionBackMain)

	last := sender.last(t)
	if last.text != "Главное меню:" {
		t.Fatalf("неожиданный ответ: %q", last.text)
	}
	if last.markup == nil {
		t.Fatal("нет клавиатуры")
	}
	// Для участника первая кнопка — «Вынес мусор»
	first := last.markup.InlineKeyboard[0][0]
	if !strings.Contains(first.Text, "Вынес мусор") {
		t.Fatalf("неожиданное меню участника: %+v", first)
	}
}
