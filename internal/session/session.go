// Package session хранит состояние пошаговых диалогов пользователей.
// Бот ведёт пользователя по шагам (ввод названия семьи → ввод пароля),
// и между сообщениями нужно помнить, на каком шаге он находится.
//
// Состояние держится в памяти процесса: рестарт молча сбрасывает
// незавершённые диалоги, пользователь начинает заново. Store вынесен
// в интерфейс, чтобы позже можно было подменить на персистентное хранилище.
package session

import (
	"sync"
	"time"
)

// Flow — этап диалога, определяющий, как трактовать следующий текст пользователя.
type Flow string

// Возможные этапы диалога
const (
	FlowNone               Flow = ""                     // Нет активного диалога
	FlowCreateName         Flow = "create_name"          // Ждём название новой семьи
	FlowCreatePass         Flow = "create_pass"          // Ждём пароль новой семьи
	FlowJoinName           Flow = "join_name"            // Ждём название семьи для вступления
	FlowJoinPass           Flow = "join_pass"            // Ждём пароль семьи
	FlowAdminSetCount      Flow = "admin_set_count"      // Ждём новое значение счётчика
	FlowAdminConfirmDelete Flow = "admin_confirm_delete" // Ждём подтверждение удаления семьи
)

// State — состояние диалога одного пользователя.
type State struct {
	Flow         Flow      // Текущий этап
	FamilyName   string    // Название семьи, введённое на предыдущем шаге
	FamilyID     int64     // Семья, над которой выполняется админ-действие
	TargetUserID int64     // Участник, над которым выполняется админ-действие
	ExpiresAt    time.Time // Когда состояние истекает
}

// Store — хранилище состояний диалогов, ключ — Telegram user ID.
type Store interface {
	// Get возвращает состояние пользователя или nil, если диалога нет.
	Get(userID int64) *State
	// Set сохраняет состояние пользователя.
	Set(userID int64, state *State)
	// Clear сбрасывает диалог пользователя.
	Clear(userID int64)
}

// MemoryStore — реализация Store в памяти процесса.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]*State
	ttl    time.Duration
}

// NewMemoryStore создаёт хранилище с заданным временем жизни диалога.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]*State),
		ttl:    ttl,
	}
}

// Get возвращает состояние пользователя. Истёкшее состояние считается отсутствующим.
func (s *MemoryStore) Get(userID int64) *State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	if time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// Set сохраняет состояние и продлевает срок его жизни.
func (s *MemoryStore) Set(userID int64, state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.ExpiresAt = time.Now().Add(s.ttl)
	s.states[userID] = state
}

// Clear сбрасывает диалог пользователя.
func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
