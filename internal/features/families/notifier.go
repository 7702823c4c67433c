// Package families — notifier.go отправляет напоминание отстающему участнику.
// После каждого отмеченного выноса бот пишет в личку тому, у кого меньше
// всех выносов. Ошибка доставки (пользователь заблокировал бота и т.п.)
// логируется и глотается: сам вынос уже записан.
package families

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/common"
)

// SendFunc отправляет личное сообщение пользователю Telegram.
type SendFunc func(userID int64, text string) error

// leastFinder — минимальный интерфейс реестра, нужный нотификатору.
type leastFinder interface {
	LeastContributor(ctx context.Context, familyID int64) (*Member, error)
}

// Notifier напоминает отстающему участнику о его очереди.
type Notifier struct {
	registry leastFinder
	send     SendFunc
}

// NewNotifier создаёт нотификатор.
func NewNotifier(registry leastFinder, send SendFunc) *Notifier {
	return &Notifier{registry: registry, send: send}
}

// NotifyLeast находит участника с минимальным счётчиком и шлёт ему напоминание.
func (n *Notifier) NotifyLeast(ctx context.Context, familyID int64) {
	member, err := n.registry.LeastContributor(ctx, familyID)
	if err != nil {
		log.WithError(err).WithField("family_id", familyID).Warn("Не удалось найти отстающего участника")
		return
	}

	text := "🚨 " + member.DisplayName() + ", твоя очередь вынести мусор! У тебя меньше всех выносов: " +
		common.FormatTakeouts(member.Count) + "."

	if err := n.send(member.TelegramID, text); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"family_id": familyID,
			"user_id":   member.TelegramID,
		}).Warn("Не удалось отправить напоминание")
	}
}
