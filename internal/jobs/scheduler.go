// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает еженедельное напоминание: раз в неделю бот
// пишет отстающему участнику каждой семьи, что пора вынести мусор.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/trash-bot/internal/api"
	"serotonyl.ru/trash-bot/internal/common"
	"serotonyl.ru/trash-bot/internal/features/families"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	registry *families.Service
	sendFunc func(userID int64, text string) error
}

// NewScheduler создаёт планировщик задач в заданном часовом поясе.
func NewScheduler(registry *families.Service, sendFunc func(userID int64, text string) error, timezone string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем UTC+3", timezone)
		loc = time.FixedZone("MSK", 3*60*60)
	}

	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		registry: registry,
		sendFunc: sendFunc,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) {
	// Еженедельное напоминание: воскресенье, 19:00
	s.cron.AddFunc("0 19 * * 0", func() {
		log.Info("[CRON] Еженедельные напоминания отстающим")
		if err := s.RemindLaggards(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка рассылки напоминаний")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен")
}

// Stop останавливает планировщик.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// RemindLaggards проходит по всем семьям и пишет отстающему участнику каждой.
// Сбой доставки одному пользователю не прерывает рассылку остальным.
func (s *Scheduler) RemindLaggards(ctx context.Context) error {
	list, err := s.registry.ListFamilies(ctx)
	if err != nil {
		return err
	}

	for _, family := range list {
		member, err := s.registry.LeastContributor(ctx, family.ID)
		if err != nil {
			log.WithError(err).WithField("family_id", family.ID).Warn("[CRON] Семья без участников?")
			continue
		}

		text := "🗓 " + member.DisplayName() + ", напоминание: у тебя меньше всех выносов в семье «" +
			family.Name + "» — " + common.FormatTakeouts(member.Count) + "."

		if err := s.sendFunc(member.TelegramID, text); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"family_id": family.ID,
				"user_id":   member.TelegramID,
			}).Warn("[CRON] Не удалось отправить напоминание")
			continue
		}
		api.RemindersTotal.Inc()
	}

	return nil
}
