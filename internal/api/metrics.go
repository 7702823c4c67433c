// Package api — metrics.go определяет счётчики Prometheus.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal — сколько апдейтов Telegram обработано.
	UpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trashbot_updates_total",
		Help: "Количество обработанных апдейтов Telegram",
	})

	// TrashOutsTotal — сколько выносов мусора отмечено.
	TrashOutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trashbot_trash_outs_total",
		Help: "Количество отмеченных выносов мусора",
	})

	// RemindersTotal — сколько напоминаний отправлено планировщиком.
	RemindersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trashbot_reminders_total",
		Help: "Количество напоминаний, отправленных по расписанию",
	})
)
