package notify

import (
	"github.com/sirupsen/logrus"

	"copytrader/internal/logger"
	"copytrader/internal/models"
)

// Notifier уведомляет внешние каналы о событиях репликации.
// Все вызовы fire-and-forget: сбои доставки логируются и никогда
// не влияют на путь репликации.
type Notifier interface {
	NotifyTrade(event models.TradeEvent, results []models.ReplicationResult)
	NotifyAlert(alertType, message, severity string)
	NotifyDailySummary(stats models.DailyStats)
}

// LogNotifier пишет уведомления в журнал. Транспорты до внешних
// каналов подключаются отдельными реализациями интерфейса.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyTrade(event models.TradeEvent, results []models.ReplicationResult) {
	success := 0
	for _, res := range results {
		if res.Success {
			success++
		}
	}
	n.logEntry().WithFields(map[string]interface{}{
		"order_id":  event.OrderID,
		"symbol":    event.Symbol,
		"segment":   event.Segment,
		"side":      event.Side,
		"qty":       event.Quantity,
		"followers": len(results),
		"success":   success,
	}).Info("Сделка реплицирована.")
}

func (n *LogNotifier) NotifyAlert(alertType, message, severity string) {
	entry := n.logEntry().WithField("type", alertType)
	switch severity {
	case "ERROR":
		entry.Error(message)
	case "WARNING":
		entry.Warn(message)
	default:
		entry.Info(message)
	}
}

func (n *LogNotifier) NotifyDailySummary(stats models.DailyStats) {
	n.logEntry().WithFields(map[string]interface{}{
		"uptime":    stats.Uptime.String(),
		"processed": stats.TradesProcessed,
		"success":   stats.Successful,
		"failed":    stats.Failed,
	}).Info("Сводка за сессию.")
	for _, f := range stats.Followers {
		n.logEntry().WithFields(map[string]interface{}{
			"user_id":      f.UserID,
			"daily_trades": f.DailyTrades,
			"daily_pnl":    f.DailyPnL.String(),
			"placed":       f.Placed,
			"failed":       f.Failed,
		}).Info("Итоги последователя.")
	}
}

func (n *LogNotifier) logEntry() *logrus.Entry {
	return n.log.WithComponent("notifier")
}
