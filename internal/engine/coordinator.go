package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"copytrader/internal/logger"
	"copytrader/internal/models"
	"copytrader/internal/notify"
)

// Coordinator раздаёт события сделок лидера по последователям и
// сводит итоги. Сделка считается успешной, только если заявки
// прошли у всех включённых последователей.
type Coordinator struct {
	followers []*Follower
	risk      *Risk
	exec      *Executor
	notifier  notify.Notifier
	hours     *MarketHours
	log       *logger.Logger

	mu        sync.Mutex
	processed int
	succeeded int
	failed    int
	startedAt time.Time
}

func NewCoordinator(followers []*Follower, risk *Risk, exec *Executor, notifier notify.Notifier, hours *MarketHours, log *logger.Logger) *Coordinator {
	return &Coordinator{
		followers: followers,
		risk:      risk,
		exec:      exec,
		notifier:  notifier,
		hours:     hours,
		log:       log,
		startedAt: time.Now(),
	}
}

// Run читает события из канала до его закрытия или отмены контекста.
// Канал наполняет только коннектор ленты лидера.
func (c *Coordinator) Run(ctx context.Context, events <-chan models.TradeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				c.logEntry().Warn("Канал событий закрыт.")
				return
			}
			c.OnTradeEvent(ctx, event)
		}
	}
}

// OnTradeEvent прогоняет событие через риск-проверку и исполнителя
// каждого включённого последователя. Последователи обрабатываются
// параллельно: пауза между заявками одного аккаунта не задерживает
// остальных. Сбой одного аккаунта не прерывает остальных.
func (c *Coordinator) OnTradeEvent(ctx context.Context, event models.TradeEvent) []models.ReplicationResult {
	c.mu.Lock()
	c.processed++
	c.mu.Unlock()
	mtxTradesProcessed.Inc()

	entry := c.logEntry().WithFields(map[string]interface{}{
		"order_id": event.OrderID,
		"symbol":   event.Symbol,
		"segment":  event.Segment,
		"side":     event.Side,
		"qty":      event.Quantity,
	})
	entry.Info("Событие сделки лидера.")

	if !c.hours.Open(time.Now()) {
		entry.Warn("Вне торговой сессии, событие пропущено.")
		return nil
	}

	enabled := make([]*Follower, 0, len(c.followers))
	for _, f := range c.followers {
		if f.Enabled() {
			enabled = append(enabled, f)
		}
	}
	if len(enabled) == 0 {
		entry.Warn("Нет включённых последователей.")
		return nil
	}

	results := make([]models.ReplicationResult, len(enabled))
	var wg sync.WaitGroup
	for i, follower := range enabled {
		wg.Add(1)
		go func(i int, follower *Follower) {
			defer wg.Done()
			results[i] = c.replicate(ctx, event, follower)
		}(i, follower)
	}
	wg.Wait()

	success := 0
	for _, res := range results {
		if res.Success {
			success++
		}
	}
	allOK := success == len(enabled)
	c.recordAggregate(allOK)

	if allOK {
		entry.WithField("followers", len(enabled)).Info("Сделка реплицирована на все аккаунты.")
	} else {
		entry.WithFields(map[string]interface{}{
			"success":   success,
			"followers": len(enabled),
		}).Warn("Сделка реплицирована не на все аккаунты.")
	}

	c.notifier.NotifyTrade(event, results)

	return results
}

func (c *Coordinator) replicate(ctx context.Context, event models.TradeEvent, follower *Follower) models.ReplicationResult {
	result := models.ReplicationResult{UserID: follower.UserID()}

	decision := c.risk.Evaluate(event, follower)
	if !decision.Allow {
		result.Denied = true
		result.Reason = decision.Reason
		mtxRiskDenied.WithLabelValues(follower.UserID()).Inc()
		c.logEntry().WithFields(map[string]interface{}{
			"user_id":  follower.UserID(),
			"order_id": event.OrderID,
			"reason":   decision.Reason,
		}).Warn("Репликация запрещена риск-движком.")
		return result
	}

	orderID, err := c.exec.Submit(ctx, event, decision.Quantity, follower)
	if err != nil {
		result.Error = err.Error()
		mtxFollowerOrders.WithLabelValues(follower.UserID(), "failed").Inc()
		return result
	}

	result.Success = true
	result.Quantity = decision.Quantity
	result.OrderID = orderID
	mtxFollowerOrders.WithLabelValues(follower.UserID(), "success").Inc()
	return result
}

func (c *Coordinator) recordAggregate(success bool) {
	c.mu.Lock()
	if success {
		c.succeeded++
	} else {
		c.failed++
	}
	c.mu.Unlock()

	if success {
		mtxReplications.WithLabelValues("success").Inc()
	} else {
		mtxReplications.WithLabelValues("failed").Inc()
	}
}

// Stats снимает текущие счётчики и дневное состояние последователей.
func (c *Coordinator) Stats() models.DailyStats {
	c.mu.Lock()
	stats := models.DailyStats{
		Uptime:          time.Since(c.startedAt),
		TradesProcessed: c.processed,
		Successful:      c.succeeded,
		Failed:          c.failed,
	}
	c.mu.Unlock()

	for _, f := range c.followers {
		stats.Followers = append(stats.Followers, f.Status())
	}
	return stats
}

// ResetDaily очищает дневные счётчики всех последователей. Вызывается
// в начале торговой сессии.
func (c *Coordinator) ResetDaily() {
	for _, f := range c.followers {
		f.ResetDaily(c.log)
	}
	c.mu.Lock()
	c.processed = 0
	c.succeeded = 0
	c.failed = 0
	c.startedAt = time.Now()
	c.mu.Unlock()
}

// Monitor периодически пишет состояние системы в журнал.
func (c *Coordinator) Monitor(ctx context.Context, interval time.Duration, feedStatus func() string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.Stats()
			c.logEntry().WithFields(map[string]interface{}{
				"uptime":     stats.Uptime.String(),
				"processed":  stats.TradesProcessed,
				"success":    stats.Successful,
				"failed":     stats.Failed,
				"feed_state": feedStatus(),
			}).Info("Состояние системы.")
		}
	}
}

func (c *Coordinator) logEntry() *logrus.Entry {
	return c.log.WithComponent("coordinator")
}
