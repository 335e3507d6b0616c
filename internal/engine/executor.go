package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"copytrader/internal/broker"
	"copytrader/internal/config"
	"copytrader/internal/logger"
	"copytrader/internal/models"
)

// Executor ставит заявку на аккаунт последователя: выдерживает паузу
// между заявками, повторяет временные ошибки и ведёт журналы аккаунта.
type Executor struct {
	pacing      time.Duration
	maxAttempts int
	backoffBase time.Duration
	log         *logger.Logger
}

func NewExecutor(cfg config.ReplicationConfig, log *logger.Logger) *Executor {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	pacing := cfg.PacingInterval
	if pacing <= 0 {
		pacing = time.Second
	}
	return &Executor{
		pacing:      pacing,
		maxAttempts: maxAttempts,
		backoffBase: time.Second,
		log:         log,
	}
}

// ReplicaTag строит детерминированную метку заявки. По ней дубликаты
// после перезапуска видны в истории ордеров последователя.
func ReplicaTag(event models.TradeEvent) string {
	return fmt.Sprintf("copy-%s-%s", event.OrderID, event.Segment)
}

func (x *Executor) Submit(ctx context.Context, event models.TradeEvent, quantity int, follower *Follower) (string, error) {
	if err := x.pace(ctx, follower); err != nil {
		return "", err
	}

	params := buildOrderParams(event, quantity)

	var lastErr error
	backoff := x.backoffBase
	for attempt := 1; attempt <= x.maxAttempts; attempt++ {
		orderID, err := follower.Client.PlaceOrder(ctx, params)
		if err == nil {
			follower.recordPlaced(PlacedRecord{
				OrderID:   orderID,
				Params:    params,
				Timestamp: time.Now(),
			})
			follower.applyFill(event.Symbol, event.Side, quantity, event.Price)
			x.logEntry(follower).WithFields(map[string]interface{}{
				"order_id": orderID,
				"symbol":   params.Symbol,
				"segment":  params.Segment,
				"side":     params.Side,
				"qty":      params.Quantity,
				"tag":      params.Tag,
			}).Info("Заявка поставлена.")
			return orderID, nil
		}
		lastErr = err

		if !broker.IsTransient(err) {
			break
		}
		if attempt == x.maxAttempts {
			break
		}

		x.logEntry(follower).WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"wait":    backoff.String(),
		}).Warn("Временная ошибка, повторяем заявку.")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	follower.recordFailed(FailedRecord{
		Params:    params,
		Error:     lastErr.Error(),
		Timestamp: time.Now(),
	})
	x.logEntry(follower).WithError(lastErr).WithFields(map[string]interface{}{
		"symbol": params.Symbol,
		"qty":    params.Quantity,
		"tag":    params.Tag,
	}).Error("Заявка не поставлена.")
	return "", lastErr
}

// pace выдерживает минимальный интервал между заявками аккаунта.
// Ожидание блокирует вызывающую горутину, но снимается отменой контекста.
func (x *Executor) pace(ctx context.Context, follower *Follower) error {
	last := follower.LastOrderAt()
	if last.IsZero() {
		return nil
	}
	wait := x.pacing - time.Since(last)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func buildOrderParams(event models.TradeEvent, quantity int) models.OrderParams {
	params := models.OrderParams{
		Variety:   "regular",
		Segment:   event.Segment,
		Symbol:    event.Symbol,
		Side:      event.Side,
		Quantity:  quantity,
		Product:   event.Product,
		OrderType: models.OrderTypeMarket,
		Tag:       ReplicaTag(event),
	}

	if event.OrderType == models.OrderTypeLimit && event.Price.IsPositive() {
		params.OrderType = models.OrderTypeLimit
		params.Price = event.Price
	}

	// MCX принимает только MIS и NRML.
	if event.Segment.IsCommodity() && params.Product != models.ProductIntraday && params.Product != models.ProductCarry {
		params.Product = models.ProductIntraday
	}

	return params
}

func (x *Executor) logEntry(follower *Follower) *logrus.Entry {
	return x.log.WithComponent("executor").WithField("user_id", follower.UserID())
}
