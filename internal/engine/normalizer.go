package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"copytrader/internal/logger"
	"copytrader/internal/models"
)

var (
	// ErrNotTerminal помечает событие с нефинальным статусом, оно отбрасывается молча.
	ErrNotTerminal = errors.New("статус ордера не финальный")
	// ErrDuplicate помечает повторную доставку уже обработанного ордера.
	ErrDuplicate = errors.New("ордер уже обработан")
)

// Normalizer превращает сырые уведомления брокера в TradeEvent.
type Normalizer struct {
	seen *ProcessedOrderSet
	log  *logger.Logger
}

func NewNormalizer(seen *ProcessedOrderSet, log *logger.Logger) *Normalizer {
	return &Normalizer{seen: seen, log: log}
}

func (n *Normalizer) Normalize(raw models.OrderUpdate) (models.TradeEvent, error) {
	if raw.Status != string(models.OrderStatusComplete) {
		return models.TradeEvent{}, ErrNotTerminal
	}

	if raw.OrderID == "" {
		return models.TradeEvent{}, fmt.Errorf("Пустой order_id.")
	}
	if raw.Symbol == "" {
		return models.TradeEvent{}, fmt.Errorf("Пустой символ инструмента.")
	}
	if raw.Segment == "" {
		return models.TradeEvent{}, fmt.Errorf("Пустой сегмент.")
	}
	if raw.Quantity <= 0 {
		return models.TradeEvent{}, fmt.Errorf("Некорректный объём: %d.", raw.Quantity)
	}

	side := models.Side(strings.ToUpper(strings.TrimSpace(raw.Side)))
	if side != models.SideBuy && side != models.SideSell {
		return models.TradeEvent{}, fmt.Errorf("Некорректное направление: %q.", raw.Side)
	}

	segment := models.Segment(strings.ToUpper(strings.TrimSpace(raw.Segment)))
	if !segment.Known() {
		// Новые сегменты не отклоняются: риск-движок разрешит их только
		// при явной настройке у последователя.
		n.logEntry().WithField("segment", string(segment)).Warn("Неизвестный сегмент, событие принято.")
	}

	price := decimal.Zero
	if raw.Price != "" {
		parsed, err := decimal.NewFromString(raw.Price)
		if err != nil || parsed.IsNegative() {
			return models.TradeEvent{}, fmt.Errorf("Некорректная цена: %q.", raw.Price)
		}
		price = parsed
	}

	orderType := models.OrderType(strings.ToUpper(strings.TrimSpace(raw.OrderType)))
	if orderType != models.OrderTypeLimit {
		orderType = models.OrderTypeMarket
	}

	product := models.Product(strings.ToUpper(strings.TrimSpace(raw.Product)))
	if product == "" {
		product = models.ProductIntraday
	}

	if !n.seen.MarkIfNew(raw.OrderID) {
		return models.TradeEvent{}, ErrDuplicate
	}

	return models.TradeEvent{
		OrderID:   raw.OrderID,
		Symbol:    raw.Symbol,
		Segment:   segment,
		Side:      side,
		Quantity:  raw.Quantity,
		Price:     price,
		Product:   product,
		OrderType: orderType,
		Timestamp: raw.Timestamp,
		LeaderID:  raw.UserID,
	}, nil
}

func (n *Normalizer) logEntry() *logrus.Entry {
	return n.log.WithComponent("normalizer")
}
