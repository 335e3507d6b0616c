package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"copytrader/internal/config"
	"copytrader/internal/models"
)

// Decision несёт результат проверки рисков для одного последователя.
type Decision struct {
	Allow    bool
	Quantity int
	Reason   string
}

func deny(format string, args ...interface{}) Decision {
	return Decision{Allow: false, Reason: fmt.Sprintf(format, args...)}
}

// Risk проверяет событие против лимитов последователя и считает
// итоговый объём. Дневные счётчики читаются, но не изменяются:
// их обновляет исполнитель после успешной заявки.
type Risk struct {
	cfg config.RiskConfig
}

func NewRisk(cfg config.RiskConfig) *Risk {
	return &Risk{cfg: cfg}
}

// Evaluate выполняет проверки в фиксированном порядке и
// останавливается на первой нарушенной.
func (r *Risk) Evaluate(event models.TradeEvent, follower *Follower) Decision {
	if !follower.Enabled() {
		return deny("Аккаунт отключён.")
	}

	segment := event.Segment
	if !follower.Config.EnabledSegments()[segment] {
		return deny("Торговля в сегменте %s отключена.", segment)
	}

	if follower.DailyTrades() >= r.cfg.DailyTradeCap {
		return deny("Достигнут дневной лимит сделок (%d).", r.cfg.DailyTradeCap)
	}

	multiplier := follower.Config.SegmentMultiplier(segment)
	limit := follower.Config.SegmentLimit(segment)
	adjusted := int(math.Floor(float64(event.Quantity) * multiplier))

	if adjusted > limit {
		return deny("Превышен лимит позиции для %s: %d > %d.", segment, adjusted, limit)
	}

	effectiveLimit := limit
	if segment.IsCommodity() && r.isHighRiskCommodity(event.Symbol) {
		effectiveLimit = limit / 2
		if adjusted > effectiveLimit {
			return deny("Превышен лимит высокорискового товара: %d > %d.", adjusted, effectiveLimit)
		}
	}
	if segment.IsDerivatives() && isOptionSymbol(event.Symbol) {
		effectiveLimit = limit / 2
		if adjusted > effectiveLimit {
			return deny("Превышен лимит опционов: %d > %d.", adjusted, effectiveLimit)
		}
	}

	lossFloor := decimal.NewFromFloat(r.cfg.DailyLossFloor).Neg()
	if follower.DailyPnL().LessThan(lossFloor) {
		return deny("Достигнут дневной лимит убытка (%s).", follower.DailyPnL().String())
	}

	if adjusted < 1 {
		if multiplier <= 0 {
			return deny("Нулевой множитель для сегмента %s.", segment)
		}
		adjusted = 1
		if adjusted > effectiveLimit {
			return deny("Лимит позиции не допускает минимальный объём: 1 > %d.", effectiveLimit)
		}
	}

	return Decision{Allow: true, Quantity: adjusted}
}

func (r *Risk) isHighRiskCommodity(symbol string) bool {
	for _, name := range r.cfg.HighRiskCommodities {
		if name != "" && strings.Contains(symbol, name) {
			return true
		}
	}
	return false
}

// isOptionSymbol распознаёт опционы по суффиксу CE/PE в названии контракта.
func isOptionSymbol(symbol string) bool {
	return strings.HasSuffix(symbol, "CE") || strings.HasSuffix(symbol, "PE")
}
