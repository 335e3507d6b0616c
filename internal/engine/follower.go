package engine

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"copytrader/internal/broker"
	"copytrader/internal/config"
	"copytrader/internal/logger"
	"copytrader/internal/models"
)

const orderLogLimit = 500

type PlacedRecord struct {
	OrderID   string
	Params    models.OrderParams
	Timestamp time.Time
}

type FailedRecord struct {
	Params    models.OrderParams
	Error     string
	Timestamp time.Time
}

// Follower объединяет конфигурацию, клиент брокера и дневное
// состояние одного аккаунта-последователя. Состояние меняет только
// горутина, обрабатывающая этот аккаунт, плюс сессионный сброс.
type Follower struct {
	Config config.FollowerConfig
	Client broker.Client

	mu          sync.Mutex
	dailyTrades int
	dailyPnL    decimal.Decimal
	lastOrderAt time.Time
	placed      []PlacedRecord
	failed      []FailedRecord
	positions   map[string]position
}

// position держит открытый внутридневной объём по инструменту
// и среднюю цену входа для подсчёта реализованного результата.
type position struct {
	qty     int
	avgCost decimal.Decimal
}

func NewFollower(cfg config.FollowerConfig, client broker.Client) *Follower {
	return &Follower{
		Config:    cfg,
		Client:    client,
		dailyPnL:  decimal.Zero,
		positions: make(map[string]position),
	}
}

func (f *Follower) UserID() string {
	return f.Config.UserID
}

func (f *Follower) Enabled() bool {
	return f.Config.Enabled
}

func (f *Follower) DailyTrades() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dailyTrades
}

func (f *Follower) DailyPnL() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dailyPnL
}

func (f *Follower) AddRealizedPnL(delta decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyPnL = f.dailyPnL.Add(delta)
}

// applyFill обновляет позицию по инструменту после успешной заявки.
// Покупки наращивают объём и среднюю цену входа, продажи закрывают
// позицию и реализуют результат. Рыночные заявки без цены лидера
// позицию не двигают: без цены базис не посчитать.
func (f *Follower) applyFill(symbol string, side models.Side, qty int, price decimal.Decimal) {
	if qty <= 0 || !price.IsPositive() {
		return
	}

	realized := decimal.Zero

	f.mu.Lock()
	pos := f.positions[symbol]
	switch side {
	case models.SideBuy:
		total := pos.avgCost.Mul(decimal.NewFromInt(int64(pos.qty))).
			Add(price.Mul(decimal.NewFromInt(int64(qty))))
		pos.qty += qty
		pos.avgCost = total.Div(decimal.NewFromInt(int64(pos.qty)))
		f.positions[symbol] = pos
	case models.SideSell:
		matched := qty
		if matched > pos.qty {
			matched = pos.qty
		}
		if matched > 0 {
			realized = price.Sub(pos.avgCost).Mul(decimal.NewFromInt(int64(matched)))
			pos.qty -= matched
			if pos.qty == 0 {
				delete(f.positions, symbol)
			} else {
				f.positions[symbol] = pos
			}
		}
	}
	f.mu.Unlock()

	if !realized.IsZero() {
		f.AddRealizedPnL(realized)
	}
}

func (f *Follower) LastOrderAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOrderAt
}

func (f *Follower) recordPlaced(rec PlacedRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyTrades++
	f.lastOrderAt = rec.Timestamp
	f.placed = append(f.placed, rec)
	if len(f.placed) > orderLogLimit {
		f.placed = f.placed[len(f.placed)-orderLogLimit:]
	}
}

func (f *Follower) recordFailed(rec FailedRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, rec)
	if len(f.failed) > orderLogLimit {
		f.failed = f.failed[len(f.failed)-orderLogLimit:]
	}
}

func (f *Follower) PlacedOrders() []PlacedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PlacedRecord, len(f.placed))
	copy(out, f.placed)
	return out
}

func (f *Follower) FailedOrders() []FailedRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FailedRecord, len(f.failed))
	copy(out, f.failed)
	return out
}

// ResetDaily сбрасывает дневные счётчики и журналы. Вызывается раз
// в торговую сессию.
func (f *Follower) ResetDaily(log *logger.Logger) {
	f.mu.Lock()
	f.dailyTrades = 0
	f.dailyPnL = decimal.Zero
	f.placed = nil
	f.failed = nil
	f.positions = make(map[string]position)
	f.mu.Unlock()

	if log != nil {
		log.WithUserID(f.Config.UserID).Info("Дневная статистика сброшена.")
	}
}

func (f *Follower) Status() models.FollowerDailyStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.FollowerDailyStats{
		UserID:      f.Config.UserID,
		Enabled:     f.Config.Enabled,
		Multiplier:  f.Config.Multiplier,
		DailyTrades: f.dailyTrades,
		DailyPnL:    f.dailyPnL,
		Placed:      len(f.placed),
		Failed:      len(f.failed),
	}
}
