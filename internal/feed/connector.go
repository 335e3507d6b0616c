package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"copytrader/internal/broker"
	"copytrader/internal/config"
	"copytrader/internal/engine"
	"copytrader/internal/logger"
	"copytrader/internal/models"
	"copytrader/internal/notify"
)

// Connector держит подписку на поток ордеров лидера, ведёт машину
// состояний подключения и отправляет нормализованные события в канал.
// Connector единственный отправитель этого канала.
type Connector struct {
	client   broker.Client
	norm     *engine.Normalizer
	cfg      config.FeedConfig
	notifier notify.Notifier
	log      *logger.Logger

	events chan models.TradeEvent
	state  atomic.Int32

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	eventsClosed bool
}

func New(client broker.Client, norm *engine.Normalizer, cfg config.FeedConfig, notifier notify.Notifier, log *logger.Logger) *Connector {
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	return &Connector{
		client:   client,
		norm:     norm,
		cfg:      cfg,
		notifier: notifier,
		log:      log,
		events:   make(chan models.TradeEvent, 100),
	}
}

// Events возвращает канал событий сделок лидера. После повторного
// Start канал нужно запросить заново: каждый запуск владеет своим.
func (c *Connector) Events() <-chan models.TradeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

func (c *Connector) Status() State {
	return State(c.state.Load())
}

func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("Коннектор уже запущен.")
	}

	if c.eventsClosed {
		c.events = make(chan models.TradeEvent, 100)
		c.eventsClosed = false
	}

	c.setState(StateConnecting)

	runCtx, cancel := context.WithCancel(ctx)
	updates, err := c.client.Subscribe(runCtx)
	if err != nil {
		cancel()
		c.setState(StateDisconnected)
		return fmt.Errorf("Не удалось подписаться на ленту лидера: %w", err)
	}

	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.setState(StateConnected)

	go c.run(runCtx, updates)

	return nil
}

// Stop отменяет подписку и дожидается остановки цикла чтения.
func (c *Connector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.setState(StateDisconnected)
		return
	}
	cancel := c.cancel
	done := c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	_ = c.client.Close()
	<-done
	c.setState(StateDisconnected)
}

func (c *Connector) run(ctx context.Context, updates <-chan models.OrderUpdate) {
	defer close(c.done)
	// Канал событий закрывается только при остановке по контексту:
	// получатель дорабатывает буфер и завершает свой цикл. После
	// исчерпания бюджета переподключений канал остаётся открытым,
	// чтобы ручной Start продолжил работу с тем же получателем.
	defer func() {
		if ctx.Err() == nil {
			return
		}
		c.mu.Lock()
		if !c.eventsClosed {
			c.eventsClosed = true
			close(c.events)
		}
		c.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return
		case raw, ok := <-updates:
			if !ok {
				updates = c.reconnect(ctx)
				if updates == nil {
					return
				}
				continue
			}
			c.handleUpdate(ctx, raw)
		}
	}
}

// reconnect восстанавливает подписку с экспоненциальной паузой.
// После исчерпания бюджета попыток коннектор переходит в
// PermanentlyFailed, дальше поможет только ручной Start.
func (c *Connector) reconnect(ctx context.Context) <-chan models.OrderUpdate {
	c.setState(StateReconnecting)
	backoff := c.cfg.ReconnectMin

	for attempt := 1; attempt <= c.cfg.MaxReconnects; attempt++ {
		c.logEntry().WithField("attempt", attempt).Info("Попытка переподключения к ленте лидера.")

		select {
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return nil
		case <-time.After(backoff):
		}

		updates, err := c.client.Subscribe(ctx)
		if err == nil {
			c.setState(StateConnected)
			c.logEntry().Info("Лента лидера переподключена.")
			return updates
		}

		c.logEntry().WithError(err).Warn("Не удалось переподключиться к ленте лидера.")
		backoff = c.nextBackoff(backoff)
	}

	c.setState(StatePermanentlyFailed)
	c.logEntry().Error("Бюджет переподключений исчерпан.")
	if c.notifier != nil {
		c.notifier.NotifyAlert("feed", "Лента лидера потеряна, требуется ручной перезапуск.", "ERROR")
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	return nil
}

func (c *Connector) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > c.cfg.ReconnectMax {
		return c.cfg.ReconnectMax
	}
	return next
}

func (c *Connector) handleUpdate(ctx context.Context, raw models.OrderUpdate) {
	event, err := c.norm.Normalize(raw)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotTerminal):
			c.logEntry().WithField("status", raw.Status).Debug("Нефинальный статус, пропуск.")
		case errors.Is(err, engine.ErrDuplicate):
			c.logEntry().WithField("order_id", raw.OrderID).Debug("Повторная доставка, пропуск.")
		default:
			c.logEntry().WithError(err).WithField("order_id", raw.OrderID).Warn("Событие отклонено.")
		}
		return
	}

	select {
	case <-ctx.Done():
	case c.events <- event:
	}
}

func (c *Connector) setState(state State) {
	old := State(c.state.Swap(int32(state)))
	engine.SetFeedState(int(state))
	if old != state {
		c.logEntry().WithFields(map[string]interface{}{
			"from": old.String(),
			"to":   state.String(),
		}).Debug("Смена состояния подключения.")
	}
}

func (c *Connector) logEntry() *logrus.Entry {
	return c.log.WithComponent("feed")
}
