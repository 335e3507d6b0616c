package paper

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"copytrader/internal/logger"
	"copytrader/internal/models"
)

// Client имитирует брокера в памяти. Используется в режиме
// бумажной торговли и в тестах: заявки никуда не уходят.
type Client struct {
	userID string
	log    *logger.Logger

	mu     sync.Mutex
	placed []models.OrderParams

	// failNext подставляет ошибку для следующих вызовов PlaceOrder.
	failNext []error
}

func New(userID string, log *logger.Logger) *Client {
	return &Client{userID: userID, log: log}
}

func (c *Client) Profile(ctx context.Context) (models.AccountInfo, error) {
	return models.AccountInfo{
		UserID:   c.userID,
		UserName: fmt.Sprintf("paper-%s", c.userID),
	}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, params models.OrderParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.failNext) > 0 {
		err := c.failNext[0]
		c.failNext = c.failNext[1:]
		if err != nil {
			return "", err
		}
	}

	c.placed = append(c.placed, params)
	orderID := uuid.New().String()

	if c.log != nil {
		c.log.WithComponent("paper").WithFields(map[string]interface{}{
			"user_id":  c.userID,
			"order_id": orderID,
			"symbol":   params.Symbol,
			"segment":  params.Segment,
			"side":     params.Side,
			"qty":      params.Quantity,
			"tag":      params.Tag,
		}).Info("Бумажная заявка принята.")
	}

	return orderID, nil
}

func (c *Client) Subscribe(ctx context.Context) (<-chan models.OrderUpdate, error) {
	ch := make(chan models.OrderUpdate)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (c *Client) Close() error {
	return nil
}

// FailNext ставит ошибки в очередь для последующих заявок.
// nil в очереди означает успешную заявку.
func (c *Client) FailNext(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = append(c.failNext, errs...)
}

// Placed возвращает копию принятых заявок.
func (c *Client) Placed() []models.OrderParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.OrderParams, len(c.placed))
	copy(out, c.placed)
	return out
}
