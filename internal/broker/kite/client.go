package kite

import (
	"context"
	"net/http"
	"time"

	"copytrader/internal/broker/kite/ws"
	"copytrader/internal/logger"
	"copytrader/internal/models"
)

type Client struct {
	baseURL     string
	wsURL       string
	apiKey      string
	accessToken string

	httpClient *http.Client
	stream     *ws.Client
	log        *logger.Logger
}

func New(baseURL, wsURL, apiKey, accessToken string, log *logger.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		wsURL:       wsURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Subscribe открывает поток уведомлений об ордерах аккаунта.
// Канал закрывается при ошибке транспорта, повторное подключение
// остаётся за вызывающей стороной.
func (c *Client) Subscribe(ctx context.Context) (<-chan models.OrderUpdate, error) {
	stream := ws.New(c.wsURL, c.apiKey, c.accessToken, c.log)
	if err := stream.Connect(ctx); err != nil {
		return nil, err
	}
	c.stream = stream
	return stream.Updates(), nil
}

func (c *Client) Close() error {
	if c.stream != nil {
		return c.stream.Close()
	}
	return nil
}
