package ws

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"copytrader/internal/logger"
	"copytrader/internal/models"
)

func New(wsURL, apiKey, accessToken string, log *logger.Logger) *Client {
	return &Client{
		url:         wsURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		log:         log,
		updates:     make(chan models.OrderUpdate, 100),
		closed:      make(chan struct{}),
	}
}

func (w *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(w.url)
	if err != nil {
		return fmt.Errorf("Некорректный адрес WS: %w", err)
	}
	query := u.Query()
	query.Set("api_key", w.apiKey)
	query.Set("access_token", w.accessToken)
	u.RawQuery = query.Encode()

	w.logEntry().WithField("url", w.url).Info("Подключение к WS.")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к WS: %w", err)
	}

	w.conn = conn
	w.conn.SetReadLimit(2 << 20)

	w.logEntry().Info("WS соединение установлено.")

	go w.readLoop()

	return nil
}

func (w *Client) logEntry() *logrus.Entry {
	return w.log.WithComponent("kite_ws")
}

// Updates возвращает канал уведомлений. Канал закрывается
// при ошибке транспорта или после Close.
func (w *Client) Updates() <-chan models.OrderUpdate {
	return w.updates
}

func (w *Client) Close() error {
	w.closeOnce.Do(func() {
		close(w.closed)
		if w.conn != nil {
			_ = w.conn.Close()
		}
	})
	return nil
}
