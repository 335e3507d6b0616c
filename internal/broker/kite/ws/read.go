package ws

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

func (w *Client) readLoop() {
	w.logEntry().Debug("readLoop запущен.")
	defer close(w.updates)

	for {
		select {
		case <-w.closed:
			return
		default:
		}

		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.closed:
			default:
				w.logEntry().WithError(err).Warn("Ошибка чтения WS.")
			}
			return
		}

		// Бинарные кадры несут рыночные тики, поток ордеров их не использует.
		if msgType == websocket.BinaryMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать WS сообщение.")
			continue
		}

		switch msg.Type {
		case "order":
			w.handleOrder(msg)
		case "error":
			w.logEntry().WithField("data", string(msg.Data)).Warn("Сообщение об ошибке из WS.")
		default:
			continue
		}
	}
}
