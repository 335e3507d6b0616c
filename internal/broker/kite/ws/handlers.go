package ws

import (
	"encoding/json"
	"time"

	"copytrader/internal/models"
)

const orderTimestampLayout = "2006-01-02 15:04:05"

func (w *Client) handleOrder(msg Message) {
	var data struct {
		OrderID         string      `json:"order_id"`
		Status          string      `json:"status"`
		Tradingsymbol   string      `json:"tradingsymbol"`
		Exchange        string      `json:"exchange"`
		TransactionType string      `json:"transaction_type"`
		Quantity        int         `json:"quantity"`
		Price           json.Number `json:"price"`
		Product         string      `json:"product"`
		OrderType       string      `json:"order_type"`
		UserID          string      `json:"user_id"`
		OrderTimestamp  string      `json:"order_timestamp"`
	}

	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать уведомление об ордере.")
		return
	}

	w.logEntry().WithFields(map[string]interface{}{
		"order_id": data.OrderID,
		"status":   data.Status,
		"symbol":   data.Tradingsymbol,
		"exchange": data.Exchange,
		"side":     data.TransactionType,
		"qty":      data.Quantity,
		"price":    data.Price.String(),
	}).Debug("order")

	ts, err := time.ParseInLocation(orderTimestampLayout, data.OrderTimestamp, time.Local)
	if err != nil {
		ts = time.Now()
	}

	w.updates <- models.OrderUpdate{
		OrderID:   data.OrderID,
		Status:    data.Status,
		Symbol:    data.Tradingsymbol,
		Segment:   data.Exchange,
		Side:      data.TransactionType,
		Quantity:  data.Quantity,
		Price:     data.Price.String(),
		Product:   data.Product,
		OrderType: data.OrderType,
		UserID:    data.UserID,
		Timestamp: ts,
	}
}
