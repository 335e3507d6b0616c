package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"copytrader/internal/logger"
	"copytrader/internal/models"
)

type Client struct {
	url         string
	apiKey      string
	accessToken string
	log         *logger.Logger

	conn      *websocket.Conn
	updates   chan models.OrderUpdate
	closeOnce sync.Once
	closed    chan struct{}
}

type Message struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}
