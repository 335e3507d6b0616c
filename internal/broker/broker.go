package broker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"copytrader/internal/models"
)

// Client закрывает собой API брокера для одного аккаунта.
type Client interface {
	Profile(ctx context.Context) (models.AccountInfo, error)
	PlaceOrder(ctx context.Context, params models.OrderParams) (string, error)
	Subscribe(ctx context.Context) (<-chan models.OrderUpdate, error)
	Close() error
}

type APIError struct {
	Code    int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Ошибка брокера: %s (code=%d, kind=%s)", e.Message, e.Code, e.Kind)
}

// IsTransient сообщает, имеет ли смысл повторять запрос.
// Лимит запросов и ошибки сервера считаются временными, остальное нет.
func IsTransient(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
