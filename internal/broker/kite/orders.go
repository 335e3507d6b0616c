package kite

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"copytrader/internal/models"
)

func (c *Client) PlaceOrder(ctx context.Context, params models.OrderParams) (string, error) {
	variety := params.Variety
	if variety == "" {
		variety = "regular"
	}

	form := url.Values{}
	form.Set("exchange", string(params.Segment))
	form.Set("tradingsymbol", params.Symbol)
	form.Set("transaction_type", string(params.Side))
	form.Set("quantity", strconv.Itoa(params.Quantity))
	form.Set("product", string(params.Product))
	form.Set("order_type", string(params.OrderType))
	if params.OrderType == models.OrderTypeLimit && !params.Price.IsZero() {
		form.Set("price", params.Price.String())
	}
	if params.Tag != "" {
		form.Set("tag", params.Tag)
	}

	var result struct {
		OrderID string `json:"order_id"`
	}

	if err := c.doRequest(ctx, http.MethodPost, "/orders/"+variety, form, &result); err != nil {
		return "", err
	}

	return result.OrderID, nil
}

func (c *Client) Profile(ctx context.Context) (models.AccountInfo, error) {
	var info models.AccountInfo
	if err := c.doRequest(ctx, http.MethodGet, "/user/profile", nil, &info); err != nil {
		return models.AccountInfo{}, err
	}
	return info, nil
}
