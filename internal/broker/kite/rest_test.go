package kite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copytrader/internal/broker"
	"copytrader/internal/logger"
	"copytrader/internal/models"
)

func testClient(serverURL string) *Client {
	return New(serverURL, "", "api-key", "access-token", logger.New(logger.Config{Level: "panic"}))
}

func TestPlaceOrder(t *testing.T) {
	var gotForm map[string]string
	var gotPath, gotAuth, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("X-Kite-Version")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"order_id":"230901000042"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	orderID, err := c.PlaceOrder(context.Background(), models.OrderParams{
		Variety:   "regular",
		Segment:   models.SegmentNSE,
		Symbol:    "RELIANCE",
		Side:      models.SideBuy,
		Quantity:  5,
		Product:   models.ProductIntraday,
		OrderType: models.OrderTypeLimit,
		Price:     decimal.RequireFromString("2840.50"),
		Tag:       "copy-230901000001-NSE",
	})
	require.NoError(t, err)

	assert.Equal(t, "230901000042", orderID)
	assert.Equal(t, "/orders/regular", gotPath)
	assert.Equal(t, "token api-key:access-token", gotAuth)
	assert.Equal(t, "3", gotVersion)
	assert.Equal(t, "NSE", gotForm["exchange"])
	assert.Equal(t, "RELIANCE", gotForm["tradingsymbol"])
	assert.Equal(t, "BUY", gotForm["transaction_type"])
	assert.Equal(t, "5", gotForm["quantity"])
	assert.Equal(t, "MIS", gotForm["product"])
	assert.Equal(t, "LIMIT", gotForm["order_type"])
	assert.Equal(t, "2840.5", gotForm["price"])
	assert.Equal(t, "copy-230901000001-NSE", gotForm["tag"])
}

func TestPlaceOrderMarketOmitsPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Empty(t, r.PostForm.Get("price"))
		w.Write([]byte(`{"status":"success","data":{"order_id":"1"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.PlaceOrder(context.Background(), models.OrderParams{
		Segment:   models.SegmentNSE,
		Symbol:    "RELIANCE",
		Side:      models.SideSell,
		Quantity:  1,
		Product:   models.ProductIntraday,
		OrderType: models.OrderTypeMarket,
	})
	require.NoError(t, err)
}

func TestPlaceOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"error","message":"биржа недоступна","error_type":"NetworkException"}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.PlaceOrder(context.Background(), models.OrderParams{
		Segment: models.SegmentNSE, Symbol: "RELIANCE", Side: models.SideBuy, Quantity: 1,
	})
	require.Error(t, err)

	var apiErr *broker.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
	assert.Equal(t, "NetworkException", apiErr.Kind)
	assert.True(t, broker.IsTransient(err))
}

func TestProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/profile", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"status":"success","data":{"user_id":"AB1234","user_name":"Leader"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	info, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AB1234", info.UserID)
	assert.Equal(t, "Leader", info.UserName)
}
