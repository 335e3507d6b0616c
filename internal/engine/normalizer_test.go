package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copytrader/internal/models"
)

func validUpdate() models.OrderUpdate {
	return models.OrderUpdate{
		OrderID:  "230901000001",
		UserID:   "AB1234",
		Symbol:   "RELIANCE",
		Segment:  "NSE",
		Side:     "BUY",
		Quantity: 10,
		Price:    "2840.50",
		Status:   "COMPLETE",
	}
}

func TestNormalizeComplete(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	event, err := n.Normalize(validUpdate())
	require.NoError(t, err)

	assert.Equal(t, "230901000001", event.OrderID)
	assert.Equal(t, models.SegmentNSE, event.Segment)
	assert.Equal(t, models.SideBuy, event.Side)
	assert.Equal(t, 10, event.Quantity)
	assert.Equal(t, "2840.5", event.Price.String())
	assert.Equal(t, models.OrderTypeMarket, event.OrderType)
	assert.Equal(t, models.ProductIntraday, event.Product)
	assert.Equal(t, "AB1234", event.LeaderID)
}

func TestNormalizeNotTerminal(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	for _, status := range []string{"OPEN", "CANCELLED", "REJECTED", ""} {
		raw := validUpdate()
		raw.Status = status
		_, err := n.Normalize(raw)
		assert.ErrorIs(t, err, ErrNotTerminal, "status %q", status)
	}
}

func TestNormalizeDuplicate(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	_, err := n.Normalize(validUpdate())
	require.NoError(t, err)

	_, err = n.Normalize(validUpdate())
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestNormalizeRejects(t *testing.T) {
	testCases := []struct {
		desc   string
		mutate func(*models.OrderUpdate)
	}{
		{"empty order id", func(u *models.OrderUpdate) { u.OrderID = "" }},
		{"empty symbol", func(u *models.OrderUpdate) { u.Symbol = "" }},
		{"empty segment", func(u *models.OrderUpdate) { u.Segment = "" }},
		{"zero quantity", func(u *models.OrderUpdate) { u.Quantity = 0 }},
		{"negative quantity", func(u *models.OrderUpdate) { u.Quantity = -5 }},
		{"bad side", func(u *models.OrderUpdate) { u.Side = "HOLD" }},
		{"bad price", func(u *models.OrderUpdate) { u.Price = "abc" }},
		{"negative price", func(u *models.OrderUpdate) { u.Price = "-1" }},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			n := NewNormalizer(NewProcessedOrderSet(0), testLogger())
			raw := validUpdate()
			tc.mutate(&raw)

			_, err := n.Normalize(raw)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNotTerminal)
			assert.NotErrorIs(t, err, ErrDuplicate)
		})
	}
}

// Отклонённое событие не должно занимать место в наборе обработанных:
// исправленная повторная доставка обязана пройти.
func TestNormalizeRejectDoesNotMark(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	raw := validUpdate()
	raw.Price = "abc"
	_, err := n.Normalize(raw)
	require.Error(t, err)

	_, err = n.Normalize(validUpdate())
	assert.NoError(t, err)
}

func TestNormalizeUnknownSegmentAccepted(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	raw := validUpdate()
	raw.Segment = "GIFT"
	event, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, models.Segment("GIFT"), event.Segment)
	assert.False(t, event.Segment.Known())
}

func TestNormalizeLimitOrder(t *testing.T) {
	n := NewNormalizer(NewProcessedOrderSet(0), testLogger())

	raw := validUpdate()
	raw.OrderType = "limit"
	raw.Side = "sell"
	event, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, models.OrderTypeLimit, event.OrderType)
	assert.Equal(t, models.SideSell, event.Side)
}
