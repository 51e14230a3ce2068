package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDeliveryTotalAmount(t *testing.T) {
	d := &Delivery{
		Items: []DeliveryItem{
			{ProductID: 1, Quantity: 3, Price: decimal.RequireFromString("2.50")},
			{ProductID: 2, Quantity: 2, Price: decimal.RequireFromString("0.10")},
		},
	}

	first := d.TotalAmount()
	require.True(t, first.Equal(decimal.RequireFromString("7.70")), first.String())
	require.True(t, first.Equal(d.TotalAmount()))
}

func TestEmptyAggregateTotalIsZero(t *testing.T) {
	require.True(t, (&Return{}).TotalAmount().IsZero())
}

func TestDeliveryJSONCarriesTotalAndDate(t *testing.T) {
	d := Delivery{
		Model:         Model{ID: 7},
		DeliveryDate:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		SupermarketID: 1,
		Status:        DeliveryStatusPending,
		Items:         []DeliveryItem{{ProductID: 1, Quantity: 3, Price: decimal.RequireFromString("2.50")}},
	}

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, "2024-01-10", out["delivery_date"])
	require.Equal(t, "7.5", out["total_amount"])
	require.EqualValues(t, 7, out["id"])
}

func TestPasswordExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	u := &User{LastPasswordChange: now.Add(-91 * 24 * time.Hour)}

	require.True(t, u.PasswordExpired(now, 90*24*time.Hour))
	require.False(t, u.PasswordExpired(now, 0))

	u.LastPasswordChange = now.Add(-time.Hour)
	require.False(t, u.PasswordExpired(now, 90*24*time.Hour))
}

func TestDeliveryStatusValid(t *testing.T) {
	require.True(t, DeliveryStatusCancelled.Valid())
	require.False(t, DeliveryStatus("lost").Valid())
}
