package aggregate

import (
	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a line price may carry
const PriceScale = 2

// ItemRequest is one submitted line. ProductID 0 marks the blank row the
// client seeds its form with and is dropped before validation.
type ItemRequest struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// DeliveryRequest is the payload for creating or editing a delivery
type DeliveryRequest struct {
	DeliveryDate  string        `json:"delivery_date"`
	SupermarketID uint          `json:"supermarket_id"`
	SubchainID    *uint         `json:"subchain_id"`
	Status        string        `json:"status"`
	Items         []ItemRequest `json:"items"`
}

// ReturnRequest is the payload for creating or editing a return
type ReturnRequest struct {
	DeliveryDate  string        `json:"delivery_date"`
	ReturnDate    string        `json:"return_date"`
	SupermarketID uint          `json:"supermarket_id"`
	SubchainID    *uint         `json:"subchain_id"`
	Items         []ItemRequest `json:"items"`
}

// Mode tells the validator whether the aggregate is new
type Mode int

const (
	// ModeCreate applies every rule
	ModeCreate Mode = iota
	// ModeEdit skips the delivery date in the past rule
	ModeEdit
)
