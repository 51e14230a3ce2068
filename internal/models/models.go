package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Model is the base model with common fields for all database entities.
// Rows are removed physically, there is no soft delete.
type Model struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeliveryStatus is the lifecycle state of a delivery
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusReturned  DeliveryStatus = "returned"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusDelivered, DeliveryStatusReturned, DeliveryStatusCancelled:
		return true
	}
	return false
}

// Supermarket owns its subchains and its delivery/return history
type Supermarket struct {
	Model
	Name          string     `json:"name" gorm:"Column:name;size:100;not null"`
	Address       string     `json:"address" gorm:"Column:address;size:200"`
	ContactPerson string     `json:"contact_person,omitempty" gorm:"Column:contact_person;size:100"`
	Phone         string     `json:"phone,omitempty" gorm:"Column:phone;size:20"`
	Email         string     `json:"email,omitempty" gorm:"Column:email;size:120"`
	Subchains     []Subchain `json:"subchains,omitempty" gorm:"foreignKey:SupermarketID"`
}

// Subchain is a named sub-location of exactly one supermarket
type Subchain struct {
	Model
	Name          string       `json:"name" gorm:"Column:name;size:100;not null;uniqueIndex:idx_subchain_name_supermarket"`
	SupermarketID uint         `json:"supermarket_id" gorm:"Column:supermarket_id;not null;uniqueIndex:idx_subchain_name_supermarket"`
	Supermarket   *Supermarket `json:"-" gorm:"foreignKey:SupermarketID;constraint:OnDelete:CASCADE"`
	Address       string       `json:"address,omitempty" gorm:"Column:address;size:200"`
	ContactPerson string       `json:"contact_person,omitempty" gorm:"Column:contact_person;size:100"`
	Phone         string       `json:"phone,omitempty" gorm:"Column:phone;size:20"`
	Email         string       `json:"email,omitempty" gorm:"Column:email;size:120"`
}

// Product is a catalog entry. Its price is only a suggestion for new line items.
type Product struct {
	Model
	Name   string          `json:"name" gorm:"Column:name;size:100;not null"`
	Price  decimal.Decimal `json:"price" gorm:"Column:price;type:decimal(12,2);not null"`
	Weight decimal.Decimal `json:"weight" gorm:"Column:weight;type:decimal(10,3);not null"`
}

// LineItem is one product/quantity/price row of an aggregate
type LineItem interface {
	LineQuantity() int
	LinePrice() decimal.Decimal
}

// Subtotal returns quantity × price of a single line
func Subtotal(l LineItem) decimal.Decimal {
	return l.LinePrice().Mul(decimal.NewFromInt(int64(l.LineQuantity())))
}

// SumLines returns the sum of quantity × price over items
func SumLines[T LineItem](items []T) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(Subtotal(item))
	}
	return total
}

// Delivery is a delivery of products to a supermarket together with its items
type Delivery struct {
	Model
	DeliveryDate  time.Time      `json:"delivery_date" gorm:"Column:delivery_date;type:date;not null;index"`
	SupermarketID uint           `json:"supermarket_id" gorm:"Column:supermarket_id;not null;index"`
	Supermarket   *Supermarket   `json:"supermarket,omitempty" gorm:"foreignKey:SupermarketID;constraint:OnDelete:CASCADE"`
	SubchainID    *uint          `json:"subchain_id" gorm:"Column:subchain_id;index"`
	Subchain      *Subchain      `json:"subchain,omitempty" gorm:"foreignKey:SubchainID;constraint:OnDelete:SET NULL"`
	Status        DeliveryStatus `json:"status" gorm:"Column:status;size:20;not null;default:pending"`
	CreatedBy     *uint          `json:"created_by" gorm:"Column:created_by"`
	Items         []DeliveryItem `json:"items" gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

// TotalAmount is derived from the items on every call
func (d *Delivery) TotalAmount() decimal.Decimal {
	return SumLines(d.Items)
}

// MarshalJSON adds the derived total to the JSON form
func (d Delivery) MarshalJSON() ([]byte, error) {
	type delivery Delivery
	return json.Marshal(struct {
		delivery
		DeliveryDate string          `json:"delivery_date"`
		TotalAmount  decimal.Decimal `json:"total_amount"`
	}{
		delivery:     delivery(d),
		DeliveryDate: FormatDate(d.DeliveryDate),
		TotalAmount:  d.TotalAmount(),
	})
}

// DeliveryItem holds the price snapshot taken when the delivery was recorded
type DeliveryItem struct {
	ID         uint            `json:"id" gorm:"primarykey"`
	DeliveryID uint            `json:"delivery_id" gorm:"Column:delivery_id;not null;index"`
	ProductID  uint            `json:"product_id" gorm:"Column:product_id;not null;index"`
	Product    *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity   int             `json:"quantity" gorm:"Column:quantity;not null"`
	Price      decimal.Decimal `json:"price" gorm:"Column:price;type:decimal(12,2);not null"`
}

func (i DeliveryItem) LineQuantity() int          { return i.Quantity }
func (i DeliveryItem) LinePrice() decimal.Decimal { return i.Price }

// Return records products taken back from a supermarket
type Return struct {
	Model
	DeliveryDate  time.Time    `json:"delivery_date" gorm:"Column:delivery_date;type:date;not null"`
	ReturnDate    time.Time    `json:"return_date" gorm:"Column:return_date;type:date;not null;index"`
	SupermarketID uint         `json:"supermarket_id" gorm:"Column:supermarket_id;not null;index"`
	Supermarket   *Supermarket `json:"supermarket,omitempty" gorm:"foreignKey:SupermarketID;constraint:OnDelete:CASCADE"`
	SubchainID    *uint        `json:"subchain_id" gorm:"Column:subchain_id;index"`
	Subchain      *Subchain    `json:"subchain,omitempty" gorm:"foreignKey:SubchainID;constraint:OnDelete:SET NULL"`
	CreatedBy     *uint        `json:"created_by" gorm:"Column:created_by"`
	Items         []ReturnItem `json:"items" gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
}

// TotalAmount is derived from the items on every call
func (r *Return) TotalAmount() decimal.Decimal {
	return SumLines(r.Items)
}

// MarshalJSON adds the derived total to the JSON form
func (r Return) MarshalJSON() ([]byte, error) {
	type ret Return
	return json.Marshal(struct {
		ret
		DeliveryDate string          `json:"delivery_date"`
		ReturnDate   string          `json:"return_date"`
		TotalAmount  decimal.Decimal `json:"total_amount"`
	}{
		ret:          ret(r),
		DeliveryDate: FormatDate(r.DeliveryDate),
		ReturnDate:   FormatDate(r.ReturnDate),
		TotalAmount:  r.TotalAmount(),
	})
}

// ReturnItem holds the price snapshot taken when the return was recorded
type ReturnItem struct {
	ID        uint            `json:"id" gorm:"primarykey"`
	ReturnID  uint            `json:"return_id" gorm:"Column:return_id;not null;index"`
	ProductID uint            `json:"product_id" gorm:"Column:product_id;not null;index"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity  int             `json:"quantity" gorm:"Column:quantity;not null"`
	Price     decimal.Decimal `json:"price" gorm:"Column:price;type:decimal(12,2);not null"`
}

func (i ReturnItem) LineQuantity() int          { return i.Quantity }
func (i ReturnItem) LinePrice() decimal.Decimal { return i.Price }

// DateLayout is the calendar date format used on the wire and in reports
const DateLayout = "2006-01-02"

// FormatDate renders a date column, zero dates render empty
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
