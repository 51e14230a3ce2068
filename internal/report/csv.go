package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"example.com/backstage/services/inventory/internal/models"

	"github.com/pkg/errors"
)

// Kind selects which aggregates a report covers
type Kind string

const (
	KindDeliveries Kind = "deliveries"
	KindReturns    Kind = "returns"
)

// ErrUnknownKind is returned for report kinds other than deliveries and returns
var ErrUnknownKind = errors.New("unknown report kind")

// ParseKind accepts "deliveries" or "returns"
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDeliveries, KindReturns:
		return Kind(s), nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

var (
	deliveryHeader = []string{
		"delivery_id", "delivery_date", "supermarket", "subchain", "status",
		"product", "quantity", "price", "subtotal", "total_amount",
	}
	returnHeader = []string{
		"return_id", "delivery_date", "return_date", "supermarket", "subchain",
		"product", "quantity", "price", "subtotal", "total_amount",
	}
)

// WriteDeliveries writes one row per delivery item. The aggregate total is
// repeated on each row of the same delivery.
func WriteDeliveries(w io.Writer, deliveries []*models.Delivery) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(deliveryHeader); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for _, d := range deliveries {
		total := d.TotalAmount().StringFixed(2)
		for _, item := range d.Items {
			row := []string{
				strconv.FormatUint(uint64(d.ID), 10),
				models.FormatDate(d.DeliveryDate),
				supermarketName(d.Supermarket),
				subchainName(d.Subchain),
				string(d.Status),
				productName(item.Product, item.ProductID),
				strconv.Itoa(item.Quantity),
				item.Price.StringFixed(2),
				models.Subtotal(item).StringFixed(2),
				total,
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "failed to write delivery %d", d.ID)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteReturns writes one row per return item
func WriteReturns(w io.Writer, returns []*models.Return) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(returnHeader); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for _, r := range returns {
		total := r.TotalAmount().StringFixed(2)
		for _, item := range r.Items {
			row := []string{
				strconv.FormatUint(uint64(r.ID), 10),
				models.FormatDate(r.DeliveryDate),
				models.FormatDate(r.ReturnDate),
				supermarketName(r.Supermarket),
				subchainName(r.Subchain),
				productName(item.Product, item.ProductID),
				strconv.Itoa(item.Quantity),
				item.Price.StringFixed(2),
				models.Subtotal(item).StringFixed(2),
				total,
			}
			if err := cw.Write(row); err != nil {
				return errors.Wrapf(err, "failed to write return %d", r.ID)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func supermarketName(s *models.Supermarket) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func subchainName(s *models.Subchain) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func productName(p *models.Product, id uint) string {
	if p == nil {
		return "#" + strconv.FormatUint(uint64(id), 10)
	}
	return p.Name
}
