package aggregate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CatalogReader is the catalog access the validator needs
type CatalogReader interface {
	FindSupermarketByID(ctx context.Context, id uint) (*models.Supermarket, error)
	FindSubchainByID(ctx context.Context, id uint) (*models.Subchain, error)
	FindProductsByIDs(ctx context.Context, ids []uint) ([]*models.Product, error)
}

// Validator checks delivery and return submissions before anything is written
type Validator struct {
	catalog CatalogReader
	now     func() time.Time
}

// NewValidator creates a validator. A nil now defaults to time.Now.
func NewValidator(catalog CatalogReader, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{catalog: catalog, now: now}
}

// header is the part shared by deliveries and returns
type header struct {
	supermarketID uint
	subchainID    *uint
	items         []ItemRequest
}

// ValidateDelivery returns the delivery to persist, or a *ValidationError.
// Other errors come from catalog lookups.
func (v *Validator) ValidateDelivery(ctx context.Context, req DeliveryRequest, mode Mode) (*models.Delivery, error) {
	var vs violations

	deliveryDate, ok := parseDate(&vs, "delivery_date", "delivery date", req.DeliveryDate)
	if ok && mode == ModeCreate && deliveryDate.Before(v.today()) {
		vs.add(ReasonDateInPast, "delivery_date", "delivery date cannot be in the past")
	}

	status := models.DeliveryStatusPending
	if req.Status != "" {
		status = models.DeliveryStatus(strings.ToLower(req.Status))
		if !status.Valid() {
			vs.add(ReasonInvalidStatus, "status", fmt.Sprintf("unknown status %q", req.Status))
		}
	}

	lines, subchainID, err := v.checkBody(ctx, &vs, header{
		supermarketID: req.SupermarketID,
		subchainID:    req.SubchainID,
		items:         req.Items,
	})
	if err != nil {
		return nil, err
	}
	if err := vs.err(); err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		DeliveryDate:  deliveryDate,
		SupermarketID: req.SupermarketID,
		SubchainID:    subchainID,
		Status:        status,
		Items:         make([]models.DeliveryItem, 0, len(lines)),
	}
	for _, line := range lines {
		delivery.Items = append(delivery.Items, models.DeliveryItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}
	return delivery, nil
}

// ValidateReturn returns the return to persist, or a *ValidationError
func (v *Validator) ValidateReturn(ctx context.Context, req ReturnRequest) (*models.Return, error) {
	var vs violations

	deliveryDate, deliveryOK := parseDate(&vs, "delivery_date", "delivery date", req.DeliveryDate)
	returnDate, returnOK := parseDate(&vs, "return_date", "return date", req.ReturnDate)
	if deliveryOK && returnOK && returnDate.Before(deliveryDate) {
		vs.add(ReasonReturnBeforeDelivery, "return_date", "return date before delivery date")
	}

	lines, subchainID, err := v.checkBody(ctx, &vs, header{
		supermarketID: req.SupermarketID,
		subchainID:    req.SubchainID,
		items:         req.Items,
	})
	if err != nil {
		return nil, err
	}
	if err := vs.err(); err != nil {
		return nil, err
	}

	ret := &models.Return{
		DeliveryDate:  deliveryDate,
		ReturnDate:    returnDate,
		SupermarketID: req.SupermarketID,
		SubchainID:    subchainID,
		Items:         make([]models.ReturnItem, 0, len(lines)),
	}
	for _, line := range lines {
		ret.Items = append(ret.Items, models.ReturnItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}
	return ret, nil
}

// indexedItem is a submitted item with its position in the request
type indexedItem struct {
	index int
	ItemRequest
}

// checkBody runs the reference, item list, duplicate and value rules in that order
func (v *Validator) checkBody(ctx context.Context, vs *violations, h header) ([]indexedItem, *uint, error) {
	subchainID := h.subchainID
	if subchainID != nil && *subchainID == 0 {
		subchainID = nil
	}

	if err := v.checkReferences(ctx, vs, h.supermarketID, subchainID); err != nil {
		return nil, nil, err
	}

	lines := filterPlaceholders(h.items)
	if err := v.checkProducts(ctx, vs, lines); err != nil {
		return nil, nil, err
	}

	if len(lines) == 0 {
		vs.add(ReasonEmptyItems, "items", "at least one product is required")
	}

	seen := make(map[uint]bool, len(lines))
	reported := make(map[uint]bool)
	for _, line := range lines {
		if seen[line.ProductID] && !reported[line.ProductID] {
			vs.add(ReasonDuplicateProduct, itemField(line.index, "product_id"),
				fmt.Sprintf("product %d appears more than once", line.ProductID))
			reported[line.ProductID] = true
		}
		seen[line.ProductID] = true
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			vs.add(ReasonInvalidQuantity, itemField(line.index, "quantity"), "quantity must be greater than 0")
		}
		switch {
		case !line.Price.GreaterThan(decimal.Zero):
			vs.add(ReasonInvalidPrice, itemField(line.index, "price"), "price must be greater than 0")
		case !line.Price.Equal(line.Price.Round(PriceScale)):
			vs.add(ReasonInvalidPrice, itemField(line.index, "price"),
				fmt.Sprintf("price must have at most %d decimal places", PriceScale))
		}
	}

	return lines, subchainID, nil
}

func (v *Validator) checkReferences(ctx context.Context, vs *violations, supermarketID uint, subchainID *uint) error {
	if supermarketID == 0 {
		vs.add(ReasonSupermarketRequired, "supermarket_id", "supermarket is required")
		return nil
	}

	if _, err := v.catalog.FindSupermarketByID(ctx, supermarketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			vs.add(ReasonSupermarketNotFound, "supermarket_id",
				fmt.Sprintf("supermarket %d does not exist", supermarketID))
			return nil
		}
		return errors.Wrap(err, "failed to look up supermarket")
	}

	if subchainID == nil {
		return nil
	}
	subchain, err := v.catalog.FindSubchainByID(ctx, *subchainID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return errors.Wrap(err, "failed to look up subchain")
	}
	if subchain == nil || subchain.SupermarketID != supermarketID {
		vs.add(ReasonSubchainMismatch, "subchain_id",
			fmt.Sprintf("subchain %d does not belong to supermarket %d", *subchainID, supermarketID))
	}
	return nil
}

func (v *Validator) checkProducts(ctx context.Context, vs *violations, lines []indexedItem) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(lines))
	wanted := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if !wanted[line.ProductID] {
			wanted[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	products, err := v.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "failed to look up products")
	}
	found := make(map[uint]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}

	for _, line := range lines {
		if found[line.ProductID] {
			continue
		}
		vs.add(ReasonProductNotFound, itemField(line.index, "product_id"),
			fmt.Sprintf("product %d does not exist", line.ProductID))
		found[line.ProductID] = true
	}
	return nil
}

func (v *Validator) today() time.Time {
	y, m, d := v.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// filterPlaceholders drops rows without a product reference and keeps the
// position of the others so violations point at the submitted row
func filterPlaceholders(items []ItemRequest) []indexedItem {
	out := make([]indexedItem, 0, len(items))
	for i, item := range items {
		if item.ProductID != 0 {
			out = append(out, indexedItem{index: i, ItemRequest: item})
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

func parseDate(vs *violations, field, label, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		vs.add(ReasonDateRequired, field, label+" is required")
		return time.Time{}, false
	}
	t, err := ParseDate(raw)
	if err != nil {
		vs.add(ReasonInvalidDate, field, label+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func itemField(i int, name string) string {
	return fmt.Sprintf("items[%d].%s", i, name)
}
