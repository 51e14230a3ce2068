package service

import (
	"context"
	"io"
	"sort"

	"example.com/backstage/services/inventory/internal/report"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// SummaryRow holds the delivered and returned totals of one supermarket
type SummaryRow struct {
	SupermarketID     uint            `json:"supermarket_id"`
	SupermarketName   string          `json:"supermarket_name"`
	Deliveries        int64           `json:"deliveries"`
	DeliveredQuantity int64           `json:"delivered_quantity"`
	DeliveredAmount   decimal.Decimal `json:"delivered_amount"`
	Returns           int64           `json:"returns"`
	ReturnedQuantity  int64           `json:"returned_quantity"`
	ReturnedAmount    decimal.Decimal `json:"returned_amount"`
	NetAmount         decimal.Decimal `json:"net_amount"`
}

// Summary is the per-supermarket report over a date range
type Summary struct {
	Rows            []SummaryRow    `json:"rows"`
	DeliveredAmount decimal.Decimal `json:"delivered_amount"`
	ReturnedAmount  decimal.Decimal `json:"returned_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
}

// Summary totals deliveries by delivery date and returns by return date
func (s *service) Summary(ctx context.Context, filter repository.ListFilter) (*Summary, error) {
	filter.Limit, filter.Offset = 0, 0

	delivered, err := s.repo.SummarizeDeliveries(ctx, filter)
	if err != nil {
		return nil, err
	}
	returned, err := s.repo.SummarizeReturns(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make(map[uint]*SummaryRow)
	row := func(t repository.SupermarketTotal) *SummaryRow {
		r, ok := rows[t.SupermarketID]
		if !ok {
			r = &SummaryRow{
				SupermarketID:   t.SupermarketID,
				SupermarketName: t.SupermarketName,
				DeliveredAmount: decimal.Zero,
				ReturnedAmount:  decimal.Zero,
			}
			rows[t.SupermarketID] = r
		}
		return r
	}

	for _, t := range delivered {
		amount, err := parseAmount(t)
		if err != nil {
			return nil, err
		}
		r := row(t)
		r.Deliveries = t.Count
		r.DeliveredQuantity = t.Quantity
		r.DeliveredAmount = amount
	}
	for _, t := range returned {
		amount, err := parseAmount(t)
		if err != nil {
			return nil, err
		}
		r := row(t)
		r.Returns = t.Count
		r.ReturnedQuantity = t.Quantity
		r.ReturnedAmount = amount
	}

	summary := &Summary{
		Rows:            make([]SummaryRow, 0, len(rows)),
		DeliveredAmount: decimal.Zero,
		ReturnedAmount:  decimal.Zero,
	}
	for _, r := range rows {
		r.NetAmount = r.DeliveredAmount.Sub(r.ReturnedAmount)
		summary.DeliveredAmount = summary.DeliveredAmount.Add(r.DeliveredAmount)
		summary.ReturnedAmount = summary.ReturnedAmount.Add(r.ReturnedAmount)
		summary.Rows = append(summary.Rows, *r)
	}
	summary.NetAmount = summary.DeliveredAmount.Sub(summary.ReturnedAmount)

	sort.Slice(summary.Rows, func(i, j int) bool {
		if summary.Rows[i].SupermarketName != summary.Rows[j].SupermarketName {
			return summary.Rows[i].SupermarketName < summary.Rows[j].SupermarketName
		}
		return summary.Rows[i].SupermarketID < summary.Rows[j].SupermarketID
	})
	return summary, nil
}

// ExportCSV writes the filtered deliveries or returns as CSV
func (s *service) ExportCSV(ctx context.Context, kind report.Kind, filter repository.ListFilter, w io.Writer) error {
	switch kind {
	case report.KindDeliveries:
		deliveries, err := s.repo.ListDeliveries(ctx, filter)
		if err != nil {
			return err
		}
		return report.WriteDeliveries(w, deliveries)
	case report.KindReturns:
		returns, err := s.repo.ListReturns(ctx, filter)
		if err != nil {
			return err
		}
		return report.WriteReturns(w, returns)
	}
	return report.ErrUnknownKind
}

func parseAmount(t repository.SupermarketTotal) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(t.Amount)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "invalid amount %q for supermarket %d", t.Amount, t.SupermarketID)
	}
	return d, nil
}
