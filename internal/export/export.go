// Package export renders portfolios as spreadsheet reports.
package export

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/soltools/portfolio/internal/domain"
)

// Row is one holding in a report.
type Row struct {
	N       int
	Symbol  string
	Name    string
	Mint    string
	Balance decimal.Decimal
	Price   *decimal.Decimal
	Value   *decimal.Decimal
	// Share is the holding's percentage of the portfolio total, nil when the
	// token is unpriced or the total is zero.
	Share *decimal.Decimal
}

// ReportWriter writes report rows to a spreadsheet destination.
type ReportWriter interface {
	Write(ctx context.Context, address string, rows []Row) error
}

// Service turns portfolios into report rows and delegates writing.
type Service struct {
	writer ReportWriter
}

// NewService creates a new export Service.
func NewService(writer ReportWriter) *Service {
	return &Service{writer: writer}
}

// Export renders the portfolio and writes it to the configured destination.
func (s *Service) Export(ctx context.Context, p domain.Portfolio) error {
	return s.writer.Write(ctx, p.Address, BuildRows(p))
}

// BuildRows converts a portfolio into numbered report rows, preserving the
// portfolio's token order.
func BuildRows(p domain.Portfolio) []Row {
	hundred := decimal.NewFromInt(100)

	rows := make([]Row, 0, len(p.Tokens))
	for i, t := range p.Tokens {
		row := Row{
			N:       i + 1,
			Symbol:  t.Symbol,
			Name:    t.Name,
			Mint:    t.Mint,
			Balance: t.UIBalance,
			Price:   t.Price,
			Value:   t.Value,
		}
		if t.Value != nil && !p.TotalValue.IsZero() {
			share := t.Value.Div(p.TotalValue).Mul(hundred)
			row.Share = &share
		}
		rows = append(rows, row)
	}
	return rows
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
