package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"quoterag/internal/domain"
)

var tolerance = decimal.NewFromFloat(0.01)

// Mismatch is one figure in a quote that disagrees with its recomputation.
type Mismatch struct {
	Field string
	Got   decimal.Decimal
	Want  decimal.Decimal
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: got %s, want %s", m.Field, m.Got.String(), m.Want.String())
}

type Mismatches []Mismatch

func (ms Mismatches) String() string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return strings.Join(parts, "; ")
}

func dec(a domain.Amount) decimal.Decimal {
	return decimal.NewFromFloat(float64(a))
}

// Verify recomputes the quote's arithmetic in decimal and reports every
// figure that is off by more than 0.01. The quote itself is not modified.
func Verify(q *domain.Quote, margin float64) Mismatches {
	var out Mismatches
	check := func(field string, got, want decimal.Decimal) {
		if got.Sub(want).Abs().GreaterThan(tolerance) {
			out = append(out, Mismatch{Field: field, Got: got, Want: want})
		}
	}

	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(margin))
	sumTotal := decimal.Zero
	sumCost := decimal.Zero
	for i, it := range q.Items {
		cost, price, qty, total := dec(it.CostPrice), dec(it.UnitPrice), dec(it.Quantity), dec(it.Total)
		label := fmt.Sprintf("items[%d]", i)
		if it.CostPrice > 0 {
			check(label+".unit_price", price, cost.Mul(factor))
		}
		check(label+".total", total, price.Mul(qty))
		sumTotal = sumTotal.Add(total)
		sumCost = sumCost.Add(cost.Mul(qty))
	}
	check("total_amount", dec(q.TotalAmount), sumTotal)
	if q.TotalCost != 0 || !sumCost.IsZero() {
		check("total_cost", dec(q.TotalCost), sumCost)
	}
	return out
}
