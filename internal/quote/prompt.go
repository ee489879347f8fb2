package quote

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"quoterag/internal/domain"
)

// FactLine renders one retrieved entry as a grounding fact.
func FactLine(e domain.PriceEntry) string {
	unit := e.Unit
	if unit == "" {
		unit = "unit"
	}
	return fmt.Sprintf("name:%s spec:%s unit cost:%s per %s supplier:%s",
		e.Name, e.Spec, formatNumber(e.Price), unit, e.Supplier)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const promptTemplate = `You are the quotation assistant of a hardware trading company. Build a price quotation for the customer inquiry using ONLY the candidate products listed below.

Customer inquiry:
%s

Candidate products (unit cost is our purchase price):
%s

Margin: %s (%s%% over cost)

Instructions:
1. Select the candidate products that best match the inquiry. Never invent products, specs or suppliers that are not listed.
2. Infer the quantity of each selected product from the inquiry; use 1 if no quantity is given.
3. For each item set cost_price to the unit cost, unit_price = cost_price * (1 + %s), total = unit_price * quantity.
4. Set total_amount to the sum of item totals and total_cost to the sum of cost_price * quantity.
5. Reply with JSON only, no markdown and no commentary, in exactly this shape:
{"items":[{"name":"","spec":"","unit":"","cost_price":0,"unit_price":0,"quantity":0,"total":0,"supplier":""}],"total_amount":0,"total_cost":0,"note":""}`

// BuildPrompt assembles the grounding prompt for one inquiry.
func BuildPrompt(inquiry string, facts []string, margin float64) string {
	m := formatNumber(margin)
	pct := decimal.NewFromFloat(margin).Shift(2).String()
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(inquiry), strings.Join(facts, "\n"), m, pct, m)
}
