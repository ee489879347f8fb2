package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is the text embedded for retrieval.
func (e PriceEntry) Document() string {
	return fmt.Sprintf("%s %s supplier:%s", e.Name, e.Spec, e.Supplier)
}

// Entry validates the candidate and returns it as an entry without an id.
func (c Candidate) Entry() (PriceEntry, error) {
	supplier := strings.TrimSpace(c.Supplier)
	if supplier == "" {
		return PriceEntry{}, &ValidationError{Field: "supplier", Reason: "required"}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return PriceEntry{}, &ValidationError{Field: "name", Reason: "required"}
	}
	price, err := CoercePrice(c.Price)
	if err != nil {
		return PriceEntry{}, err
	}
	return PriceEntry{
		Supplier: supplier,
		Name:     name,
		Spec:     strings.TrimSpace(c.Spec),
		Unit:     strings.TrimSpace(c.Unit),
		Price:    price,
	}, nil
}

// priceDecorations are currency marks commonly left around a number in
// supplier price lists.
var priceDecorations = strings.NewReplacer("元", "", "¥", "", "￥", "", "$", "", "RMB", "", ",", "", "，", "")

// CoercePrice turns a raw price (JSON number, numeric string, int) into a
// non-negative float.
func CoercePrice(v any) (float64, error) {
	var f float64
	switch p := v.(type) {
	case nil:
		return 0, &ValidationError{Field: "price", Reason: "required"}
	case float64:
		f = p
	case float32:
		f = float64(p)
	case int:
		f = float64(p)
	case int64:
		f = float64(p)
	case json.Number:
		parsed, err := p.Float64()
		if err != nil {
			return 0, &ValidationError{Field: "price", Reason: fmt.Sprintf("%q is not a number", p.String())}
		}
		f = parsed
	case string:
		s := strings.TrimSpace(priceDecorations.Replace(p))
		if s == "" {
			return 0, &ValidationError{Field: "price", Reason: "required"}
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ValidationError{Field: "price", Reason: fmt.Sprintf("%q is not a number", p)}
		}
		f = parsed
	default:
		return 0, &ValidationError{Field: "price", Reason: fmt.Sprintf("unsupported type %T", v)}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: "price", Reason: "not a finite number"}
	}
	if f < 0 {
		return 0, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return f, nil
}
