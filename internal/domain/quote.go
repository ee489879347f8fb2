package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quote is the structured quotation produced per request. It is never stored.
type Quote struct {
	Items       []LineItem `json:"items"`
	TotalAmount Amount     `json:"total_amount"`
	TotalCost   Amount     `json:"total_cost"`
	Note        string     `json:"note,omitempty"`
}

// LineItem is one priced row of a quote.
type LineItem struct {
	Name      string `json:"name"`
	Spec      string `json:"spec"`
	Unit      string `json:"unit"`
	CostPrice Amount `json:"cost_price"`
	UnitPrice Amount `json:"unit_price"`
	Quantity  Amount `json:"quantity"`
	Total     Amount `json:"total"`
	Supplier  string `json:"supplier"`
}

// Amount is a JSON number that also accepts a quoted number on input; models
// sometimes emit "12.5" instead of 12.5.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q is not a number", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}
