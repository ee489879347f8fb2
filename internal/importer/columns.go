package importer

import "strings"

// Column maps one candidate field to the header labels that may name it in
// a spreadsheet, and the column to use when no label is present.
type Column struct {
	Field    string
	Labels   []string
	Fallback int
}

// ColumnTable is the full spreadsheet mapping, one Column per field.
type ColumnTable []Column

// DefaultColumns matches the layouts suppliers commonly send: supplier,
// name, spec, unit, price in that order, labelled in Chinese or English.
var DefaultColumns = ColumnTable{
	{Field: "supplier", Labels: []string{"供应商", "供货商", "supplier", "vendor"}, Fallback: 0},
	{Field: "name", Labels: []string{"品名", "名称", "产品名称", "name", "product"}, Fallback: 1},
	{Field: "spec", Labels: []string{"规格", "型号", "spec", "specification"}, Fallback: 2},
	{Field: "unit", Labels: []string{"单位", "unit"}, Fallback: 3},
	{Field: "price", Labels: []string{"单价", "价格", "price", "unit price", "cost"}, Fallback: 4},
}

// resolve returns field → column index for a header row, and whether any
// header label was recognised at all. Without a recognised label every field
// takes its fallback position; with one, unlabelled fields map to -1.
func (t ColumnTable) resolve(header []string) (map[string]int, bool) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeLabel(h)
	}

	byLabel := make(map[string]int, len(t))
	for _, col := range t {
		byLabel[col.Field] = -1
		for _, label := range col.Labels {
			if i := indexOf(normalized, normalizeLabel(label)); i >= 0 {
				byLabel[col.Field] = i
				break
			}
		}
	}
	for _, i := range byLabel {
		if i >= 0 {
			return byLabel, true
		}
	}

	positional := make(map[string]int, len(t))
	for _, col := range t {
		positional[col.Field] = col.Fallback
	}
	return positional, false
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// "单价(元)" / "price (USD)" still name the price column
	if i := strings.IndexAny(s, "(（"); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
