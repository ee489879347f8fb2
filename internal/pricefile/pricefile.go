// Package pricefile reads the line-oriented supplier price list format:
//
//	供应商：华东五金
//	品名：螺栓，规格：M8x30，单位：个，单价：0.5元
//
// A supplier marker line sets the supplier for every item line that follows
// it. An ASCII spelling (supplier: / name: …, spec: …, unit: …, price: …) is
// accepted as well. Lines matching neither form are skipped.
package pricefile

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"quoterag/internal/domain"
)

var (
	supplierLine = regexp.MustCompile(`^(?:供应商|(?i:supplier))\s*[:：]\s*(.*)$`)
	itemLineZH   = regexp.MustCompile(`^品名\s*[:：]\s*(.+?)\s*[,，]\s*规格\s*[:：]\s*(.*?)\s*[,，]\s*单位\s*[:：]\s*(.*?)\s*[,，]\s*单价\s*[:：]\s*(.+?)\s*元`)
	itemLineEN   = regexp.MustCompile(`^(?i)name\s*:\s*(.+?)\s*,\s*spec\s*:\s*(.*?)\s*,\s*unit\s*:\s*(.*?)\s*,\s*price\s*:\s*([^\s,]+)`)
)

// Parse reads every item line from r. Prices stay raw text; validation is
// left to the catalog so bad rows are counted rather than fatal.
func Parse(r io.Reader) ([]domain.Candidate, error) {
	var items []domain.Candidate
	supplier := ""

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line == "" {
			continue
		}
		if name, ok := SupplierMarker(line); ok {
			supplier = name
			continue
		}
		m := itemLineZH.FindStringSubmatch(line)
		if m == nil {
			m = itemLineEN.FindStringSubmatch(line)
		}
		if m == nil {
			continue
		}
		items = append(items, domain.Candidate{
			Supplier: supplier,
			Name:     m[1],
			Spec:     m[2],
			Unit:     m[3],
			Price:    m[4],
		})
	}
	return items, sc.Err()
}

// SupplierMarker reports whether line is a supplier marker and, if so, the
// supplier it names.
func SupplierMarker(line string) (string, bool) {
	m := supplierLine.FindStringSubmatch(strings.TrimSpace(strings.TrimPrefix(line, "\ufeff")))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) ([]domain.Candidate, error) {
	return Parse(strings.NewReader(s))
}
