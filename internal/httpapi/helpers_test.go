package httpapi

import "quoterag/internal/domain"

func catalogCandidate(supplier, name, spec, unit string, price float64) domain.Candidate {
	return domain.Candidate{Supplier: supplier, Name: name, Spec: spec, Unit: unit, Price: price}
}
