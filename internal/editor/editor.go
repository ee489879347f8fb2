package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quoterag/internal/domain"
	"quoterag/internal/logger"
	"quoterag/internal/oracle"
)

// Catalog is the part of the catalog manager the editor needs.
type Catalog interface {
	List(ctx context.Context) ([]domain.PriceEntry, error)
	Delete(ctx context.Context, ids []string) error
}

// Editor resolves natural-language instructions ("remove all bolts") to
// concrete entries. Matching and applying are separate steps: nothing is
// deleted until the reviewed ids are committed.
type Editor struct {
	catalog Catalog
	oracle  domain.Oracle
}

func New(catalog Catalog, o domain.Oracle) *Editor {
	return &Editor{catalog: catalog, oracle: o}
}

// FactLine renders an entry tagged with its id so the oracle can answer with ids.
func FactLine(e domain.PriceEntry) string {
	return fmt.Sprintf("[%s] name:%s spec:%s unit:%s price:%s supplier:%s",
		e.ID, e.Name, e.Spec, e.Unit, strconv.FormatFloat(e.Price, 'f', -1, 64), e.Supplier)
}

const matchPromptTemplate = `You manage a supplier price library. Below is every entry, each tagged with its id in square brackets.

%s

Instruction from the operator:
%s

Return the ids of ALL entries the instruction refers to, and no others. Reply with JSON only, no markdown, in exactly this shape:
{"ids":["id1","id2"]}
If nothing matches, reply {"ids":[]}.`

// ProposeMatches asks the oracle which entries the instruction refers to and
// returns them as a proposal. Ids the oracle invents are dropped.
func (e *Editor) ProposeMatches(ctx context.Context, instruction string) (*domain.Proposal[domain.PriceEntry], error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, &domain.ValidationError{Field: "query", Reason: "required"}
	}

	entries, err := e.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	commit := func(ctx context.Context, items []domain.PriceEntry) (int, error) {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		return e.CommitDeletion(ctx, ids)
	}
	if len(entries) == 0 {
		return domain.NewProposal(instruction, []domain.PriceEntry{}, commit), nil
	}

	lines := make([]string, len(entries))
	byID := make(map[string]domain.PriceEntry, len(entries))
	for i, en := range entries {
		lines[i] = FactLine(en)
		byID[en.ID] = en
	}

	raw, err := e.oracle.Complete(ctx, fmt.Sprintf(matchPromptTemplate, strings.Join(lines, "\n"), strings.TrimSpace(instruction)))
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	ids, err := parseIDs(raw)
	if err != nil {
		return nil, err
	}

	matches := []domain.PriceEntry{}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.Trim(strings.TrimSpace(id), "[]")
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		en, ok := byID[id]
		if !ok {
			logger.Warn("oracle proposed unknown id", "id", id)
			continue
		}
		matches = append(matches, en)
	}
	logger.Info("delete proposal", "instruction", instruction, "matches", len(matches))
	return domain.NewProposal(instruction, matches, commit), nil
}

// CommitDeletion deletes exactly the given ids and reports how many were
// requested. It never re-asks the oracle.
func (e *Editor) CommitDeletion(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := e.catalog.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// parseIDs accepts either a bare JSON array of ids or an object with an
// "ids" array.
func parseIDs(raw string) ([]string, error) {
	body := oracle.StripCodeFence(raw)
	if strings.HasPrefix(body, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(body), &ids); err != nil {
			return nil, &domain.OracleFormatError{Raw: raw, Err: err}
		}
		return ids, nil
	}
	var out struct {
		IDs *[]string `json:"ids"`
	}
	if err := oracle.DecodeJSON(raw, &out); err != nil {
		return nil, err
	}
	if out.IDs == nil {
		return nil, &domain.OracleFormatError{Raw: raw, Err: errors.New(`missing "ids" field`)}
	}
	return *out.IDs, nil
}
