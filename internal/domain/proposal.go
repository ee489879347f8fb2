package domain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrProposalResolved = errors.New("proposal already committed or discarded")

// CommitFunc applies a reviewed proposal and reports how many items it affected.
type CommitFunc[T any] func(ctx context.Context, items []T) (int, error)

// Proposal is an oracle-derived change that is held for review. Nothing is
// applied until Commit is called, and it can be applied at most once.
type Proposal[T any] struct {
	ID          string
	Instruction string
	Items       []T
	CreatedAt   time.Time

	mu       sync.Mutex
	commit   CommitFunc[T]
	resolved bool
}

// NewProposal wraps items for review.
func NewProposal[T any](instruction string, items []T, commit CommitFunc[T]) *Proposal[T] {
	return &Proposal[T]{
		ID:          uuid.New().String()[:8],
		Instruction: instruction,
		Items:       items,
		CreatedAt:   time.Now(),
		commit:      commit,
	}
}

// Empty reports whether the proposal has nothing to apply.
func (p *Proposal[T]) Empty() bool { return len(p.Items) == 0 }

// Commit applies exactly the reviewed items. The proposal is resolved only
// when the commit succeeds; after an error it can be committed again.
func (p *Proposal[T]) Commit(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return 0, ErrProposalResolved
	}
	if len(p.Items) == 0 {
		p.resolved = true
		return 0, nil
	}
	n, err := p.commit(ctx, p.Items)
	if err != nil {
		return n, err
	}
	p.resolved = true
	return n, nil
}

// Discard drops the proposal without applying it.
func (p *Proposal[T]) Discard() {
	p.mu.Lock()
	p.resolved = true
	p.mu.Unlock()
}
