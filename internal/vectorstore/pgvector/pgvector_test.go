package pgvector

import "testing"

func TestToVectorLiteral(t *testing.T) {
	lit, err := toVectorLiteral([]float32{0.5, -1, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit != "[0.5,-1,0]" {
		t.Errorf("unexpected literal %q", lit)
	}

	if _, err := toVectorLiteral([]float32{1, 2}, 3); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := toVectorLiteral(nil, 0); err == nil {
		t.Error("expected error for empty embedding")
	}
}
