package pricefile

import (
	"testing"
)

func TestParseChineseGrammar(t *testing.T) {
	doc := "\ufeff供应商：华东五金\n" +
		"品名：螺栓，规格：M8x30，单位：个，单价：0.5元\n" +
		"这是一行说明文字\n" +
		"品名：螺母，规格：M8，单位：个，单价：0.12元\n" +
		"供应商:华南涂料\n" +
		"品名：油漆，规格：5L，单位：桶，单价：120元\n"

	items, err := ParseString(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Supplier != "华东五金" || first.Name != "螺栓" || first.Spec != "M8x30" || first.Unit != "个" || first.Price != "0.5" {
		t.Errorf("unexpected first item %+v", first)
	}
	if items[2].Supplier != "华南涂料" || items[2].Price != "120" {
		t.Errorf("expected supplier switch, got %+v", items[2])
	}
}

func TestParseASCIIGrammar(t *testing.T) {
	doc := "Supplier: Acme\nname: Bolt, spec: M8x30, unit: pcs, price: 0.50\nname: Washer, spec: , unit: pcs, price: 0.02\n"
	items, err := ParseString(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %+v", items)
	}
	if items[0].Supplier != "Acme" || items[0].Name != "Bolt" || items[0].Price != "0.50" {
		t.Errorf("unexpected item %+v", items[0])
	}
	if items[1].Spec != "" {
		t.Errorf("expected empty spec, got %q", items[1].Spec)
	}
}

func TestParseItemBeforeSupplier(t *testing.T) {
	items, _ := ParseString("品名：螺栓，规格：M8，单位：个，单价：0.5元")
	if len(items) != 1 || items[0].Supplier != "" {
		t.Errorf("expected one item without supplier, got %+v", items)
	}
}
