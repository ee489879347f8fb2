package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"quoterag/internal/catalog"
	"quoterag/internal/domain"
	"quoterag/internal/embedding/hashing"
	"quoterag/internal/oracle"
	"quoterag/internal/pricefile"
	"quoterag/internal/vectorstore/memory"
)

func newTestCatalog(t *testing.T) *catalog.Manager {
	t.Helper()
	emb, _ := hashing.NewEmbedder(64)
	store := memory.NewStorage()
	if err := store.Init(context.Background(), emb.Dimension()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return catalog.NewManager(store, emb)
}

func noOracle(t *testing.T) oracle.Func {
	return func(ctx context.Context, p string) (string, error) {
		t.Fatal("oracle must not be called")
		return "", nil
	}
}

func xlsxBytes(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

func TestImportTextExtractsAndInserts(t *testing.T) {
	cat := newTestCatalog(t)
	calls := 0
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		calls++
		if !strings.Contains(p, "M8 bolts 0.5 each") {
			t.Errorf("chunk text missing from prompt: %s", p)
		}
		return "```json\n" + `[{"supplier":"Acme","name":"bolt","spec":"M8","unit":"pcs","price":0.5},{"supplier":"Acme","name":"nut","spec":"M8","unit":"pcs","price":"unknown"}]` + "\n```", nil
	})

	res, err := NewPipeline(cat, o, Options{}).ImportText(context.Background(), "Acme sells M8 bolts 0.5 each and nuts")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one oracle call, got %d", calls)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestImportTextMalformedAbortsWithoutMutation(t *testing.T) {
	cat := newTestCatalog(t)
	n := 0
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		n++
		if n == 1 {
			return `[{"supplier":"Acme","name":"bolt","price":0.5}]`, nil
		}
		return "no idea", nil
	})

	text := "line one\nline two\nline three"
	_, err := NewPipeline(cat, o, Options{LinesPerChunk: 1}).ImportText(context.Background(), text)
	if !errors.Is(err, domain.ErrOracleFormat) {
		t.Fatalf("expected OracleFormatError, got %v", err)
	}
	if c, _ := cat.Count(context.Background()); c != 0 {
		t.Errorf("expected no entries after aborted import, got %d", c)
	}
}

func TestImportTextAcceptsWrappedItems(t *testing.T) {
	cat := newTestCatalog(t)
	o := oracle.Func(func(ctx context.Context, p string) (string, error) {
		return `{"items":[{"supplier":"Acme","name":"bolt","price":"1.2元"}]}`, nil
	})
	res, err := NewPipeline(cat, o, Options{}).ImportText(context.Background(), "Acme bolt 1.2")
	if err != nil || res.Imported != 1 {
		t.Fatalf("unexpected result %+v err=%v", res, err)
	}
}

// literalExtractor answers extraction prompts with exactly the structured
// lines shown in the prompt, so only what the chunk carries is returned.
func literalExtractor(t *testing.T) oracle.Func {
	return func(ctx context.Context, p string) (string, error) {
		_, rest, ok := strings.Cut(p, "Text:\n")
		if !ok {
			t.Fatalf("prompt without text section: %s", p)
		}
		text, _, _ := strings.Cut(rest, "\n\nFor each product")
		items, err := pricefile.ParseString(text)
		if err != nil {
			t.Fatalf("parse prompt text: %v", err)
		}
		out, _ := json.Marshal(items)
		return string(out), nil
	}
}

func TestImportTextCarriesSupplierAcrossChunks(t *testing.T) {
	cat := newTestCatalog(t)
	var b strings.Builder
	b.WriteString("供应商：宏达五金\n")
	for i := 1; i <= 60; i++ {
		fmt.Fprintf(&b, "品名：螺栓%d，规格：M8，单位：个，单价：0.5元\n", i)
	}

	res, err := NewPipeline(cat, literalExtractor(t), Options{LinesPerChunk: 40}).ImportText(context.Background(), b.String())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 60 || res.Failed != 0 {
		t.Fatalf("expected all 60 items imported, got %+v", res)
	}
	entries, _ := cat.List(context.Background())
	for _, e := range entries {
		if e.Supplier != "宏达五金" {
			t.Fatalf("entry %q lost its supplier: %+v", e.Name, e)
		}
	}
}

func TestImportTextSupplierChangesBetweenChunks(t *testing.T) {
	cat := newTestCatalog(t)
	doc := "供应商：甲\n" +
		"品名：螺栓，规格：M8，单位：个，单价：0.5元\n" +
		"供应商：乙\n" +
		"品名：螺母，规格：M8，单位：个，单价：0.1元\n" +
		"品名：垫片，规格：M8，单位：个，单价：0.05元\n"

	res, err := NewPipeline(cat, literalExtractor(t), Options{LinesPerChunk: 2}).ImportText(context.Background(), doc)
	if err != nil || res.Imported != 3 {
		t.Fatalf("unexpected result %+v err=%v", res, err)
	}
	want := map[string]string{"螺栓": "甲", "螺母": "乙", "垫片": "乙"}
	entries, _ := cat.List(context.Background())
	for _, e := range entries {
		if want[e.Name] != e.Supplier {
			t.Errorf("%s: supplier %q, want %q", e.Name, e.Supplier, want[e.Name])
		}
	}
}

func TestImportTextRejectsUnexpectedObject(t *testing.T) {
	cat := newTestCatalog(t)
	raw := `{"products":[{"supplier":"Acme","name":"bolt","spec":"M8","unit":"pcs","price":0.5}]}`
	o := oracle.Func(func(ctx context.Context, p string) (string, error) { return raw, nil })

	_, err := NewPipeline(cat, o, Options{}).ImportText(context.Background(), "Acme bolt M8 0.5")
	var ofe *domain.OracleFormatError
	if !errors.As(err, &ofe) || ofe.Raw != raw {
		t.Fatalf("expected OracleFormatError carrying the reply, got %v", err)
	}
	if c, _ := cat.Count(context.Background()); c != 0 {
		t.Errorf("expected no entries, got %d", c)
	}
}

func TestImportStructuredLinesSkipsNoise(t *testing.T) {
	cat := newTestCatalog(t)
	doc := "供应商：华东五金\n" +
		"价格有效期至年底\n" +
		"品名：螺栓，规格：M8x30，单位：个，单价：0.5元\n" +
		"品名：螺母，规格：M8，单位：个，单价：面议元\n"

	res, err := NewPipeline(cat, noOracle(t), Options{}).ImportStructuredLines(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 || res.Failed != 1 {
		t.Errorf("expected 1 imported / 1 failed, got %+v", res)
	}
}

func TestImportTabularByHeader(t *testing.T) {
	cat := newTestCatalog(t)
	data := xlsxBytes(t,
		[]any{"单价(元)", "品名", "规格", "单位", "供应商"},
		[]any{0.5, "螺栓", "M8x30", "个", "华东五金"},
		[]any{nil, nil, nil, nil, nil},
		[]any{"n/a", "螺母", "M8", "个", "华东五金"},
		[]any{120, "油漆", "5L", "桶", "华南涂料"},
	)

	res, err := NewPipeline(cat, noOracle(t), Options{}).ImportTabular(context.Background(), data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 imported / 1 failed, got %+v", res)
	}

	entries, _ := cat.List(context.Background())
	if entries[0].Name != "螺栓" || entries[0].Supplier != "华东五金" || entries[0].Price != 0.5 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
}

func TestImportTabularPositionalFallback(t *testing.T) {
	cat := newTestCatalog(t)
	data := xlsxBytes(t,
		[]any{"Acme", "bolt", "M8", "pcs", 0.5},
		[]any{"Acme", "nut", "M8", "pcs", 0.1},
	)

	res, err := NewPipeline(cat, noOracle(t), Options{}).ImportTabular(context.Background(), data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 || res.Failed != 0 {
		t.Errorf("expected both rows imported as data, got %+v", res)
	}
}

func TestImportFileUnsupportedExtension(t *testing.T) {
	cat := newTestCatalog(t)
	p := NewPipeline(cat, noOracle(t), Options{})

	_, err := p.ImportFile(context.Background(), "prices.csv", []byte("Acme,bolt,M8,pcs,0.5\n"))
	var ufe *domain.UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Ext != ".csv" {
		t.Fatalf("expected UnsupportedFormatError for .csv, got %v", err)
	}
	if c, _ := cat.Count(context.Background()); c != 0 {
		t.Errorf("expected zero catalog mutation, got %d entries", c)
	}
}

func TestImportFileDispatch(t *testing.T) {
	cat := newTestCatalog(t)
	p := NewPipeline(cat, noOracle(t), Options{})

	res, err := p.ImportFile(context.Background(), "LIST.TXT", []byte("supplier: Acme\nname: bolt, spec: M8, unit: pcs, price: 0.5\n"))
	if err != nil || res.Imported != 1 {
		t.Fatalf("txt import: %+v %v", res, err)
	}

	res, err = p.ImportFile(context.Background(), "prices.xlsx", xlsxBytes(t, []any{"supplier", "name", "price"}, []any{"Acme", "nut", 0.1}))
	if err != nil {
		t.Fatalf("xlsx import: %v", err)
	}
	if res.Imported != 1 {
		t.Errorf("expected header-mapped xlsx row imported, got %+v", res)
	}

	if _, err := p.ImportFile(context.Background(), "broken.xlsx", []byte("not a zip")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for corrupt workbook, got %v", err)
	}
}

func TestColumnResolve(t *testing.T) {
	idx, ok := DefaultColumns.resolve([]string{" Price (USD) ", "Product", "Vendor"})
	if !ok {
		t.Fatal("expected header to be recognised")
	}
	if idx["price"] != 0 || idx["name"] != 1 || idx["supplier"] != 2 || idx["spec"] != -1 {
		t.Errorf("unexpected mapping %v", idx)
	}

	idx, ok = DefaultColumns.resolve([]string{"Acme", "bolt", "M8", "pcs", "0.5"})
	if ok {
		t.Fatal("data row must not be taken for a header")
	}
	if idx["supplier"] != 0 || idx["price"] != 4 {
		t.Errorf("unexpected positional mapping %v", idx)
	}
}
