package archive

import (
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 10, 17, 23, 30, 0, 0, time.FixedZone("CST", 8*3600))
	tests := []struct {
		filename string
		want     string
	}{
		{"prices.xlsx", "imports/2026/10/17/abc-prices.xlsx"},
		{"../../etc/passwd", "imports/2026/10/17/abc-passwd"},
		{`C:\uploads\华东五金.txt`, "imports/2026/10/17/abc-华东五金.txt"},
		{"", "imports/2026/10/17/abc-upload"},
	}
	for _, tt := range tests {
		if got := ObjectKey(at, "abc", tt.filename); got != tt.want {
			t.Errorf("ObjectKey(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a.XLSX"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("xlsx content type: %q", got)
	}
	if got := contentType("noext"); got != "application/octet-stream" {
		t.Errorf("fallback content type: %q", got)
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	if _, err := NewClient(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}
	c, err := NewClient(Config{Endpoint: "localhost:9000", Bucket: "price-imports"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.bucket != "price-imports" {
		t.Errorf("bucket = %q", c.bucket)
	}
}
