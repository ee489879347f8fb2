package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"quoterag/internal/domain"
)

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// that models add despite being asked not to.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var errTrailingContent = errors.New("unexpected content after the JSON value")

// DecodeJSON strips a code fence from raw and decodes it into v. The reply
// must be exactly one JSON value. Any failure is an *domain.OracleFormatError
// carrying the untouched raw text.
func DecodeJSON(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(StripCodeFence(raw))))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &domain.OracleFormatError{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return &domain.OracleFormatError{Raw: raw, Err: errTrailingContent}
	}
	return nil
}
