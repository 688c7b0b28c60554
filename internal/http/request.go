package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finledger/internal/core"
	"finledger/internal/ledger"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// requestBodyParser reads a body once and serves fields from it, whether it
// was sent as JSON or as a form.
type requestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func newRequestBodyParser(w http.ResponseWriter, r *http.Request) *requestBodyParser {
	p := &requestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

func (p *requestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
		return p.err
	}
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: malformed form body: %v", errBadRequest, p.err)
	}
	return p.err
}

// Get returns the field as text, or "" when absent.
func (p *requestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

func parseEntryInput(w http.ResponseWriter, r *http.Request) (core.EntryInput, error) {
	p := newRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return core.EntryInput{}, err
	}
	kind := p.Get("kind")
	if kind == "" {
		kind = p.Get("type")
	}
	return core.EntryInput{
		Date:        p.Get("date"),
		Kind:        kind,
		Category:    p.Get("category"),
		Amount:      p.Get("amount"),
		Description: p.Get("description"),
	}, nil
}

func parseID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid entry id %q", errBadRequest, text)
	}
	return id, nil
}

// parseListOptions reads ?sort= and ?order=asc|desc.
func parseListOptions(q url.Values) (ledger.ListOptions, error) {
	field, err := core.ParseSortField(q.Get("sort"))
	if err != nil {
		return ledger.ListOptions{}, err
	}
	opts := ledger.ListOptions{SortBy: field}
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "asc":
	case "desc":
		opts.Desc = true
	default:
		return ledger.ListOptions{}, fmt.Errorf("%w: order must be asc or desc", errBadRequest)
	}
	return opts, nil
}
