// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data posted by the HTMX front end.

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

	"finsheet/internal/core"
)

const maxFormBytes = 64 << 10

var errMissingSession = errors.New("missing page session")

// PageParams identify the sheet and page instance a partial belongs to.
type PageParams struct {
	ConfigID  string
	SessionID string
}

// FormInput is every field of the transaction form.
type FormInput struct {
	Date        string
	Time        string
	Transaction string
	Group       string
	Subgroup    string
	Category    string
	Amount      string
	Note        string
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetAll returns every value posted under key, as checkbox groups send them.
func (p *RequestBodyParser) GetAll(key string) []string {
	var raw []string
	if p.jsonData != nil {
		switch val := p.jsonData[key].(type) {
		case []any:
			for _, v := range val {
				raw = append(raw, stringValue(v))
			}
		case nil:
		default:
			raw = []string{stringValue(val)}
		}
	} else if p.formData != nil {
		raw = p.formData[key]
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Page reads configId and sid, which every partial posts back.
func (p *RequestBodyParser) Page() (PageParams, error) {
	pp := PageParams{ConfigID: p.Get("configId"), SessionID: p.Get("sid")}
	if pp.ConfigID == "" {
		return pp, errors.New("missing configId")
	}
	if pp.SessionID == "" {
		return pp, errMissingSession
	}
	return pp, nil
}

// Form reads the transaction form fields.
func (p *RequestBodyParser) Form() FormInput {
	return FormInput{
		Date:        p.Get("date"),
		Time:        p.Get("time"),
		Transaction: p.Get("transaction"),
		Group:       p.Get("group"),
		Subgroup:    p.Get("subgroup"),
		Category:    p.Get("category"),
		Amount:      p.Get("amount"),
		Note:        p.Get("note"),
	}
}

// RowIndex reads a sheet row index and rejects anything above the header.
func (p *RequestBodyParser) RowIndex() (int, error) {
	raw := p.Get("rowIndex")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid row index %q", raw)
	}
	if err := core.ValidateRowIndex(n); err != nil {
		return 0, err
	}
	return n, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// pageQuery reads configId and sid from the query string of a GET partial.
func pageQuery(r *http.Request) PageParams {
	q := r.URL.Query()
	return PageParams{
		ConfigID:  strings.TrimSpace(q.Get("configId")),
		SessionID: strings.TrimSpace(q.Get("sid")),
	}
}
