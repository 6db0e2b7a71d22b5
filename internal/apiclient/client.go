// Package apiclient talks to the finsheet API on behalf of the web front end.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"finsheet/internal/core"
	"finsheet/internal/idempotency"
	"finsheet/internal/sheetconfig"
)

// IdempotencyHeader carries the submit key on POST /append.
const IdempotencyHeader = idempotency.Header

var ErrMissingConfigID = errors.New("missing configId")

// StatusError is a non-2xx answer. Body is the server's text, shown to the
// user as is.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

const configsKey = "configs"

func readKey(configID string) string { return "read:" + configID }

// Client calls the API. Concurrent identical reads share one request. A
// write through the client drops any read in flight for the same data, so
// reads issued after the write see it.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	reads   singleflight.Group
}

// New creates a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient uses hc for every request.
func NewWithHTTPClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse API base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API base URL %q must be http or https", baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: u, http: hc}, nil
}

func (c *Client) endpoint(path, configID string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if configID != "" {
		u.RawQuery = url.Values{"configId": {configID}}.Encode()
	}
	return u.String()
}

// do sends the request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, target string, body any, header http.Header) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// shared runs fn once for concurrent callers of key. The request is not
// bound to any one caller's cancellation; each caller stops waiting when its
// own ctx ends. The HTTP client timeout still bounds the request.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.reads.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Append posts a transaction. A non-empty key is sent as Idempotency-Key.
// The server's confirmation text is returned.
func (c *Client) Append(ctx context.Context, configID, key string, rec core.Record) (string, error) {
	if configID == "" {
		return "", ErrMissingConfigID
	}
	h := http.Header{}
	if key != "" {
		h.Set(IdempotencyHeader, key)
	}
	data, err := c.do(ctx, http.MethodPost, c.endpoint("/append", configID), rec, h)
	c.reads.Forget(readKey(configID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadSheet returns every row of the configured range, header first.
func (c *Client) ReadSheet(ctx context.Context, configID string) ([][]any, error) {
	if configID == "" {
		return nil, ErrMissingConfigID
	}
	v, err := c.shared(ctx, readKey(configID), func(ctx context.Context) (any, error) {
		data, err := c.do(ctx, http.MethodGet, c.endpoint("/read-sheet", configID), nil, nil)
		if err != nil {
			return nil, err
		}
		return core.DecodeValues(data)
	})
	if err != nil {
		return nil, err
	}
	return v.([][]any), nil
}

// DeleteRow removes one sheet row.
func (c *Client) DeleteRow(ctx context.Context, configID string, rowIndex int) (string, error) {
	if configID == "" {
		return "", ErrMissingConfigID
	}
	data, err := c.do(ctx, http.MethodDelete, c.endpoint("/delete-row/"+strconv.Itoa(rowIndex), configID), nil, nil)
	c.reads.Forget(readKey(configID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeleteRows removes rows in the order given. Callers sort highest first.
func (c *Client) DeleteRows(ctx context.Context, configID string, rowIndices []int) (string, error) {
	if configID == "" {
		return "", ErrMissingConfigID
	}
	if rowIndices == nil {
		rowIndices = []int{}
	}
	data, err := c.do(ctx, http.MethodDelete, c.endpoint("/delete-rows", configID), rowIndices, nil)
	c.reads.Forget(readKey(configID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CloneRow appends a copy of a row.
func (c *Client) CloneRow(ctx context.Context, configID string, rowIndex int) (string, error) {
	if configID == "" {
		return "", ErrMissingConfigID
	}
	body := map[string]int{"rowIndex": rowIndex}
	data, err := c.do(ctx, http.MethodPost, c.endpoint("/clone-row", configID), body, nil)
	c.reads.Forget(readKey(configID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListConfigs returns the current user's sheet configs.
func (c *Client) ListConfigs(ctx context.Context) ([]sheetconfig.SheetConfig, error) {
	v, err := c.shared(ctx, configsKey, func(ctx context.Context) (any, error) {
		data, err := c.do(ctx, http.MethodGet, c.endpoint("/sheet-configs", ""), nil, nil)
		if err != nil {
			return nil, err
		}
		var out []sheetconfig.SheetConfig
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode sheet configs: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]sheetconfig.SheetConfig), nil
}

// GetConfig returns one sheet config.
func (c *Client) GetConfig(ctx context.Context, id string) (sheetconfig.SheetConfig, error) {
	var out sheetconfig.SheetConfig
	data, err := c.do(ctx, http.MethodGet, c.endpoint("/sheet-configs/"+url.PathEscape(id), ""), nil, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode sheet config: %w", err)
	}
	return out, nil
}

// SetupResult is the answer of POST /setup-sheet.
type SetupResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	ConfigID       string `json:"configId,omitempty"`
	DisplayPeriod  string `json:"displayPeriod,omitempty"`
	ServiceAccount string `json:"serviceAccount,omitempty"`
	Error          string `json:"error,omitempty"`
}

// SetupSheet registers a spreadsheet. A rejected request returns the
// decoded result together with a *StatusError.
func (c *Client) SetupSheet(ctx context.Context, req sheetconfig.Request) (SetupResult, error) {
	var out SetupResult
	data, err := c.do(ctx, http.MethodPost, c.endpoint("/setup-sheet", ""), req, nil)
	c.reads.Forget(configsKey)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && json.Unmarshal([]byte(se.Body), &out) == nil && out.Error != "" {
			se.Body = out.Error
		}
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode setup response: %w", err)
	}
	return out, nil
}
