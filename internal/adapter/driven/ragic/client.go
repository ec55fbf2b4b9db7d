// Package ragic implements the remote record store port against the Ragic
// HTTP API.
package ragic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

const (
	// pageSize caps a single list request; larger sheets page by offset.
	pageSize = 1000

	// maxRetries bounds retries of transient failures per request.
	maxRetries = 3

	metaDataKey = "_metaData"
)

// Client talks to the Ragic REST API with Basic auth, conditional-request
// caching, and bounded exponential-backoff retry on transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	naming     string
	logger     *slog.Logger
}

// NewClient creates a client with an in-memory HTTP cache so repeated sheet
// fetches honor ETag/Last-Modified revalidation.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}
	return NewClientWithHTTPClient(httpClient, apiKey, baseURL, logger)
}

// NewClientWithHTTPClient creates a client using the provided HTTP client.
// Used by tests to point at a local server.
func NewClientWithHTTPClient(httpClient *http.Client, apiKey, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		naming:     "EID",
		logger:     logger,
	}
}

// MaskedKey returns the credential with all but the last four characters
// hidden, for health and startup logs.
func (c *Client) MaskedKey() string {
	if len(c.apiKey) <= 4 {
		return "****"
	}
	return "****" + c.apiKey[len(c.apiKey)-4:]
}

// ListRecords fetches all records of a sheet, paging until a short page.
func (c *Client) ListRecords(ctx context.Context, sheetPath string, filters map[string]string) ([]model.RemoteRecord, error) {
	var all []model.RemoteRecord
	offset := 0
	for {
		params := c.baseParams()
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))
		for fieldID, value := range filters {
			params.Set("where_"+fieldID, value)
		}

		body, err := c.do(ctx, http.MethodGet, sheetPath, params, nil)
		if err != nil {
			return nil, err
		}

		page, err := decodeRecordList(body)
		if err != nil {
			return nil, fmt.Errorf("decoding sheet %s: %w", sheetPath, err)
		}
		all = append(all, page...)

		if len(page) < pageSize {
			return all, nil
		}
		offset += pageSize
	}
}

// GetRecord fetches a single record by id. Returns nil, nil when the record
// does not exist.
func (c *Client) GetRecord(ctx context.Context, sheetPath string, ragicID int64) (model.RemoteRecord, error) {
	body, err := c.do(ctx, http.MethodGet, recordPath(sheetPath, ragicID), c.baseParams(), nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding record %d: %w", ragicID, err)
	}
	if len(raw) == 0 {
		// Ragic answers an empty object for ids it has never seen.
		return nil, nil
	}

	rec := recordFromRaw(raw)
	rec[model.RagicIDKey] = strconv.FormatInt(ragicID, 10)
	return rec, nil
}

// CreateRecord creates a record and returns the remote-assigned id.
func (c *Client) CreateRecord(ctx context.Context, sheetPath string, fields map[string]string) (int64, error) {
	body, err := c.do(ctx, http.MethodPost, sheetPath, c.baseParams(), fields)
	if err != nil {
		return 0, err
	}

	var resp struct {
		RagicID int64 `json:"_ragicId"`
		Data    struct {
			RagicID int64 `json:"_ragicId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decoding create response: %w", err)
	}
	if resp.RagicID != 0 {
		return resp.RagicID, nil
	}
	if resp.Data.RagicID != 0 {
		return resp.Data.RagicID, nil
	}
	return 0, fmt.Errorf("create response for %s carried no record id", sheetPath)
}

// UpdateRecord overwrites the given fields of an existing record.
func (c *Client) UpdateRecord(ctx context.Context, sheetPath string, ragicID int64, fields map[string]string) error {
	_, err := c.do(ctx, http.MethodPost, recordPath(sheetPath, ragicID), c.baseParams(), fields)
	return err
}

// DeleteRecord removes a record from the remote store.
func (c *Client) DeleteRecord(ctx context.Context, sheetPath string, ragicID int64) error {
	_, err := c.do(ctx, http.MethodDelete, recordPath(sheetPath, ragicID), c.baseParams(), nil)
	return err
}

// CheckConnection probes the API root and reports round-trip latency.
func (c *Client) CheckConnection(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.do(ctx, http.MethodGet, "/", c.baseParams(), nil); err != nil {
		return 0, err
	}
	latency := time.Since(start)
	c.logger.Debug("ragic connection check ok",
		"key", c.MaskedKey(),
		"latency_ms", latency.Milliseconds())
	return latency, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api", "")
	params.Set("naming", c.naming)
	return params
}

// do performs one API call with bounded retry. Transport errors, 5xx, and
// 429 retry with exponential backoff; other statuses fail immediately.
func (c *Client) do(ctx context.Context, method, sheetPath string, params url.Values, fields map[string]string) ([]byte, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(sheetPath, "/")
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var payload []byte
	if fields != nil {
		var err error
		payload, err = json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("building request: %w", err))
		}
		req.Header.Set("Authorization", "Basic "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if fields != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("ragic request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode >= 400 {
			reqErr := &RequestError{Status: resp.StatusCode, Body: string(data), URL: redactQuery(reqURL)}
			if reqErr.Retryable() {
				return reqErr
			}
			return backoff.Permanent(reqErr)
		}

		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying ragic request",
			"method", method,
			"sheet", sheetPath,
			"wait", wait,
			"error", err)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func recordPath(sheetPath string, ragicID int64) string {
	return strings.TrimRight(sheetPath, "/") + "/" + strconv.FormatInt(ragicID, 10)
}

// redactQuery strips query parameters from a URL before it lands in an error
// message; filter values can carry personal data.
func redactQuery(reqURL string) string {
	if i := strings.IndexByte(reqURL, '?'); i >= 0 {
		return reqURL[:i]
	}
	return reqURL
}

// decodeRecordList unpacks a Ragic list response: a JSON object keyed by
// record id, plus a _metaData entry that is not a record.
func decodeRecordList(body []byte) ([]model.RemoteRecord, error) {
	entries := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		if id == metaDataKey {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]model.RemoteRecord, 0, len(ids))
	for _, id := range ids {
		raw := map[string]any{}
		if err := json.Unmarshal(entries[id], &raw); err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		rec := recordFromRaw(raw)
		if _, ok := rec[model.RagicIDKey]; !ok {
			rec[model.RagicIDKey] = id
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromRaw(raw map[string]any) model.RemoteRecord {
	rec := make(model.RemoteRecord, len(raw))
	for key, value := range raw {
		rec[key] = valueToString(value)
	}
	return rec
}

// valueToString flattens a Ragic cell value to text. Multi-select cells
// arrive as arrays and join with a comma.
func valueToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, valueToString(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
