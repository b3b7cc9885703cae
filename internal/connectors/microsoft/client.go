package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

// maxPages guards against a server that never stops returning @odata.nextLink.
const maxPages = 1000

// Page is one page of an OData collection response.
type Page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// apiError is the OData error envelope returned by Graph and Exchange.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client performs rate limited JSON requests against one Microsoft API.
// Authentication is the job of the supplied *http.Client (see NewHTTPClient).
type Client struct {
	http    *http.Client
	baseURL string
	service ServiceType
	limiter *RateLimiter
	header  http.Header
}

// NewClient creates a client rooted at baseURL. A nil limiter uses the service defaults.
func NewClient(httpClient *http.Client, baseURL string, service ServiceType, limiter *RateLimiter) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if limiter == nil {
		limiter = NewRateLimiter(service)
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		service: service,
		limiter: limiter,
		header:  make(http.Header),
	}
}

// SetHeader adds a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// GetAll fetches path and every page linked through @odata.nextLink.
func GetAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	return collect[T](ctx, c, http.MethodGet, c.resolve(path, query), nil)
}

// PostAll posts body to path and to every @odata.nextLink that follows.
func PostAll[T any](ctx context.Context, c *Client, path string, body any) ([]T, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return collect[T](ctx, c, http.MethodPost, c.resolve(path, nil), payload)
}

func collect[T any](ctx context.Context, c *Client, method, next string, payload []byte) ([]T, error) {
	all := make([]T, 0)
	for pages := 0; next != ""; pages++ {
		if pages >= maxPages {
			return nil, fmt.Errorf("%s: paging stopped after %d pages", c.service, maxPages)
		}
		var page Page[T]
		if err := c.do(ctx, method, next, payload, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}

// resolve joins path onto the base URL. Absolute URLs (next links) are used as is.
func (c *Client) resolve(path string, query url.Values) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Token acquisition failures surface through the transport.
		if errors.Is(err, domain.ErrAuthentication) {
			return err
		}
		return fmt.Errorf("%s: %s %s: %w: %w", c.service, method, req.URL.Path, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	logger.Debug("%s: %s %s -> %d", c.service, method, req.URL.Path, resp.StatusCode)

	if IsRateLimited(resp.StatusCode) {
		c.limiter.RecordRateLimitError(RetryAfter(resp.Header))
	}
	if err := WrapError(resp.StatusCode); err != nil {
		return fmt.Errorf("%s: %s %s: status %d%s: %w",
			c.service, method, req.URL.Path, resp.StatusCode, describeError(resp.Body), err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", c.service, req.URL.Path, err)
	}
	return nil
}

// describeError extracts the OData error code and message, if any.
func describeError(r io.Reader) string {
	var e apiError
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&e); err != nil || e.Error.Code == "" {
		return ""
	}
	if e.Error.Message == "" {
		return " (" + e.Error.Code + ")"
	}
	return " (" + e.Error.Code + ": " + e.Error.Message + ")"
}
