package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

type item struct {
	ID string `json:"id"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_GetAll_FollowsNextLink(t *testing.T) {
	// Given: three pages
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		switch r.URL.Query().Get("page") {
		case "":
			assert.Equal(t, "id", r.URL.Query().Get("$select"))
			writeJSON(t, w, map[string]any{
				"value":           []item{{ID: "1"}, {ID: "2"}},
				"@odata.nextLink": srv.URL + "/users?page=2",
			})
		case "2":
			writeJSON(t, w, map[string]any{
				"value":           []item{{ID: "3"}},
				"@odata.nextLink": srv.URL + "/users?page=3",
			})
		default:
			writeJSON(t, w, map[string]any{"value": []item{{ID: "4"}}})
		}
	}))
	defer srv.Close()
	c := NewClient(srv.Client(), srv.URL, ServiceGraph, nil)

	// When
	items, err := GetAll[item](context.Background(), c, "/users", url.Values{"$select": {"id"}})

	// Then
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}, items)
}

func TestClient_GetAll_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"value": []item{}})
	}))
	defer srv.Close()
	c := NewClient(srv.Client(), srv.URL, ServiceGraph, nil)

	items, err := GetAll[item](context.Background(), c, "sites", nil)

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		expected  error
		domainErr error
	}{
		{name: "unauthorised", status: http.StatusUnauthorized, expected: ErrUnauthorised, domainErr: domain.ErrAuthentication},
		{name: "forbidden", status: http.StatusForbidden, expected: ErrForbidden, domainErr: domain.ErrPermission},
		{name: "unavailable", status: http.StatusServiceUnavailable, expected: ErrServerError, domainErr: domain.ErrServiceUnavailable},
		{name: "not found", status: http.StatusNotFound, expected: ErrNotFound, domainErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"code":"Authorization_RequestDenied","message":"Insufficient privileges"}}`)
			}))
			defer srv.Close()
			c := NewClient(srv.Client(), srv.URL, ServiceGraph, nil)

			_, err := GetAll[item](context.Background(), c, "users", nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, tt.domainErr)
			assert.Contains(t, err.Error(), "Authorization_RequestDenied")
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.status))
		})
	}
}

func TestClient_RateLimitedRecordsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	limiter := NewRateLimiter(ServiceGraph)
	c := NewClient(srv.Client(), srv.URL, ServiceGraph, limiter)

	_, err := GetAll[item](context.Background(), c, "organization", nil)

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.WithinDuration(t, time.Now().Add(30*time.Second), backoffUntil(limiter), 2*time.Second)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()
	c := NewClient(nil, base, ServiceGraph, nil)

	_, err := GetAll[item](context.Background(), c, "organization", nil)

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"value": []item{}})
	}))
	defer srv.Close()
	c := NewClient(srv.Client(), srv.URL, ServiceGraph, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GetAll[item](ctx, c, "users", nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_PostAll_RepeatsBodyOnEveryPage(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "tenant-anchor", r.Header.Get("X-Anchor"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Get-Thing", body["cmd"])

		if r.URL.Query().Get("skip") == "" {
			writeJSON(t, w, map[string]any{
				"value":           []item{{ID: "a"}},
				"@odata.nextLink": srv.URL + "/invoke?skip=1",
			})
			return
		}
		writeJSON(t, w, map[string]any{"value": []item{{ID: "b"}}})
	}))
	defer srv.Close()
	c := NewClient(srv.Client(), srv.URL, ServiceExchange, nil)
	c.SetHeader("X-Anchor", "tenant-anchor")

	items, err := PostAll[item](context.Background(), c, "invoke", map[string]string{"cmd": "Get-Thing"})

	require.NoError(t, err)
	assert.Equal(t, []item{{ID: "a"}, {ID: "b"}}, items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Resolve(t *testing.T) {
	c := NewClient(nil, "https://graph.example/v1.0/", ServiceGraph, nil)

	assert.Equal(t, "https://graph.example/v1.0/users", c.resolve("/users", nil))
	assert.Equal(t, "https://graph.example/v1.0/users?%24top=999", c.resolve("users", url.Values{"$top": {"999"}}))
	assert.Equal(t, "https://next.example/page", c.resolve("https://next.example/page", nil))
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "code and message", body: `{"error":{"code":"Request_ResourceNotFound","message":"gone"}}`, expected: " (Request_ResourceNotFound: gone)"},
		{name: "code only", body: `{"error":{"code":"Throttled"}}`, expected: " (Throttled)"},
		{name: "not json", body: `<html>`, expected: ""},
		{name: "empty", body: ``, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeError(strings.NewReader(tt.body)))
		})
	}
}
