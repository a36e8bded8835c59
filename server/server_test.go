package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Port:           "8080",
		LogLevel:       "error",
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
		RateLimitRPS:   1000,
	}
}

func testServer() *Server {
	return New(testConfig(), nil)
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func calculateBody(t *testing.T, file string) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"taxYear": "2023/24",
		"file":    file,
	})
	require.Nil(t, err)
	return string(body)
}

const testCsv = `Date,Security,Action,Quantity,Price,Currency
2023-05-10,FOO,Buy,100,10,GBP
2023-06-10,FOO,Sell,40,15,GBP
`

func TestHealthEndpoint(t *testing.T) {
	rq := require.New(t)

	rec := doRequest(t, testServer(), http.MethodGet, "/health", "")
	rq.Equal(http.StatusOK, rec.Code)
	rq.Equal("application/json", rec.Header().Get("Content-Type"))
	rq.JSONEq(`{"status": "ok"}`, rec.Body.String())
}

func TestCalculateEndpoint(t *testing.T) {
	rq := require.New(t)

	rec := doRequest(t, testServer(), http.MethodPost, "/calculate",
		calculateBody(t, testCsv))
	rq.Equal(http.StatusOK, rec.Code)

	var report map[string]interface{}
	rq.Nil(json.Unmarshal(rec.Body.Bytes(), &report))
	rq.Equal("2023/24", report["taxYear"])
	rq.Equal("200", report["netGainGBP"])
	rq.Equal("0", report["cgtDueGBP"])
	rq.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func TestCalculateEndpointCachesIdenticalBodies(t *testing.T) {
	rq := require.New(t)

	srv := testServer()
	body := calculateBody(t, testCsv)

	first := doRequest(t, srv, http.MethodPost, "/calculate", body)
	rq.Equal(http.StatusOK, first.Code)
	rq.Equal(1, srv.reportCache.ItemCount())

	second := doRequest(t, srv, http.MethodPost, "/calculate", body)
	rq.Equal(http.StatusOK, second.Code)
	rq.JSONEq(first.Body.String(), second.Body.String())
	rq.Equal(1, srv.reportCache.ItemCount())
}

func TestCalculateEndpointInvalidJson(t *testing.T) {
	rq := require.New(t)

	rec := doRequest(t, testServer(), http.MethodPost, "/calculate", "{not json")
	rq.Equal(http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	rq.Nil(json.Unmarshal(rec.Body.Bytes(), &resp))
	rq.Len(resp.Errors, 1)
	rq.Contains(resp.Errors[0].Message, "invalid JSON request")
}

func TestCalculateEndpointValidationErrors(t *testing.T) {
	rq := require.New(t)

	badCsv := "Date,Security,Action,Quantity,Price,Currency\n" +
		"not-a-date,FOO,Buy,100,10,GBP\n"
	rec := doRequest(t, testServer(), http.MethodPost, "/calculate",
		calculateBody(t, badCsv))
	rq.Equal(http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors []struct {
			Message  string `json:"message"`
			RowIndex int    `json:"rowIndex"`
		} `json:"errors"`
	}
	rq.Nil(json.Unmarshal(rec.Body.Bytes(), &resp))
	rq.NotEmpty(resp.Errors)
	rq.Equal(1, resp.Errors[0].RowIndex)
}

func TestCalculateEndpointBodyTooLarge(t *testing.T) {
	rq := require.New(t)

	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	srv := New(cfg, nil)

	rec := doRequest(t, srv, http.MethodPost, "/calculate",
		calculateBody(t, testCsv))
	rq.Equal(http.StatusBadRequest, rec.Code)
	rq.Contains(rec.Body.String(), "failed to read request body")
}

func TestRateLimit(t *testing.T) {
	rq := require.New(t)

	cfg := testConfig()
	cfg.RateLimitRPS = 1
	srv := New(cfg, nil)

	// Burst allows a few requests through, then the limiter kicks in.
	var lastCode int
	for i := 0; i < 10; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/health", "")
		lastCode = rec.Code
	}
	rq.Equal(http.StatusTooManyRequests, lastCode)
}
