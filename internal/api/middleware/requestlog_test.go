package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLoggedEcho registers bookwatch-shaped routes that answer with the
// status each test asks for.
func newLoggedEcho(buf *bytes.Buffer, status func(path string) int) *echo.Echo {
	e := echo.New()
	e.Use(RequestLog(slog.New(slog.NewTextHandler(buf, nil))))

	reply := func(c echo.Context) error {
		return c.NoContent(status(c.Request().URL.Path))
	}
	e.GET("/healthz", reply)
	e.GET("/readyz", reply)
	e.POST("/api/v1/auth/signin", reply)
	e.POST("/api/v1/auth/signout", reply)
	e.GET("/api/v1/followed", reply)
	e.POST("/api/v1/followed", reply)
	e.PUT("/api/v1/followed/:book_id/price", reply)
	e.GET("/api/v1/feed", reply)
	e.GET("/api/v1/session", reply)
	return e
}

func serve(e *echo.Echo, method, path, reqID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if reqID != "" {
		req.Header.Set(requestIDHeader, reqID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		status        int
		providedReqID string
		wantLogFields []string
	}{
		{
			name:   "feed read with generated ID",
			method: http.MethodGet,
			path:   "/api/v1/feed",
			status: http.StatusOK,
			wantLogFields: []string{
				"level=INFO",
				"method=GET",
				"path=/api/v1/feed",
				"route=/api/v1/feed",
				"status=200",
				"duration_ms=",
				"request_id=",
			},
		},
		{
			name:   "follow logs created",
			method: http.MethodPost,
			path:   "/api/v1/followed",
			status: http.StatusCreated,
			wantLogFields: []string{
				"method=POST",
				"status=201",
			},
		},
		{
			name:   "price edit logs route template",
			method: http.MethodPut,
			path:   "/api/v1/followed/b7/price",
			status: http.StatusOK,
			wantLogFields: []string{
				"path=/api/v1/followed/b7/price",
				"route=/api/v1/followed/:book_id/price",
			},
		},
		{
			name:   "rejected sign-in stays at info",
			method: http.MethodPost,
			path:   "/api/v1/auth/signin",
			status: http.StatusUnauthorized,
			wantLogFields: []string{
				"level=INFO",
				"status=401",
			},
		},
		{
			name:   "sign-out without content",
			method: http.MethodPost,
			path:   "/api/v1/auth/signout",
			status: http.StatusNoContent,
			wantLogFields: []string{
				"status=204",
			},
		},
		{
			name:   "session failure at warn",
			method: http.MethodGet,
			path:   "/api/v1/session",
			status: http.StatusInternalServerError,
			wantLogFields: []string{
				"level=WARN",
				"status=500",
			},
		},
		{
			name:          "uses provided request ID",
			method:        http.MethodGet,
			path:          "/api/v1/followed",
			status:        http.StatusOK,
			providedReqID: "custom-req-id-123",
			wantLogFields: []string{
				"request_id=custom-req-id-123",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			e := newLoggedEcho(&buf, func(string) int { return tt.status })

			rec := serve(e, tt.method, tt.path, tt.providedReqID)
			require.Equal(t, tt.status, rec.Code)

			logOutput := buf.String()
			for _, field := range tt.wantLogFields {
				assert.Contains(t, logOutput, field)
			}

			respID := rec.Header().Get(requestIDHeader)
			assert.NotEmpty(t, respID)
			if tt.providedReqID != "" {
				assert.Equal(t, tt.providedReqID, respID)
			}
		})
	}
}

func TestRequestLog_SetsContextRequestID(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed", http.NoBody)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := RequestLog(slog.New(slog.DiscardHandler))(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	assert.NotEmpty(t, c.Get("request_id"))
}

func TestRequestLog_ProbeSuppression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		statuses []int
		// logged[i] reports whether call i adds log output.
		logged []bool
	}{
		{
			name:     "healthz success logged once",
			path:     "/healthz",
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusOK},
			logged:   []bool{true, false, false},
		},
		{
			name:     "readyz failures always logged",
			path:     "/readyz",
			statuses: []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable},
			logged:   []bool{true, true},
		},
		{
			name:     "readyz recovery logged again",
			path:     "/readyz",
			statuses: []int{http.StatusOK, http.StatusOK, http.StatusServiceUnavailable, http.StatusOK, http.StatusOK},
			logged:   []bool{true, false, true, true, false},
		},
		{
			name:     "api routes never suppressed",
			path:     "/api/v1/feed",
			statuses: []int{http.StatusOK, http.StatusOK},
			logged:   []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				buf  bytes.Buffer
				call int
			)
			e := newLoggedEcho(&buf, func(string) int { return tt.statuses[call] })

			for i := range tt.statuses {
				call = i
				before := buf.Len()
				serve(e, http.MethodGet, tt.path, "")

				if tt.logged[i] {
					assert.Greater(t, buf.Len(), before, "call %d should be logged", i)
				} else {
					assert.Equal(t, before, buf.Len(), "call %d should be suppressed", i)
				}
			}
		})
	}

	t.Run("probe failure logged at warn", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		e := newLoggedEcho(&buf, func(string) int { return http.StatusServiceUnavailable })
		serve(e, http.MethodGet, "/readyz", "")

		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "status=503")
	})
}
