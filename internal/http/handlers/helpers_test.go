package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/regportal/internal/auth"
	"github.com/geocoder89/regportal/internal/http/handlers"
	"github.com/geocoder89/regportal/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stubVerifier treats the bearer token itself as the user id.
type stubVerifier struct{}

func (stubVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	if token == "expired" {
		return nil, errors.New("token is expired")
	}
	return &auth.Claims{ID: token}, nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, h)
	return r
}

func setupAuthedRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, middlewares.NewAuthMiddleware(stubVerifier{}).RequireAuth(), h)
	return r
}

func perform(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer U1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
		Details   struct {
			RedirectTo string                `json:"redirectTo"`
			JSON       string                `json:"json"`
			Field      string                `json:"field"`
			Fields     []handlers.FieldError `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()

	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}
	return resp
}
