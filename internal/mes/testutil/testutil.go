package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const JWTSecret = "mes-test-jwt-secret"

// Call is one recorded procedure invocation.
type Call struct {
	Procedure string
	Args      map[string]any
}

// FakeInvoker scripts procedure results in memory. The core's only
// dependency is the procedure boundary, so tests never need Postgres.
type FakeInvoker struct {
	mu       sync.Mutex
	handlers map[string]func(args map[string]any) (json.RawMessage, error)
	calls    []Call
}

func NewFakeInvoker() *FakeInvoker {
	return &FakeInvoker{
		handlers: make(map[string]func(args map[string]any) (json.RawMessage, error)),
	}
}

// Handle scripts a procedure with a function evaluated per call.
func (f *FakeInvoker) Handle(procedure string, fn func(args map[string]any) (json.RawMessage, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[procedure] = fn
}

// HandleValue scripts a procedure with a fixed result, marshalled once per
// call so mutations by the caller cannot leak between invocations.
func (f *FakeInvoker) HandleValue(procedure string, value any) {
	f.Handle(procedure, func(map[string]any) (json.RawMessage, error) {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return data, nil
	})
}

// HandleError scripts a procedure to fail.
func (f *FakeInvoker) HandleError(procedure string, err error) {
	f.Handle(procedure, func(map[string]any) (json.RawMessage, error) {
		return nil, err
	})
}

// Invoke records the call and dispatches to the scripted handler.
func (f *FakeInvoker) Invoke(_ context.Context, procedure string, args map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	fn, ok := f.handlers[procedure]
	f.calls = append(f.calls, Call{Procedure: procedure, Args: args})
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unscripted procedure %q", procedure)
	}
	return fn(args)
}

// Calls returns every recorded invocation of one procedure.
func (f *FakeInvoker) Calls(procedure string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Procedure == procedure {
			out = append(out, c)
		}
	}
	return out
}

// CallCount returns how often one procedure was invoked.
func (f *FakeInvoker) CallCount(procedure string) int {
	return len(f.Calls(procedure))
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group guarded by the JWT middleware.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken mints a valid token for tests.
func GenerateTestToken(userID, name string) string {
	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   userID,
		Name:     name,
		TenantID: "test-tenant",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mes-test",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user.
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Operator")
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
