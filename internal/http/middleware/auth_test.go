package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/services"
)

const testSecret = "test-secret"

func authRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(testSecret))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID":   c.GetString("userID"),
			"userName": c.GetString("userName"),
		})
	})
	return r
}

func issueTestToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	tok, err := services.IssueToken(secret, &domain.User{ID: "u1", Username: "Alice"}, ttl)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

func TestAuth_ValidBearerHeader(t *testing.T) {
	r := authRouter(t)
	tok := issueTestToken(t, testSecret, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["userID"] != "u1" || body["userName"] != "Alice" {
		t.Fatalf("identity = %v, want u1/Alice", body)
	}
}

func TestAuth_TokenQueryParamFallback(t *testing.T) {
	r := authRouter(t)
	tok := issueTestToken(t, testSecret, time.Hour)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+tok, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestAuth_Rejections(t *testing.T) {
	r := authRouter(t)

	tests := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{name: "no token", setup: func(*http.Request) {}},
		{name: "malformed header", setup: func(req *http.Request) {
			req.Header.Set("Authorization", "Token abc")
		}},
		{name: "garbage token", setup: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not.a.jwt")
		}},
		{name: "wrong secret", setup: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "other-secret", time.Hour))
		}},
		{name: "expired token", setup: func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+issueTestToken(t, testSecret, -time.Minute))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tc.setup(req)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["code"] != "unauthorized" {
				t.Fatalf("code = %v, want unauthorized", body["code"])
			}
		})
	}
}
