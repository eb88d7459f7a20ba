package middleware

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestVerifySignature(t *testing.T) {
	body := `{"data":{"id":7}}`
	valid := hex.EncodeToString(Sign("hook-secret", []byte(body)))

	tests := []struct {
		name       string
		secret     string
		signature  string
		wantStatus int
	}{
		{"disabled without secret", "", "", http.StatusOK},
		{"valid signature", "hook-secret", valid, http.StatusOK},
		{"prefixed signature", "hook-secret", "sha256=" + valid, http.StatusOK},
		{"missing signature", "hook-secret", "", http.StatusUnauthorized},
		{"not hex", "hook-secret", "zz", http.StatusUnauthorized},
		{"other secret", "another-secret", valid, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var seen string
			r.POST("/hook", VerifySignature(tt.secret), func(c *gin.Context) {
				b, _ := io.ReadAll(c.Request.Body)
				seen = string(b)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(HeaderSignature, tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && seen != body {
				t.Errorf("handler body = %q, want %q", seen, body)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		origins   []string
		origin    string
		wantAllow string
	}{
		{"listed origin", []string{"https://app.example"}, "https://app.example", "https://app.example"},
		{"unlisted origin", []string{"https://app.example"}, "https://evil.example", ""},
		{"wildcard", []string{"*"}, "https://any.example", "*"},
		{"none configured", nil, "https://any.example", "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.origins))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}
