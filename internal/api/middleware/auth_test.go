package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/theunits/units/config"
	"github.com/theunits/units/internal/core/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Helper to create test context
func createTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	return c, w
}

func TestGetUserID_Valid(t *testing.T) {
	c, _ := createTestContext()
	expectedID := uuid.New()
	c.Set(ContextUserID, expectedID)

	id, ok := GetUserID(c)
	if !ok {
		t.Error("GetUserID should return true when user_id is set")
	}
	if id != expectedID {
		t.Errorf("GetUserID returned %v, expected %v", id, expectedID)
	}
}

func TestGetUserID_NotSet(t *testing.T) {
	c, _ := createTestContext()

	_, ok := GetUserID(c)
	if ok {
		t.Error("GetUserID should return false when user_id is not set")
	}
}

func TestGetUserID_InvalidType(t *testing.T) {
	c, _ := createTestContext()
	c.Set(ContextUserID, "not-a-uuid")

	_, ok := GetUserID(c)
	if ok {
		t.Error("GetUserID should return false when user_id has invalid type")
	}
}

func TestAuthenticate(t *testing.T) {
	svc := auth.NewService(nil, &config.JWTConfig{Secret: "middleware-secret", ExpirationHours: 1})
	user := &auth.User{ID: uuid.New(), Username: "resident"}
	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := auth.NewService(nil, &config.JWTConfig{Secret: "other-secret", ExpirationHours: 1})
	forged, _ := other.GenerateToken(user)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid bearer token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no scheme", token, http.StatusUnauthorized},
		{"api key scheme", "ApiKey " + token, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	m := NewAuthMiddleware(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var seen uuid.UUID
			r.GET("/test", m.Authenticate(), func(c *gin.Context) {
				seen, _ = GetUserID(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && seen != user.ID {
				t.Errorf("principal = %v, want %v", seen, user.ID)
			}
		})
	}
}
