package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"koselimart/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(testSecret)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/protected", handlers...)
	return r
}

func request(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	if w := request(newRouter(), ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	if w := request(newRouter(), "Token abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": models.RoleUser,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	if w := request(newRouter(), "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": models.RoleUser,
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	if w := request(newRouter(), "Bearer "+token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequireAdminBlocksUsers(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": models.RoleUser,
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	if w := request(newRouter(RequireAdmin()), "Bearer "+token); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdminAllowsAdmins(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	if w := request(newRouter(RequireAdmin()), "Bearer "+token); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
