package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"autodialer-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

func serveWithRole(t *testing.T, role string, mw gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, mw, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_AdminBypasses(t *testing.T) {
	if code := serveWithRole(t, RoleAdmin, RequireAnyRole(RoleOperator)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_AllowsListedRole(t *testing.T) {
	if code := serveWithRole(t, RoleOperator, RequireAnyRole(RoleOperator, RoleViewer)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesUnlistedRole(t *testing.T) {
	if code := serveWithRole(t, RoleViewer, RequireAnyRole(RoleOperator)); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_MissingIdentity(t *testing.T) {
	if code := serveWithRole(t, "", RequireAnyRole(RoleOperator)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
