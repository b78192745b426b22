package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, roles ...models.Role) *echo.Echo {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := echo.New()
	g := e.Group("", Authenticate(NewHS256Verifier(testSecret), logger))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserIDFromToken(c)+"|"+string(ExtractUserRole(c)))
	})
	return e
}

func serve(e *echo.Echo, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_SetsIdentityFromToken(t *testing.T) {
	// GIVEN a valid admin token
	e := newTestServer(t)
	token, err := GenerateJWT(testSecret, "admin-a", "a@example.com", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	// WHEN the request carries it
	rec := serve(e, "/whoami", token)

	// THEN the handler sees the identity
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-a|admin", rec.Body.String())
}

func TestAuthenticate_AcceptsQueryToken(t *testing.T) {
	e := newTestServer(t)
	token, err := GenerateJWT(testSecret, "seller-1", "", models.RoleSeller, 0)
	require.NoError(t, err)

	rec := serve(e, "/whoami?token="+token, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seller-1|seller", rec.Body.String())
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	e := newTestServer(t)
	wrongKey, err := GenerateJWT("other-secret", "admin-a", "", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateJWT(testSecret, "admin-a", "", models.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	unknownRole, err := GenerateJWT(testSecret, "admin-a", "", models.Role("owner"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong key", wrongKey},
		{"expired", expired},
		{"unknown role", unknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, "/whoami", tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	// GIVEN a route restricted to superadmins
	e := newTestServer(t, models.RoleSuperadmin)
	admin, err := GenerateJWT(testSecret, "admin-a", "", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	root, err := GenerateJWT(testSecret, "root", "", models.RoleSuperadmin, time.Hour)
	require.NoError(t, err)

	// THEN an admin is forbidden and a superadmin passes
	assert.Equal(t, http.StatusForbidden, serve(e, "/whoami", admin).Code)
	assert.Equal(t, http.StatusOK, serve(e, "/whoami", root).Code)
}

func TestGenerateJWT_RequiresSecret(t *testing.T) {
	_, err := GenerateJWT("", "u", "", models.RoleUser, time.Hour)
	assert.Error(t, err)
}
