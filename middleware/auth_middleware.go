// middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Context keys set by Authenticate.
const (
	ContextUserID   = "userId"
	ContextUserRole = "userRole"
	ContextEmail    = "email"
)

var errMissingToken = errors.New("missing bearer token")

// Identity is the verified principal of a request.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// IdentityVerifier turns a bearer token into an Identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens. The role comes from the
// "role" custom claim and defaults to user.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	verified, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	identity := &Identity{UserID: verified.UID, Role: models.RoleUser}
	if email, ok := verified.Claims["email"].(string); ok {
		identity.Email = email
	}
	if role, ok := verified.Claims["role"].(string); ok && models.Role(role).Valid() {
		identity.Role = models.Role(role)
	}
	return identity, nil
}

// Authenticate verifies the bearer token and stores the identity on the context.
// WebSocket clients that cannot set headers may pass the token as ?token=.
func Authenticate(verifier IdentityVerifier, logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Please provide valid credentials",
				})
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"path": c.Request().URL.Path,
					"ip":   c.RealIP(),
				}).WithError(err).Warn("token verification failed")
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Invalid or expired token",
				})
			}

			c.Set(ContextUserID, identity.UserID)
			c.Set(ContextUserRole, identity.Role)
			c.Set(ContextEmail, identity.Email)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token, nil
		}
	}
	if token := c.QueryParam("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

// RequireRole checks if the authenticated user has one of the allowed roles
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := ExtractUserRole(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: role not found",
				})
			}

			for _, r := range allowed {
				if role == r {
					return next(c)
				}
			}

			c.Logger().Warnf("Access denied for role: %s, allowed roles: %v", role, allowed)
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your role",
			})
		}
	}
}

// ExtractUserRole safely extracts the role from the context
func ExtractUserRole(c echo.Context) models.Role {
	role, _ := c.Get(ContextUserRole).(models.Role)
	return role
}

func GetUserIDFromToken(c echo.Context) string {
	userID, _ := c.Get(ContextUserID).(string)
	return userID
}
