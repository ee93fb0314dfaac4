package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/config"
)

// CasdoorAuthMiddleware authenticates the admin surface using Casdoor JWTs.
// Bot routes are not authenticated beyond the telegram id lookup; only
// /api/v1/admin goes through this middleware.
type CasdoorAuthMiddleware struct {
	client *casdoorsdk.Client
	config config.CasdoorConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client: client,
		config: cfg,
	}
}

// AuthMiddleware validates the bearer token and stores the admin identity in
// the request context.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header missing")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := cam.client.ParseJwtToken(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, fmt.Sprintf("invalid token: %v", err))
			return
		}

		if claims.User.Name == "" {
			abortUnauthorized(c, "token carries no user identity")
			return
		}

		c.Set("admin_name", claims.User.Name)
		c.Set("admin_is_admin", claims.User.IsAdmin)

		c.Next()
	}
}

// RequireAdmin rejects authenticated users without the admin flag.
func (cam *CasdoorAuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get("admin_is_admin")
		if !exists || isAdmin != true {
			c.JSON(http.StatusForbidden, Envelope{
				Success: false,
				Error:   &ErrorBody{Code: "forbidden", Message: "admin role required"},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: "unauthorized", Message: message},
	})
	c.Abort()
}

// AdminNameFromContext returns the authenticated admin account name.
func AdminNameFromContext(c *gin.Context) (string, error) {
	name, exists := c.Get("admin_name")
	if !exists {
		return "", fmt.Errorf("admin identity not found in context")
	}
	s, ok := name.(string)
	if !ok {
		return "", fmt.Errorf("invalid admin identity type in context")
	}
	return s, nil
}
