package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultUserID is used when authentication is disabled
const DefaultUserID = uint(0)

// Middleware guards the mutating API routes. Reads stay public; the borrow
// and return endpoints only require "some authenticated user".
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
	}
}

// RequireAuth returns a handler that rejects unauthenticated requests with
// 401. When auth mode is "none" it injects the default principal instead.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return func(c *gin.Context) {
			c.Set(ContextKeyUserID, DefaultUserID)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Bearer token first (API clients), then session (SPA)
		if user := m.tryBearerAuth(c); user != nil {
			m.setUserContext(c, user, AuthTypeBearer)
			c.Next()
			return
		}
		if user := m.trySessionAuth(c); user != nil {
			m.setUserContext(c, user, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
	}
}

// tryBearerAuth attempts to authenticate using a Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	user, err := m.service.ValidateToken(parts[1])
	if err != nil {
		return nil
	}
	return user
}

// trySessionAuth attempts to authenticate using the session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyAuthType, authType)
}

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns DefaultUserID when auth is disabled.
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return DefaultUserID
}
