package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/config"
	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

// TokenClaims is what the API needs from a verified bearer token.
type TokenClaims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	IsAdmin   bool
	Roles     []string
}

type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// CasdoorVerifier checks tokens issued by a casdoor application.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.Endpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.OrganizationName,
			cfg.ApplicationName,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*TokenClaims, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		if role != nil {
			roles = append(roles, role.Name)
		}
	}
	subject := claims.Id
	if subject == "" {
		subject = claims.Subject
	}
	return &TokenClaims{
		Subject:   subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		IsAdmin:   claims.IsAdmin,
		Roles:     roles,
	}, nil
}

// ===== MIDDLEWARE =====

type AuthMiddleware struct {
	BaseHandler
	verifier   TokenVerifier
	users      services.UserService
	adminRoles []string
}

func NewAuthMiddleware(verifier TokenVerifier, users services.UserService, adminRoles []string, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		verifier:    verifier,
		users:       users,
		adminRoles:  adminRoles,
	}
}

// Authenticate verifies the bearer token and loads the caller's profile.
// EventSource clients cannot set headers, so access_token is accepted as a
// query parameter too.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			m.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "Missing bearer token", nil)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil || claims.Subject == "" {
			m.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", err)
			return
		}

		user, err := m.users.EnsureUser(c.Request.Context(), services.Identity{
			ID:        claims.Subject,
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Role:      m.roleOf(claims),
		})
		if err != nil {
			m.handleServiceError(c, err)
			return
		}
		if user.IsBlocked {
			m.RespondWithError(c, http.StatusForbidden, "user_blocked", "User is blocked", services.ErrUserBlocked)
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)
		c.Set(userRoleKey, user.Role)
		c.Next()
	}
}

// RequireRole lets only callers holding one of roles through.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(userRoleKey)
		r, ok := role.(models.UserRole)
		if !ok || !slices.Contains(roles, r) {
			m.RespondWithError(c, http.StatusForbidden, "forbidden", "Insufficient permissions", services.ErrForbidden)
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) roleOf(claims *TokenClaims) models.UserRole {
	if claims.IsAdmin {
		return models.RoleAdmin
	}
	role := models.RoleStudent
	for _, name := range claims.Roles {
		switch {
		case slices.ContainsFunc(m.adminRoles, func(r string) bool { return strings.EqualFold(r, name) }):
			return models.RoleAdmin
		case strings.EqualFold(name, string(models.RoleSupervisor)):
			role = models.RoleSupervisor
		}
	}
	return role
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}
