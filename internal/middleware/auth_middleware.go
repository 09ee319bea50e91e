package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"craftresume-backend-go/internal/models"
	"craftresume-backend-go/internal/policy"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors api.ErrorResponse; api imports this package, so it cannot be shared.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Details string `json:"details,omitempty"` // More specific details, if available
	Notice  string `json:"notice,omitempty"`  // Toast text for the client
}

// authStateKey is the gin context key holding the models.AuthState of the request.
const authStateKey = "authState"

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication
// and the template admin guard.
type AuthMiddleware struct {
	verifier TokenVerifier  // Verifies the bearer token
	policy   *policy.Policy // Admin allowlist for RequireAdmin
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, p *policy.Policy, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, policy: p, logger: logger}
}

// VerifyToken is a Gin middleware handler function that verifies a Firebase ID token
// from the Authorization header. If valid, the signed-in AuthState is stored in the
// Gin context for downstream handlers; otherwise the request is aborted with 401.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return m.authenticate(true)
}

// OptionalToken lets requests without an Authorization header through as
// signed out. A present but invalid token is still rejected.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return m.authenticate(false)
}

// authenticate builds the token check shared by VerifyToken and OptionalToken.
func (m *AuthMiddleware) authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// No credentials at all. Optional routes continue as signed out.
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
				return
			}
			c.Set(authStateKey, models.AuthState{})
			c.Next()
			return
		}

		// Expect exactly "Bearer <token>", scheme case-insensitive.
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		// Verify with the request context so a dropped client stops the call.
		token, err := m.verifier.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			// The client gets a generic message; the cause is logged server-side.
			m.logger.Info("Rejected Firebase ID token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		// Token is valid. Downstream handlers read it through AuthStateFrom.
		c.Set(authStateKey, models.AuthState{Credential: CredentialFromToken(token)})
		c.Next()
	}
}

// RequireAdmin allows the request only for a signed-in user on the admin
// allowlist. It must run after VerifyToken.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := AuthStateFrom(c)
		// Signed out means VerifyToken did not run or let the request through.
		if !state.SignedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		if !m.policy.IsAdmin(state.Credential.UID) {
			m.logger.Warn("Non-admin attempted template management",
				zap.String("uid", state.Credential.UID),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}

// AuthStateFrom returns the auth state set by the middleware, or a
// signed-out state.
func AuthStateFrom(c *gin.Context) models.AuthState {
	if v, ok := c.Get(authStateKey); ok {
		if state, ok := v.(models.AuthState); ok {
			return state
		}
	}
	return models.AuthState{}
}

// CredentialFromToken extracts the provider credential from a verified token.
// The UID is the sign-in provider's own id for the user when the token
// carries one, otherwise the Firebase UID.
func CredentialFromToken(token *auth.Token) *models.Credential {
	cred := &models.Credential{UID: token.UID, ProviderID: "firebase"}
	if provider := token.Firebase.SignInProvider; provider != "" {
		cred.ProviderID = provider
		if ids, ok := token.Firebase.Identities[provider].([]interface{}); ok && len(ids) > 0 {
			if id, ok := ids[0].(string); ok && id != "" {
				cred.UID = id
			}
		}
	}
	cred.DisplayName, _ = token.Claims["name"].(string)
	cred.Email, _ = token.Claims["email"].(string)
	cred.PhoneNumber, _ = token.Claims["phone_number"].(string)
	cred.PhotoURL, _ = token.Claims["picture"].(string)
	return cred
}
