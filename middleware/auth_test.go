package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-analytics-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomClaims_HasScope(t *testing.T) {
	tests := []struct {
		name          string
		scope         string
		expectedScope string
		want          bool
	}{
		{
			name:          "has exact scope",
			scope:         ScopeReadAnalytics,
			expectedScope: ScopeReadAnalytics,
			want:          true,
		},
		{
			name:          "has scope in multiple scopes",
			scope:         "read:analytics upload:orders",
			expectedScope: ScopeUploadOrders,
			want:          true,
		},
		{
			name:          "does not have scope",
			scope:         ScopeReadAnalytics,
			expectedScope: ScopeUploadOrders,
			want:          false,
		},
		{
			name:          "empty scope",
			scope:         "",
			expectedScope: ScopeReadAnalytics,
			want:          false,
		},
		{
			name:          "partial match should not work",
			scope:         ScopeReadAnalytics,
			expectedScope: "read",
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := CustomClaims{Scope: tt.scope}
			got := claims.HasScope(tt.expectedScope)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|123456"},
		CustomClaims:     &CustomClaims{Scope: ScopeReadAnalytics},
	}

	tests := []struct {
		name         string
		values       map[string]interface{}
		wantUserErr  string
		wantClaimErr string
	}{
		{
			name:   "Authenticated request",
			values: map[string]interface{}{"user_id": "auth0|123456", "validated_claims": claims},
		},
		{
			name:         "Nothing in context",
			values:       map[string]interface{}{},
			wantUserErr:  "MISSING_USER_ID",
			wantClaimErr: "MISSING_CLAIMS",
		},
		{
			name:         "Wrong types",
			values:       map[string]interface{}{"user_id": 12345, "validated_claims": "invalid"},
			wantUserErr:  "INVALID_USER_ID",
			wantClaimErr: "INVALID_CLAIMS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			for k, v := range tt.values {
				c.Set(k, v)
			}

			userID, err := GetUserID(c)
			if tt.wantUserErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "auth0|123456", userID)
			} else {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.wantUserErr, authErr.Code)
				assert.Empty(t, userID)
			}

			got, err := GetClaims(c)
			if tt.wantClaimErr == "" {
				require.NoError(t, err)
				assert.Same(t, claims, got)
			} else {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.wantClaimErr, authErr.Code)
				assert.Nil(t, got)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requiredScope  string
		setupFunc      func(*gin.Context)
		wantStatusCode int
		wantAborted    bool
	}{
		{
			name:          "has required scope",
			requiredScope: ScopeUploadOrders,
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					CustomClaims: &CustomClaims{
						Scope: "read:analytics upload:orders",
					},
				}
				c.Set("validated_claims", claims)
			},
			wantStatusCode: 0, // Should not write status, continues to next handler
			wantAborted:    false,
		},
		{
			name:          "missing required scope",
			requiredScope: ScopeUploadOrders,
			setupFunc: func(c *gin.Context) {
				claims := &validator.ValidatedClaims{
					CustomClaims: &CustomClaims{
						Scope: ScopeReadAnalytics,
					},
				}
				c.Set("validated_claims", claims)
			},
			wantStatusCode: http.StatusForbidden,
			wantAborted:    true,
		},
		{
			name:          "claims not in context",
			requiredScope: ScopeReadAnalytics,
			setupFunc: func(c *gin.Context) {
				// Don't set validated_claims
			},
			wantStatusCode: http.StatusUnauthorized,
			wantAborted:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			tt.setupFunc(c)

			handler := RequireScope(tt.requiredScope)
			handler(c)

			if tt.wantAborted {
				assert.True(t, c.IsAborted())
				assert.Equal(t, tt.wantStatusCode, w.Code)
			} else {
				assert.False(t, c.IsAborted())
			}
		})
	}
}

func TestEnsureValidToken_AuthDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler, err := EnsureValidToken(&config.Config{}, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.GET("/test", handler, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEnsureValidToken_RejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Auth0Domain: "tenant.example.com", Auth0Audience: "https://api.example.com"}
	handler, err := EnsureValidToken(cfg, zap.NewNop())
	require.NoError(t, err)

	reached := false
	router := gin.New()
	router.GET("/test", handler, func(c *gin.Context) {
		reached = true
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	assert.False(t, reached)
}

func TestAuthorize(t *testing.T) {
	assert.Empty(t, Authorize(&config.Config{}, ScopeReadAnalytics))
	assert.Len(t, Authorize(&config.Config{Auth0Domain: "tenant.example.com"}, ScopeReadAnalytics), 1)
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	assert.Equal(t, "Claims not found in context", err.Error())
}
