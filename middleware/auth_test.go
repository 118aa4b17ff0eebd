package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-review-api/models"
	"research-review-api/services"
)

func newAuthRouter(users services.UserLookup, roles ...models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware("secret", users)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	router.GET("/me", handlers...)
	return router
}

func serve(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareUsesCurrentRole(t *testing.T) {
	store := services.NewMemoryStore()
	user := models.User{UserID: 5, Email: "x@example.edu", Role: models.RoleStudent}
	store.PutUser(user)
	token, err := GenerateToken(user, "secret", time.Hour)
	require.NoError(t, err)

	// Promoted after the token was issued.
	user.Role = models.RoleFaculty
	store.PutUser(user)

	w := serve(newAuthRouter(store), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"role":"faculty"}`, w.Body.String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	store := services.NewMemoryStore()
	user := models.User{UserID: 5, Email: "x@example.edu", Role: models.RoleStudent}
	store.PutUser(user)

	expired, err := GenerateToken(user, "secret", -time.Minute)
	require.NoError(t, err)
	wrongKey, err := GenerateToken(user, "other-secret", time.Hour)
	require.NoError(t, err)
	unknownUser, err := GenerateToken(models.User{UserID: 99, Role: models.RoleAdmin}, "secret", time.Hour)
	require.NoError(t, err)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 5})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Token abc",
		"expired":      "Bearer " + expired,
		"wrong key":    "Bearer " + wrongKey,
		"unknown user": "Bearer " + unknownUser,
		"alg none":     "Bearer " + unsigned,
	} {
		w := serve(newAuthRouter(store), header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestRequireRole(t *testing.T) {
	store := services.NewMemoryStore()
	staff := models.User{UserID: 3, Role: models.RoleStaff}
	store.PutUser(staff)
	token, err := GenerateToken(staff, "secret", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(newAuthRouter(store, models.RoleStaff, models.RoleAdmin), "Bearer "+token).Code)
	assert.Equal(t, http.StatusForbidden, serve(newAuthRouter(store, models.RoleAdmin), "Bearer "+token).Code)
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware("https://papers.example.edu"))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://papers.example.edu")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://papers.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSAllowAllOmitsCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
