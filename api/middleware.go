package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const usernameKey = "admin_username"

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAdmin rejects requests without a valid admin token and stores the
// username on the context.
func (s *Server) requireAdmin(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.Header("WWW-Authenticate", "Bearer")
		abortWithError(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	username, err := s.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		s.writeError(c, err)
		return
	}
	c.Set(usernameKey, username)
	c.Next()
}

func currentAdmin(c *gin.Context) string {
	return c.GetString(usernameKey)
}
