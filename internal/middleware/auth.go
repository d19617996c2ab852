package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"

	"formsadmin/internal/auth"
)

// AdminView admits staff sessions only. The token comes from the session
// cookie or a Bearer Authorization header. Anonymous GET requests are sent to
// loginURL with the original path in "next"; anything else gets 401.
func AdminView(issuer *auth.Issuer, loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			deny(c, loginURL, "")
			return
		}

		claims, err := issuer.ValidateToken(tokenString)
		if err != nil {
			reason := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "Token has expired"
			}
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("admin: rejected session")
			deny(c, loginURL, reason)
			return
		}
		if !claims.Staff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff access required"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

func deny(c *gin.Context, loginURL, reason string) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		c.Redirect(http.StatusFound, loginURL+"?"+url.Values{"next": {c.Request.URL.RequestURI()}}.Encode())
		c.Abort()
		return
	}
	if reason == "" {
		reason = "Authentication required"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
}
