/**
* Name:         auth_handler.go
* Description:  staff login and logout for the admin site
* Workflow:     login form, credential check, session cookie, logout
 */
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"formsadmin/internal/admin"
	"formsadmin/internal/auth"
	"formsadmin/internal/models"
	"formsadmin/internal/render"
	"formsadmin/internal/storage"
)

// UserStore looks up staff accounts.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// AuthHandler serves /admin/login/ and /admin/logout/.
type AuthHandler struct {
	users    UserStore
	issuer   *auth.Issuer
	site     *admin.Site
	loginURL string
	secure   bool
}

func NewAuthHandler(users UserStore, issuer *auth.Issuer, site *admin.Site, loginURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer, site: site, loginURL: loginURL, secure: secureCookies}
}

// LoginRequest is the posted login form.
type LoginRequest struct {
	Username string `form:"username" json:"username" example:"admin"`
	Password string `form:"password" json:"password" example:"password123"`
	Next     string `form:"next" json:"next" example:"/admin/forms/formsubmission/"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Too many login attempts"`
}

// LoginForm godoc
// @Summary      Admin login page
// @Description  Renders the staff login form.
// @Tags         Auth
// @Produce      html
// @Param        next query string false "Path to return to after login"
// @Success      200 {string} string "HTML page"
// @Router       /admin/login/ [get]
func (h *AuthHandler) LoginForm(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, "", safeNext(c.Query("next"), h.site), "")
}

// Login godoc
// @Summary      Admin login
// @Description  Checks staff credentials and sets the session cookie.
// @Tags         Auth
// @Accept       x-www-form-urlencoded
// @Produce      html
// @Param        username formData string true  "Username"
// @Param        password formData string true  "Password"
// @Param        next     formData string false "Path to return to after login"
// @Success      302 {string} string "Redirect to next"
// @Failure      401 {string} string "Login form with an error"
// @Failure      429 {object} handler.ErrorResponse
// @Router       /admin/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.renderLogin(c, http.StatusBadRequest, "The submitted data could not be read.", "", "")
		return
	}
	next := safeNext(req.Next, h.site)
	username := strings.TrimSpace(req.Username)

	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if err != nil || !user.IsStaff || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Info().Str("username", username).Str("client_ip", c.ClientIP()).Msg("admin: failed login")
		h.renderLogin(c, http.StatusUnauthorized,
			"Please enter the correct username and password for a staff account.", next, username)
		return
	}

	token, err := h.issuer.GenerateToken(user.Username, user.IsStaff)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.issuer.TTL().Seconds()), "/", "", h.secure, true)
	log.Info().Str("username", user.Username).Msg("admin: login")
	c.Redirect(http.StatusFound, next)
}

// Logout godoc
// @Summary      Admin logout
// @Description  Clears the session cookie and returns to the login page.
// @Tags         Auth
// @Success      302 {string} string "Redirect to login"
// @Router       /admin/logout/ [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, h.loginURL)
}

func (h *AuthHandler) renderLogin(c *gin.Context, code int, message, next, username string) {
	h.site.Render(c, code, "admin/login.html", render.Context{
		"login_url":      h.loginURL,
		"next":           next,
		"username_value": username,
		"error":          message,
	})
}

// safeNext keeps redirects on this host; anything else goes to the admin index.
func safeNext(next string, site *admin.Site) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`) {
		return next
	}
	return site.MustReverse("index")
}
