package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/application/identity"
	"github.com/taxgeo/backend/internal/infrastructure/auth"
	"github.com/taxgeo/backend/internal/infrastructure/config"
	"github.com/taxgeo/backend/internal/interfaces/http/dto"
	"github.com/taxgeo/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AuthHandler serves login, refresh, logout and the current-employee
// endpoint. Tokens travel both in the response body and in cookies so
// browser and API clients work the same way.
type AuthHandler struct {
	BaseHandler
	service   *identity.AuthService
	blacklist auth.TokenBlacklist
	cookies   config.CookieConfig
	authMW    gin.HandlerFunc
}

// NewAuthHandler creates the auth handler. authMW is the employee
// authentication middleware guarding /auth/me and /auth/logout.
func NewAuthHandler(service *identity.AuthService, blacklist auth.TokenBlacklist, cookies config.CookieConfig, authMW gin.HandlerFunc, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(log),
		service:     service,
		blacklist:   blacklist,
		cookies:     cookies,
		authMW:      authMW,
	}
}

// RegisterRoutes mounts the auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.GET("/me", h.authMW, h.Me)
	g.POST("/logout", h.authMW, h.Logout)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.setTokenCookies(c, result)
	h.OK(c, result)
}

// Refresh handles POST /auth/refresh. The refresh token comes from its
// cookie, falling back to the request body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(auth.RefreshCookieName)
	if refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			refreshToken = body.RefreshToken
		}
	}
	if refreshToken == "" {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Missing refresh token"))
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.setTokenCookies(c, result)
	h.OK(c, result)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	info, err := h.service.Me(c.Request.Context(), middleware.CurrentEmployeeID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, info)
}

// Logout revokes the current access token and clears both cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.blacklist != nil {
		if claims := middleware.CurrentClaims(c); claims != nil && claims.ID != "" {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 {
				if err := h.blacklist.Add(c.Request.Context(), claims.ID, ttl); err != nil && h.log != nil {
					h.log.Warn("token revocation failed", zap.Error(err))
				}
			}
		}
	}
	h.clearTokenCookies(c)
	h.NoContent(c)
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, result *identity.LoginResult) {
	c.SetSameSite(sameSiteMode(h.cookies.SameSite))
	c.SetCookie(auth.CookieName, result.AccessToken,
		int(time.Until(result.AccessTokenExpiresAt).Seconds()),
		h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(auth.RefreshCookieName, result.RefreshToken,
		int(time.Until(result.RefreshTokenExpiresAt).Seconds()),
		h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(sameSiteMode(h.cookies.SameSite))
	c.SetCookie(auth.CookieName, "", -1, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(auth.RefreshCookieName, "", -1, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}

func sameSiteMode(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
