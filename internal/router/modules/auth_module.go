package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starfolio/starfolio-api/internal/container"
	handlers "github.com/starfolio/starfolio-api/internal/interface/http"
	"github.com/starfolio/starfolio-api/internal/interface/middleware"
	"github.com/starfolio/starfolio-api/pkg/helpers"
)

// AuthModule wires account and session routes.
// Public: POST /api/register, /api/login, /api/login/guest, /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/login/guest", loginLimiter, m.Handler.GuestLogin)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.POST("/logout", m.Handler.Logout)
}
