package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starfolio/starfolio-api/internal/container"
	handlers "github.com/starfolio/starfolio-api/internal/interface/http"
	"github.com/starfolio/starfolio-api/internal/interface/middleware"
	"github.com/starfolio/starfolio-api/pkg/helpers"
)

// ProfileModule wires the profile aggregate routes. Everything here
// requires an authenticated session.
type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)

	// Uploads get a tighter limiter of their own.
	uploadLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil)

	auth.GET("/profile", m.Handler.Me)
	auth.PUT("/profile", m.Handler.Update)

	auth.POST("/profile/photo", uploadLimiter, m.Handler.SetPhoto)
	auth.POST("/profile/resume", uploadLimiter, m.Handler.SetResume)
	auth.DELETE("/profile/resume", m.Handler.DeleteResume)

	auth.POST("/profile/education", m.Handler.AddEducation)
	auth.DELETE("/profile/education/:id", m.Handler.DeleteEducation)

	auth.POST("/profile/achievements", uploadLimiter, m.Handler.AddAchievement)
	auth.DELETE("/profile/achievements/:id", m.Handler.DeleteAchievement)

	auth.POST("/profile/projects", uploadLimiter, m.Handler.AddProject)
	auth.DELETE("/profile/projects/:id", m.Handler.DeleteProject)

	auth.GET("/users", m.Handler.List)
	auth.GET("/users/search", m.Handler.Search)
	auth.GET("/users/:id", m.Handler.Get)
	auth.POST("/users/:id/reviews", m.Handler.AddReview)
	auth.POST("/users/:id/achievements/:achievementID/ratings", m.Handler.RateAchievement)
}
