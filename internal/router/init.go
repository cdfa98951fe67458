package router

import (
	userapp "github.com/starfolio/starfolio-api/internal/application"
	"github.com/starfolio/starfolio-api/internal/container"
	"github.com/starfolio/starfolio-api/internal/infrastructure/gcsblob"
	pginfra "github.com/starfolio/starfolio-api/internal/infrastructure/postgres"
	handlers "github.com/starfolio/starfolio-api/internal/interface/http"
	"github.com/starfolio/starfolio-api/internal/router/modules"
)

// InitModules builds the service graph from the container singletons and
// registers every feature module. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()

	repo := pginfra.NewUserRepository(container.GetPGPool())
	blobs := gcsblob.New(container.GetGCS(), cfg.GCSBucket)

	service := userapp.NewService(
		repo,
		blobs,
		container.GetJWT(),
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESProfilesIndex,
		container.GetRabbitPub(),
	)

	authHandler := handlers.NewAuthHandler(service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	profileHandler := handlers.NewProfileHandler(
		service,
		container.GetRedis(),
		container.GetLogger(),
		cfg.MaxMediaUploadBytes,
		cfg.MaxResumeUploadBytes,
		cfg.PhotoMaxDimension,
	)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewProfileModule(profileHandler, container.GetJWT()))
	r.Add(modules.NewDebugModule())
}
