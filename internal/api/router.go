package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/app"
	"github.com/pulsefeed/pulsefeed/internal/cache"
	"github.com/pulsefeed/pulsefeed/internal/handlers"
	"github.com/pulsefeed/pulsefeed/internal/middleware"
	"github.com/pulsefeed/pulsefeed/internal/services"
)

// RouterOptions carries the external collaborators the router cannot build
// itself. Zero values fall back to the header resolver and no abuse decider.
type RouterOptions struct {
	Identity middleware.IdentityResolver
	Decider  middleware.Decider
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, store cache.Store, cfg *app.Config, opts RouterOptions) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	keys := cache.NewKeyspace(cfg.Cache.Namespace, cfg.Server.Environment)
	invalidator := cache.NewInvalidator(store, keys)

	feedSvc, err := services.NewFeedService(db, store, keys, invalidator, services.FeedServiceConfig{
		FeedTTL:       cfg.Cache.TTL.Feed,
		PostingWindow: cfg.Cooldown.Posting,
	})
	if err != nil {
		return nil, err
	}
	likeSvc, err := services.NewLikeService(db, invalidator)
	if err != nil {
		return nil, err
	}
	socialSvc, err := services.NewSocialService(db, store, keys, invalidator, cfg.Cache.TTL.Social)
	if err != nil {
		return nil, err
	}
	profileSvc, err := services.NewProfileService(db, store, keys, invalidator, services.ProfileServiceConfig{
		EditWindow: cfg.Cooldown.ProfileEdit,
		SearchTTL:  cfg.Cache.TTL.Search,
	})
	if err != nil {
		return nil, err
	}

	feedHandler := handlers.NewFeedHandler(feedSvc)
	likeHandler := handlers.NewLikeHandler(likeSvc)
	socialHandler := handlers.NewSocialHandler(socialSvc)
	profileHandler := handlers.NewProfileHandler(profileSvc)
	searchHandler := handlers.NewSearchHandler(profileSvc)

	identity := opts.Identity
	if identity == nil {
		identity = middleware.HeaderIdentityResolver{}
	}
	// Admission counters live in the shared cache store so every instance
	// behind the load balancer draws from the same budget.
	admission := middleware.NewAdmission(cfg.RateLimit.AdmissionConfig(), opts.Decider,
		middleware.WithRateStore(middleware.NewStoreRateStore(store)))

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Identity(identity))

	r.GET("/health", handlers.Health(db, store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/feed", admission.Gate(middleware.ClassBatch), feedHandler.List)

		posts := api.Group("/posts", middleware.RequireUser())
		{
			posts.POST("", admission.Gate(middleware.ClassWrite), feedHandler.Create)
			posts.DELETE("/:id", admission.Gate(middleware.ClassWrite), feedHandler.Delete)
			posts.POST("/:id/comments", admission.Gate(middleware.ClassWrite), feedHandler.AddComment)
		}

		likes := api.Group("/likes")
		{
			likes.POST("/toggle", middleware.RequireUser(), admission.Gate(middleware.ClassWrite), likeHandler.Toggle)
			likes.POST("/batch", admission.Gate(middleware.ClassBatch), likeHandler.Batch)
		}

		api.POST("/follows/toggle", middleware.RequireUser(), admission.Gate(middleware.ClassWrite), socialHandler.Toggle)

		users := api.Group("/users")
		{
			users.GET("/:id", admission.Gate(middleware.ClassRead), profileHandler.Get)
			users.GET("/:id/followers", admission.Gate(middleware.ClassRead), socialHandler.Followers)
			users.GET("/:id/following", admission.Gate(middleware.ClassRead), socialHandler.Following)
		}

		api.PATCH("/profile", middleware.RequireUser(), admission.Gate(middleware.ClassWrite), profileHandler.Update)

		search := api.Group("/search")
		{
			search.GET("/users", admission.Gate(middleware.ClassSearch), searchHandler.Users)
			search.GET("/users/random", admission.Gate(middleware.ClassBatch), searchHandler.Random)
		}
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
