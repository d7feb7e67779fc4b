package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchbadges/api/handlers"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/metrics"
	"github.com/meghashyamc/searchbadges/services/index"
	"github.com/meghashyamc/searchbadges/services/search"
	"github.com/meghashyamc/searchbadges/validation"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, indexService *index.Service, searchService *search.Service, metrics *metrics.Metrics, validator *validation.Validator) {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	handlers.SetupIndex(router, logger, indexService, validator)
	handlers.SetupSearch(router, logger, searchService, validator)
	handlers.SetupBadges(router, logger, searchService, validator)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(allowedOrigins))

	return router
}

// corsMiddleware allows the widget to be served from other origins. With no
// configured origins every origin is allowed.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{handlers.HeaderPaginationTotalCount},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	return cors.New(corsConfig)
}
