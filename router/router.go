package router

import (
	"ldserver/api/contexts"
	gam "ldserver/api/middleware"
	"ldserver/api/models"
	"ldserver/api/mvc"
	"ldserver/api/mvc/aggregation"
	"ldserver/api/mvc/ld"
	"ldserver/api/mvc/references"
	serviceInfo "ldserver/api/mvc/service-info"
	"ldserver/api/services/cache"
	"ldserver/api/services/metrics"
	"ldserver/api/services/query"
	"ldserver/api/services/registry"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the singletons every request context carries.
type Services struct {
	Config       *models.Config
	Registry     *registry.Registry
	Orchestrator *query.Orchestrator
	CacheService *cache.CacheService
}

// New builds the echo server with every route registered.
func New(s Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = s.Config.Debug
	e.HTTPErrorHandler = mvc.HTTPErrorHandler

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST, echo.OPTIONS},
	}))
	e.Use(middleware.Gzip())
	e.Use(metrics.Middleware)

	// -- Override handlers with the LD context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.LdContext{
				Context:      c,
				Config:       s.Config,
				Registry:     s.Registry,
				Orchestrator: s.Orchestrator,
				CacheService: s.CacheService,
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfo.GetRoot)
	e.GET("/status", serviceInfo.GetStatus)
	e.GET("/service-info", serviceInfo.GetServiceInfo)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// -- Reference panels
	e.GET("/correlations", references.GetCorrelations)
	e.GET("/genome_builds", references.GetGenomeBuilds)
	e.GET("/genome_builds/:build/references", references.GetReferences)
	e.GET("/genome_builds/:build/references/:reference", references.GetReference)
	e.GET("/genome_builds/:build/references/:reference/chromosomes", references.GetChromosomes)
	e.GET("/genome_builds/:build/references/:reference/populations", references.GetPopulations)
	e.GET("/genome_builds/:build/references/:reference/populations/:population", references.GetPopulation)

	// -- LD
	e.GET("/genome_builds/:build/references/:reference/populations/:population/regions", ld.GetRegionLD,
		// middleware
		gam.RejectUnknownParameters(gam.RegionParameters...),
		gam.MandateChromosomeAttribute,
		gam.MandateCalibratedBounds,
		gam.MandateCorrelationAttribute,
		gam.ValidatePaging,
		gam.ValidateOutputFormat)
	e.GET("/genome_builds/:build/references/:reference/populations/:population/variants", ld.GetVariantLD,
		// middleware
		gam.RejectUnknownParameters(gam.VariantParameters...),
		gam.MandateVariantAttribute,
		gam.MandateChromosomeAttribute,
		gam.MandateCalibratedBounds,
		gam.MandateCorrelationAttribute,
		gam.ValidatePaging,
		gam.ValidateOutputFormat)

	// -- Aggregation
	e.POST("/aggregation/covariance", aggregation.PostCovariance)
	e.GET("/aggregation/metadata", aggregation.GetMetadata)

	return e
}
