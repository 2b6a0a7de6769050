package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/modules/auth"
	"github.com/folio-space/core/internal/modules/content/contact"
	"github.com/folio-space/core/internal/modules/content/offering"
	"github.com/folio-space/core/internal/modules/content/project"
	"github.com/folio-space/core/internal/modules/content/sitecontent"
	"github.com/folio-space/core/internal/modules/gateway"
	"github.com/folio-space/core/internal/modules/processing/markdown"
	"github.com/folio-space/core/internal/modules/site"
	"github.com/folio-space/core/internal/modules/stats/analyze"
	"github.com/folio-space/core/internal/modules/stats/dashboard"
	"github.com/folio-space/core/internal/modules/storage/upload"
	"github.com/folio-space/core/internal/modules/syndication/sitemap"
	"github.com/folio-space/core/internal/modules/tasks/crontask"
	"github.com/folio-space/core/internal/pkg/objstore"
	"github.com/folio-space/core/internal/pkg/response"
)

const (
	apiPrefix = "/api/v1"

	apiRateLimit = 120
)

var appInfo = gin.H{
	"name":    "folio-core",
	"version": "1.0.0",
}

func (a *App) buildRouter() *gin.Engine {
	if a.cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(a.logger))
	router.Use(cors.New(corsConfig(a.cfg.Server.AllowedOrigins, a.cfg.IsDev())))
	return router
}

func (a *App) registerRoutes() {
	r := a.router
	rdb := a.rc.Raw()
	authMW := middleware.Auth(a.sessions)
	optionalMW := middleware.OptionalAuth(a.sessions)
	pageViews := analyze.NewRedisStore(rdb)
	r.Use(analyze.Middleware(pageViews, middleware.TokenCookie, a.logger.Named("analyze"),
		a.cfg.Server.AdminLoginPath))

	siteHandler, err := site.NewHandler(site.Deps{
		Projects:  a.liveProjects,
		Services:  a.liveServices,
		Content:   a.liveContent,
		Messages:  a.liveMessages,
		Contact:   a.contact,
		Auth:      a.authSvc,
		LoginPath: a.cfg.Server.AdminLoginPath,
		Log:       a.logger,
	})
	if err != nil {
		// templates are embedded; a parse error is a build defect
		a.logger.Fatal("parse site templates", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, apiPrefix) {
			response.NotFound(c)
			return
		}
		siteHandler.NotFound(c)
	})

	contactGuards := []gin.HandlerFunc{
		middleware.RateLimit(rdb, middleware.RateLimitOptions{
			Name:   "contact",
			Max:    int64(a.cfg.Server.ContactRateLimit),
			Window: time.Minute,
		}),
		middleware.Idempotence(rdb),
	}

	// Root-level endpoints
	if local, ok := a.store.(*objstore.LocalStore); ok {
		r.Static(localObjectsPath, local.Root())
	}
	siteHandler.RegisterRoutes(r, optionalMW, contactGuards...)
	sitemap.RegisterRoutes(r, a.liveProjects, a.cfg.Server.PublicURL,
		"/admin/", apiPrefix+"/", a.cfg.Server.AdminLoginPath)

	// Versioned API
	api := r.Group(apiPrefix)
	api.Use(optionalMW)
	api.Use(middleware.RateLimit(rdb, middleware.RateLimitOptions{
		Name:   "api",
		Max:    apiRateLimit,
		Window: time.Minute,
	}))
	api.Use(middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{
		TTL:       time.Duration(a.cfg.Server.CacheTTLSeconds) * time.Second,
		Disable:   a.cfg.IsDev() || a.cfg.Server.CacheTTLSeconds == 0,
		SkipPaths: httpCacheSkipPaths(apiPrefix),
	}))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})
	api.GET("/health", a.health)
	gateway.RegisterRoutes(r, api, a.hub)

	// Auth
	auth.NewHandler(a.authSvc).RegisterRoutes(api, authMW, optionalMW)

	// Content
	project.NewHandler(a.projects, a.uploads).RegisterRoutes(api, authMW)
	offering.NewHandler(a.offerings).RegisterRoutes(api, authMW)
	sitecontent.NewHandler(a.content).RegisterRoutes(api, authMW)
	contact.NewHandler(a.contact).RegisterRoutes(api, authMW, contactGuards...)

	// Uploads and rendering
	upload.NewHandler(a.uploads).RegisterRoutes(api, authMW)
	markdown.NewHandler().RegisterRoutes(api, authMW)

	// Admin
	dashboard.NewHandler(dashboard.NewService(
		a.projects, a.offerings, a.contact, a.assets, a.hub, a.activity,
	)).RegisterRoutes(api, authMW)
	analyze.NewHandler(pageViews).RegisterRoutes(api, authMW)
	crontask.NewHandler(a.sched).RegisterRoutes(api, authMW)
	api.POST("/admin/cache/purge", authMW, func(c *gin.Context) {
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), rdb)
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, gin.H{"deleted": deleted})
	})
}

func httpCacheSkipPaths(prefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	return []string{
		p + "/uptime",
		p + "/health",
		p + "/gateway/*",
		p + "/auth/*",
		p + "/admin/*",
	}
}
