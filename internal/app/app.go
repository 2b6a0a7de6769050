package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/auth"
	"github.com/folio-space/core/internal/modules/content/contact"
	"github.com/folio-space/core/internal/modules/content/offering"
	"github.com/folio-space/core/internal/modules/content/project"
	"github.com/folio-space/core/internal/modules/content/sitecontent"
	"github.com/folio-space/core/internal/modules/gateway"
	"github.com/folio-space/core/internal/modules/stats/dashboard"
	"github.com/folio-space/core/internal/modules/storage/upload"
	pkgcron "github.com/folio-space/core/internal/pkg/cron"
	"github.com/folio-space/core/internal/pkg/events"
	"github.com/folio-space/core/internal/pkg/imaging"
	jwtpkg "github.com/folio-space/core/internal/pkg/jwt"
	"github.com/folio-space/core/internal/pkg/live"
	"github.com/folio-space/core/internal/pkg/mail"
	"github.com/folio-space/core/internal/pkg/objstore"
	pkgredis "github.com/folio-space/core/internal/pkg/redis"
	"github.com/folio-space/core/internal/pkg/session"
)

const (
	SessionTTL = 7 * 24 * time.Hour

	activitySize      = 20
	cachePurgeTimeout = 5 * time.Second
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	router *gin.Engine

	db    *gorm.DB
	rc    *pkgredis.Client
	store objstore.Store
	bus   *events.Bus
	hub   *gateway.Hub
	sched *pkgcron.Scheduler

	sessions  *session.Store
	authSvc   *auth.Service
	projects  *project.Service
	offerings *offering.Service
	content   *sitecontent.Service
	contact   *contact.Service
	assets    upload.AssetRepository
	uploads   *upload.Pipeline
	activity  *dashboard.Activity

	liveProjects *live.Collection[models.ProjectModel]
	liveServices *live.Collection[models.ServiceModel]
	liveContent  *live.Collection[models.SiteContentModel]
	liveMessages *live.Collection[models.ContactMessageModel]

	cancel context.CancelFunc
	unsubs []func()
	bg     sync.WaitGroup
}

// New initializes the application: config → DB → Redis → storage → services → routes,
// then starts the background loops.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	rc, err := pkgredis.Connect(cfg.Redis.URLValue())
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("redis: %w", err)
	}
	store, err := OpenStore(cfg)
	if err != nil {
		_ = rc.Close()
		_ = database.Close(db)
		return nil, fmt.Errorf("storage: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, db: db, rc: rc, store: store, sched: pkgcron.New()}
	a.wireEvents()
	a.wireServices()

	a.router = a.buildRouter()
	a.registerRoutes()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.startBackground(ctx)
	return a, nil
}

func (a *App) wireEvents() {
	a.bus = events.NewBus(events.WithLogger(a.logger.Named("events")))
	if a.cfg.Events.RedisFanout {
		a.bus.Attach(events.NewRedisPublisher(a.rc.Raw(), a.cfg.Events.Channel))
	}
	if url := a.cfg.Events.NATSURL; url != "" {
		np, err := events.NewNATSPublisher(url)
		if err != nil {
			a.logger.Warn("nats unavailable, change events stay local", zap.Error(err))
		} else {
			a.bus.Attach(np)
		}
	}
}

func (a *App) wireServices() {
	cfg := a.cfg
	tokens := jwtpkg.NewManager(cfg.JWTSecret)
	if tokens.UsesDefaultSecret() {
		a.logger.Warn("jwt_secret is empty, using built-in default secret")
	}
	a.sessions = session.NewStore(a.db, tokens)
	a.authSvc = auth.NewService(auth.NewUsers(a.db), a.sessions, SessionTTL, a.logger)

	a.projects = project.NewService(project.NewRepository(a.db), a.bus)
	a.offerings = offering.NewService(offering.NewRepository(a.db), a.bus)
	a.content = sitecontent.NewService(sitecontent.NewRepository(a.db), a.bus)
	a.contact = contact.NewService(contact.NewRepository(a.db), a.bus,
		mail.New(mail.BuildMailConfig(cfg.Mail)), a.logger)

	a.assets = upload.NewAssetRepository(a.db)
	a.uploads = upload.NewPipeline(a.store, a.assets, a.bus, upload.Config{
		Prefix:   cfg.Storage.Prefix,
		MaxBytes: cfg.Images.MaxUploadBytes(),
		Compress: imaging.CompressOptions{
			MaxWidth:  cfg.Images.MaxWidth,
			Quality:   cfg.Images.Quality,
			Threshold: cfg.Images.CompressThresholdBytes(),
		},
	}, a.logger)

	liveLog := live.WithLogger(a.logger.Named("live"))
	a.liveProjects = live.New("projects", events.TableProjects, a.projects.ListActive, a.bus, liveLog)
	a.liveServices = live.New("services", events.TableServices, a.offerings.ListActive, a.bus, liveLog)
	a.liveContent = live.New("site_contents", events.TableSiteContents, a.content.ListAll, a.bus, liveLog)
	a.liveMessages = live.New("contact_messages", events.TableContactMessages, a.contact.Recent, a.bus, liveLog)

	a.hub = gateway.NewHub(a.rc, a.logger, func(ctx context.Context, token string) bool {
		_, err := a.sessions.Validate(ctx, token)
		return err == nil
	})
	a.activity = dashboard.NewActivity(activitySize)
}

func (a *App) startBackground(ctx context.Context) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		a.hub.Run(ctx)
	}()

	a.unsubs = append(a.unsubs,
		a.hub.Forward(a.bus),
		a.bus.Subscribe(events.AllTables, a.activity.Record),
		a.bus.Subscribe(events.AllTables, a.purgeHTTPCache),
	)

	if a.cfg.Events.RedisFanout {
		relay := events.NewRedisRelay(a.rc.Raw(), a.cfg.Events.Channel, a.bus, a.logger.Named("relay"))
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("event relay stopped", zap.Error(err))
			}
		}()
	}

	a.startCollections(ctx)

	registerCronJobs(a.sched, a.sessions, a.cfg, a.logger)
	a.sched.Start(ctx)
}

type startable interface {
	Name() string
	Start(ctx context.Context) error
	Done() <-chan struct{}
}

func (a *App) collections() []startable {
	return []startable{a.liveProjects, a.liveServices, a.liveContent, a.liveMessages}
}

// startCollections runs the first fetch of every live collection in parallel.
// A failed first fetch is logged; the page shows the collection error.
func (a *App) startCollections(ctx context.Context) {
	var g errgroup.Group
	for _, c := range a.collections() {
		g.Go(func() error {
			if err := c.Start(ctx); err != nil {
				a.logger.Warn("initial fetch failed", zap.String("collection", c.Name()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// purgeHTTPCache drops cached public API responses after any content change.
func (a *App) purgeHTTPCache(_ context.Context, ev events.ChangeEvent) {
	if ev.Table == events.TableContactMessages {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cachePurgeTimeout)
		defer cancel()
		if _, err := middleware.PurgeHTTPCache(ctx, a.rc.Raw()); err != nil {
			a.logger.Warn("purge http cache failed", zap.String("table", ev.Table), zap.Error(err))
		}
	}()
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Server.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background loops, waits for in-flight mail and closes connections.
func (a *App) Shutdown() {
	a.cancel()
	for _, unsubscribe := range a.unsubs {
		unsubscribe()
	}
	a.sched.Wait()
	a.bg.Wait()
	for _, c := range a.collections() {
		<-c.Done()
	}
	a.contact.Wait()

	if err := a.bus.Close(); err != nil {
		a.logger.Warn("close event publishers", zap.Error(err))
	}
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}

var processStart = time.Now()
