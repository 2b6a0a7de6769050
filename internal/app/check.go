package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/pkg/objstore"
	pkgredis "github.com/folio-space/core/internal/pkg/redis"
)

const healthTimeout = 3 * time.Second

// Probe is one named dependency check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// ProbeResult reports a single probe outcome.
type ProbeResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Latency int64  `json:"latency_ms"`
}

// RunProbes runs every probe in order and reports whether all passed.
func RunProbes(ctx context.Context, probes []Probe) ([]ProbeResult, bool) {
	results := make([]ProbeResult, 0, len(probes))
	healthy := true
	for _, p := range probes {
		start := time.Now()
		err := p.Check(ctx)
		r := ProbeResult{Name: p.Name, OK: err == nil, Latency: time.Since(start).Milliseconds()}
		if err != nil {
			r.Error = err.Error()
			healthy = false
		}
		results = append(results, r)
	}
	return results, healthy
}

func probesFor(db *gorm.DB, rc *pkgredis.Client, store objstore.Store) []Probe {
	return []Probe{
		{Name: "database", Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		{Name: "redis", Check: rc.Ping},
		{Name: "storage:" + store.Name(), Check: store.Check},
	}
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	results, ok := RunProbes(ctx, probesFor(a.db, a.rc, a.store))
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": ok, "checks": results})
}

// Check connects to every configured backend once and reports the results.
func Check(ctx context.Context, cfg *config.AppConfig) ([]ProbeResult, error) {
	db, err := database.Connect(cfg, false)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	defer database.Close(db)

	rc, err := pkgredis.Connect(cfg.Redis.URLValue())
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	defer rc.Close()

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	results, ok := RunProbes(ctx, probesFor(db, rc, store))
	if !ok {
		return results, errors.New("one or more checks failed")
	}
	return results, nil
}
