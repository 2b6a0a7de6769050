package app

import (
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/modules/tasks/crontask"
	pkgcron "github.com/folio-space/core/internal/pkg/cron"
	"github.com/folio-space/core/internal/pkg/session"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, sessions *session.Store, cfg *config.AppConfig, logger *zap.Logger) {
	crontask.RegisterJobs(sched, crontask.Deps{
		Sessions:      sessions,
		LogDir:        cfg.LogDir(),
		LogRetainDays: cfg.Paths.LogRetentionDays,
	}, logger)
}
