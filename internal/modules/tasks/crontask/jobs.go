package crontask

import (
	"context"
	"time"

	"go.uber.org/zap"

	pkgcron "github.com/folio-space/core/internal/pkg/cron"
	"github.com/folio-space/core/internal/pkg/nativelog"
)

const (
	JobPurgeSessions = "purge_sessions"
	JobPruneLogs     = "prune_logs"

	// Expired sessions are kept this long before removal.
	sessionGrace = 7 * 24 * time.Hour
)

type SessionPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Deps struct {
	Sessions      SessionPurger
	LogDir        string
	LogRetainDays int
	Now           func() time.Time
}

// RegisterJobs adds the housekeeping jobs to sched.
func RegisterJobs(sched *pkgcron.Scheduler, deps Deps, logger *zap.Logger) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	log := logger.Named("cron")

	if deps.Sessions != nil {
		sched.Register(pkgcron.Job{
			Name:        JobPurgeSessions,
			Description: "Remove sessões expiradas ou revogadas",
			Interval:    6 * time.Hour,
			Fn: func(ctx context.Context) error {
				n, err := deps.Sessions.PurgeExpired(ctx, now().Add(-sessionGrace))
				if err != nil {
					log.Warn("purge sessions failed", zap.Error(err))
					return err
				}
				log.Info("sessions purged", zap.Int64("removed", n))
				return nil
			},
		})
	}

	if deps.LogDir != "" && deps.LogRetainDays > 0 {
		sched.Register(pkgcron.Job{
			Name:        JobPruneLogs,
			Description: "Apaga arquivos de log antigos",
			Interval:    24 * time.Hour,
			Fn: func(ctx context.Context) error {
				n, err := nativelog.Prune(deps.LogDir, deps.LogRetainDays, now())
				if err != nil {
					log.Warn("prune logs failed", zap.Error(err))
					return err
				}
				log.Info("logs pruned", zap.Int("removed", n))
				return nil
			},
		})
	}
}
