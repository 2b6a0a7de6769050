package crontask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgcron "github.com/folio-space/core/internal/pkg/cron"
)

type fakePurger struct {
	cutoff time.Time
	err    error
}

func (f *fakePurger) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func fixedNow() time.Time { return time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC) }

func TestPurgeSessionsUsesGrace(t *testing.T) {
	sched := pkgcron.New()
	purger := &fakePurger{}
	RegisterJobs(sched, Deps{Sessions: purger, Now: fixedNow}, zap.NewNop())

	require.NoError(t, sched.Run(context.Background(), JobPurgeSessions))
	assert.Equal(t, fixedNow().Add(-sessionGrace), purger.cutoff)

	purger.err = errors.New("db down")
	require.Error(t, sched.Run(context.Background(), JobPurgeSessions))
	item, err := sched.Get(JobPurgeSessions)
	require.NoError(t, err)
	assert.Equal(t, pkgcron.StatusFailed, item.Status)
}

func TestPruneLogsRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"folio_2026-01-01.log", "folio_2026-03-19.log", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	sched := pkgcron.New()
	RegisterJobs(sched, Deps{LogDir: dir, LogRetainDays: 14, Now: fixedNow}, zap.NewNop())

	require.NoError(t, sched.Run(context.Background(), JobPruneLogs))
	_, err := os.Stat(filepath.Join(dir, "folio_2026-01-01.log"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "folio_2026-03-19.log"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestJobsSkippedWithoutDeps(t *testing.T) {
	sched := pkgcron.New()
	RegisterJobs(sched, Deps{LogDir: t.TempDir()}, zap.NewNop())
	assert.Empty(t, sched.List())
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sched := pkgcron.New()
	RegisterJobs(sched, Deps{Sessions: &fakePurger{}, Now: fixedNow}, zap.NewNop())

	r := gin.New()
	NewHandler(sched).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })

	do := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w
	}

	w := do(http.MethodGet, "/api/v1/admin/cron-task")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []pkgcron.ListItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, JobPurgeSessions, list.Data[0].Name)

	w = do(http.MethodPost, "/api/v1/admin/cron-task/"+JobPurgeSessions+"/run")
	require.Equal(t, http.StatusOK, w.Code)
	var item pkgcron.ListItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, pkgcron.StatusOK, item.Status)
	assert.NotNil(t, item.LastRunAt)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/admin/cron-task/nope").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/v1/admin/cron-task/nope/run").Code)
}
